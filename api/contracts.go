/*
contracts.go - Client for the external contract-creation API

PURPOSE:
  The wizard does not own contract persistence. On submit, the full draft is
  POSTed to the platform's contracts service; non-2xx responses carry
  {"error": "..."} and the message is surfaced to the user verbatim.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ContractsClient posts finished drafts to the external contracts service.
type ContractsClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewContractsClient(baseURL string) *ContractsClient {
	return &ContractsClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ContractsAPIError carries the upstream error message verbatim.
type ContractsAPIError struct {
	StatusCode int
	Message    string
}

func (e *ContractsAPIError) Error() string {
	return fmt.Sprintf("contracts API returned %d: %s", e.StatusCode, e.Message)
}

type createContractResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Create submits the draft. Returns the created contract id.
func (c *ContractsClient) Create(ctx context.Context, d DraftDTO) (string, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to serialize draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/contracts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("contracts API unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed createContractResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := parsed.Error
		if msg == "" {
			msg = string(raw)
		}
		return "", &ContractsAPIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return parsed.ID, nil
}
