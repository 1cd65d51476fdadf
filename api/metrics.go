// Package-level prometheus instrumentation for the wizard engine.
package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielGPGT/tour-ops-saas-app-sub001/draft"
)

var (
	autoSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wizard_autosaves_total",
		Help: "Draft snapshots persisted by the auto-save scheduler.",
	})
	mergesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_extraction_merges_total",
		Help: "Extraction merge invocations by outcome (changed, noop).",
	}, []string{"outcome"})
	extractionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wizard_extraction_failures_total",
		Help: "Extraction payloads that failed to parse.",
	})
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_submissions_total",
		Help: "Contract submissions by outcome (accepted, rejected, error).",
	}, []string{"outcome"})
)

// MetricsHandler serves the prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// CountingSink wraps a draft.SaveSink and counts successful saves.
type CountingSink struct {
	Next draft.SaveSink
}

func (c CountingSink) Save(ctx context.Context, snap draft.Snapshot) error {
	if err := c.Next.Save(ctx, snap); err != nil {
		return err
	}
	autoSavesTotal.Inc()
	return nil
}
