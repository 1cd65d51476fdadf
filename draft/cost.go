/*
cost.go - Bidirectional allocation cost derivation

PURPOSE:
  Keeps total_cost and cost_per_unit consistent as the user edits either side
  of the relationship. Derivation is deliberately one-directional per edit:
  it re-fires only on the edited field's own change, never on quantity
  changes. After a direct edit the two sides can therefore drift if quantity
  is later changed - that is the observed contract of this engine, not a bug
  to fix here.

DIVISION GUARD:
  When total_quantity is 0 or absent, no derived field is touched. The
  relationship is simply inactive until a quantity exists; divide-by-zero is
  avoided structurally, not caught.

SEE ALSO:
  - release.go: The other derivation pair (percentage <-> quantity)
*/
package draft

import "github.com/shopspring/decimal"

// CostField names the two sides of the cost relationship.
type CostField string

const (
	CostFieldTotal   CostField = "total_cost"
	CostFieldPerUnit CostField = "cost_per_unit"
)

// ApplyCostEdit sets the edited cost field and derives the opposite side when
// the allocation has a positive quantity. Inputs are assumed already clamped
// to a parsed numeric value by the caller; negative values are stored as-is.
func ApplyCostEdit(a *Allocation, field CostField, value decimal.Decimal) error {
	switch field {
	case CostFieldTotal:
		a.TotalCost = value
		if a.TotalQuantity > 0 {
			a.CostPerUnit = value.Div(decimal.NewFromInt(int64(a.TotalQuantity)))
		}
	case CostFieldPerUnit:
		a.CostPerUnit = value
		if a.TotalQuantity > 0 {
			a.TotalCost = value.Mul(decimal.NewFromInt(int64(a.TotalQuantity)))
		}
	default:
		return ErrUnknownField
	}
	return nil
}

// DisplayCostPerUnit returns the explicit cost_per_unit if set, else derives
// total_cost / total_quantity for read-only presentation. It never mutates
// the allocation. Returns zero when quantity is zero.
func DisplayCostPerUnit(a *Allocation) decimal.Decimal {
	if !a.CostPerUnit.IsZero() {
		return a.CostPerUnit
	}
	if a.TotalQuantity > 0 {
		return a.TotalCost.Div(decimal.NewFromInt(int64(a.TotalQuantity)))
	}
	return decimal.Zero
}
