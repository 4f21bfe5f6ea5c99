// Package session holds the in-flight editing state of a quotation: a
// working snapshot mutated one field at a time through pure reducers, a
// canonical snapshot for cancel/rollback, and the save path that ships
// the full recomputed state to the persistence layer.
package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solardash/internal/pricing"
)

// FieldError is a local validation failure scoped to a single field.
// The session is never mutated when one of these is returned.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldErr(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// ProductLine is a catalog product priced into the working snapshot.
type ProductLine struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	ProductType      string
	Quantity         int
	UnitPrice        decimal.Decimal
	ProfitPercentage decimal.Decimal
	Totals           pricing.LineTotals
}

// ItemLine is a free-form priced item in the working snapshot.
type ItemLine struct {
	ID               uuid.UUID
	Description      string
	ItemType         string
	Quantity         decimal.Decimal
	Unit             string
	UnitPrice        decimal.Decimal
	ProfitPercentage decimal.Decimal
	Totals           pricing.LineTotals
}

// Snapshot is the unit of edit, save and rollback: every line, the six
// percentage parameters, and the breakdown derived from them.
type Snapshot struct {
	QuotationID uuid.UUID
	ProjectName string
	SystemType  string
	GridType    string
	PowerKWP    decimal.Decimal
	PanelCount  int

	ProductLines []ProductLine
	ItemLines    []ItemLine
	Percentages  pricing.Percentages
	Breakdown    pricing.Breakdown
}

// Clone returns a deep copy; reducers work on copies so a rejected edit
// leaves the original untouched.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.ProductLines = make([]ProductLine, len(s.ProductLines))
	copy(out.ProductLines, s.ProductLines)
	out.ItemLines = make([]ItemLine, len(s.ItemLines))
	copy(out.ItemLines, s.ItemLines)
	return out
}

// LineCount is the total number of priced lines.
func (s Snapshot) LineCount() int {
	return len(s.ProductLines) + len(s.ItemLines)
}

// lineTotals collects every line's derived totals for aggregation.
func (s Snapshot) lineTotals() []pricing.LineTotals {
	totals := make([]pricing.LineTotals, 0, s.LineCount())
	for _, l := range s.ProductLines {
		totals = append(totals, l.Totals)
	}
	for _, l := range s.ItemLines {
		totals = append(totals, l.Totals)
	}
	return totals
}

// Recompute refreshes every derived value from raw fields: each line's
// totals, then the full breakdown. Reducers call this after every
// accepted mutation so no stale derived data survives an edit.
func (s Snapshot) Recompute() (Snapshot, error) {
	out := s.Clone()
	for i, l := range out.ProductLines {
		totals, err := pricing.ComputeLine(decimal.NewFromInt(int64(l.Quantity)), l.UnitPrice, l.ProfitPercentage)
		if err != nil {
			return Snapshot{}, fmt.Errorf("product line %s: %w", l.ID, err)
		}
		out.ProductLines[i].Totals = totals
	}
	for i, l := range out.ItemLines {
		totals, err := pricing.ComputeLine(l.Quantity, l.UnitPrice, l.ProfitPercentage)
		if err != nil {
			return Snapshot{}, fmt.Errorf("item line %s: %w", l.ID, err)
		}
		out.ItemLines[i].Totals = totals
	}
	if err := out.Percentages.Validate(); err != nil {
		return Snapshot{}, err
	}
	out.Breakdown = pricing.Aggregate(out.lineTotals(), out.Percentages)
	return out, nil
}

// findProductLine returns the index of a product line or -1.
func (s Snapshot) findProductLine(lineID uuid.UUID) int {
	for i, l := range s.ProductLines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}

func (s Snapshot) findItemLine(lineID uuid.UUID) int {
	for i, l := range s.ItemLines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}
