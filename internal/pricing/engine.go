package pricing

import (
	"errors"
	"fmt"
)

// Mode selects how extra usage beyond the base allotment is priced.
// The two modes are mutually exclusive per product.
type Mode string

const (
	// ModeLaps prices extra laps per selected vehicle category.
	ModeLaps Mode = "laps"
	// ModeFormula adds a flat supplement instead of per-lap pricing.
	ModeFormula Mode = "formula"
)

// Breakdown line labels, stable across callers so the checkout flow and
// the live preview render identical itemizations.
const (
	LineBasePrice         = "base_price"
	LineVehicleSupplement = "vehicle_supplement"
	LineExtraLaps         = "extra_laps"
	LineFormulaSupplement = "formula_supplement"
	LineComboDiscount     = "combo_discount"
	LineDatePromo         = "date_promo"
	LineOptions           = "options"
	LineNegativeClamp     = "negative_total_clamp"
)

// Soft lookup-miss kinds recorded on the breakdown.
const (
	MissLapPrice = "lap_price"
	MissCombo    = "combo_discount"
)

var (
	// ErrInvalidRequest is the root of every request validation failure.
	ErrInvalidRequest = errors.New("pricing: invalid request")
	// ErrNegativeLaps is returned when the requested extra lap count is below zero.
	ErrNegativeLaps = fmt.Errorf("%w: extra laps must not be negative", ErrInvalidRequest)
	// ErrTooManyLaps is returned when the requested extra laps exceed the product maximum.
	ErrTooManyLaps = fmt.Errorf("%w: extra laps exceed product maximum", ErrInvalidRequest)
	// ErrLapsNotAvailable is returned when extra laps are requested on a formula-priced product.
	ErrLapsNotAvailable = fmt.Errorf("%w: product does not price extra laps", ErrInvalidRequest)
	// ErrUnknownVehicle is returned when a selected vehicle id is not in the catalog.
	ErrUnknownVehicle = fmt.Errorf("%w: unknown vehicle", ErrInvalidRequest)
	// ErrUnknownOption is returned when a selected option id is not in the catalog.
	ErrUnknownOption = fmt.Errorf("%w: unknown option", ErrInvalidRequest)
)

// Vehicle is a selectable vehicle with its tier category and base supplement.
type Vehicle struct {
	ID             string
	DisplayName    string
	Category       string
	SupplementBase float64
}

// ComboDiscount reduces the running subtotal by a percentage when the
// number of selected vehicles matches VehicleCount exactly.
type ComboDiscount struct {
	VehicleCount    int
	DiscountPercent float64
}

// Option is a flat additive price item.
type Option struct {
	ID    string
	Label string
	Price float64
}

// Catalog is the immutable configuration snapshot a computation reads.
// Callers must treat it as read-only for the duration of the call.
type Catalog struct {
	Vehicles map[string]Vehicle
	// LapPrices maps a vehicle category to its price per extra lap.
	LapPrices map[string]float64
	Combos    []ComboDiscount
	// Promos maps an ISO date (2006-01-02) to a discount percentage.
	Promos  map[string]float64
	Options map[string]Option

	Mode Mode
	// FormulaSupplement is the flat amount added in ModeFormula.
	FormulaSupplement float64
	// MaxExtraLaps bounds the extra lap count in ModeLaps. Zero means no limit.
	MaxExtraLaps int
}

// Request is a shopper's selection against a catalog snapshot.
type Request struct {
	BasePrice  float64
	VehicleIDs []string
	ExtraLaps  int
	// Date is the selected event date in ISO form, empty when none.
	Date      string
	OptionIDs []string
}

// Line is one signed adjustment stage of a breakdown.
type Line struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Miss records a catalog lookup that degraded to a zero contribution.
type Miss struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

// Breakdown is the ordered record of every adjustment applied.
type Breakdown struct {
	Lines []Line `json:"lines"`
	// SubtotalBeforePromo is the running total after the combo discount
	// and before the date promotion, kept as a display checkpoint.
	SubtotalBeforePromo float64 `json:"subtotalBeforePromo"`
	Total               float64 `json:"total"`
	Misses              []Miss  `json:"misses,omitempty"`
}

// Compute prices a request against a catalog snapshot. It is a pure
// function: identical inputs always yield identical breakdowns, and no
// ambient time, locale, or external state is consulted. Missing price
// data for a known selection contributes zero and is recorded as a
// Miss; unknown selection ids fail with an ErrInvalidRequest wrapper.
func Compute(req Request, cat Catalog) (Breakdown, error) {
	if req.ExtraLaps < 0 {
		return Breakdown{}, ErrNegativeLaps
	}
	if req.ExtraLaps > 0 {
		if cat.Mode == ModeFormula {
			return Breakdown{}, ErrLapsNotAvailable
		}
		if cat.MaxExtraLaps > 0 && req.ExtraLaps > cat.MaxExtraLaps {
			return Breakdown{}, fmt.Errorf("%w: %d > %d", ErrTooManyLaps, req.ExtraLaps, cat.MaxExtraLaps)
		}
	}

	vehicles := make([]Vehicle, 0, len(req.VehicleIDs))
	for _, id := range dedupe(req.VehicleIDs) {
		v, ok := cat.Vehicles[id]
		if !ok {
			return Breakdown{}, fmt.Errorf("%w: %s", ErrUnknownVehicle, id)
		}
		vehicles = append(vehicles, v)
	}
	optionIDs := dedupe(req.OptionIDs)
	for _, id := range optionIDs {
		if _, ok := cat.Options[id]; !ok {
			return Breakdown{}, fmt.Errorf("%w: %s", ErrUnknownOption, id)
		}
	}

	var b Breakdown
	total := req.BasePrice
	b.Lines = append(b.Lines, Line{Label: LineBasePrice, Amount: req.BasePrice})

	var supplement float64
	for _, v := range vehicles {
		supplement += v.SupplementBase
	}
	if len(vehicles) > 0 {
		total += supplement
		b.Lines = append(b.Lines, Line{Label: LineVehicleSupplement, Amount: supplement})
	}

	switch {
	case cat.Mode == ModeFormula:
		total += cat.FormulaSupplement
		b.Lines = append(b.Lines, Line{Label: LineFormulaSupplement, Amount: cat.FormulaSupplement})
	case req.ExtraLaps > 0:
		var lapTotal float64
		for _, v := range vehicles {
			perLap, ok := cat.LapPrices[v.Category]
			if !ok {
				b.Misses = append(b.Misses, Miss{Kind: MissLapPrice, Key: v.Category})
				continue
			}
			lapTotal += float64(req.ExtraLaps) * perLap
		}
		total += lapTotal
		b.Lines = append(b.Lines, Line{Label: LineExtraLaps, Amount: lapTotal})
	}

	if n := len(vehicles); n > 1 {
		if combo, ok := comboForCount(cat.Combos, n); ok {
			discount := total * combo.DiscountPercent / 100
			total -= discount
			b.Lines = append(b.Lines, Line{Label: LineComboDiscount, Amount: -discount})
		} else {
			b.Misses = append(b.Misses, Miss{Kind: MissCombo, Key: fmt.Sprintf("%d", n)})
		}
	}

	b.SubtotalBeforePromo = total

	if req.Date != "" {
		if percent, ok := cat.Promos[req.Date]; ok && percent > 0 {
			discount := total * percent / 100
			total -= discount
			b.Lines = append(b.Lines, Line{Label: LineDatePromo, Amount: -discount})
		}
	}

	if len(optionIDs) > 0 {
		var optTotal float64
		for _, id := range optionIDs {
			optTotal += cat.Options[id].Price
		}
		total += optTotal
		b.Lines = append(b.Lines, Line{Label: LineOptions, Amount: optTotal})
	}

	if total < 0 {
		b.Lines = append(b.Lines, Line{Label: LineNegativeClamp, Amount: -total})
		total = 0
	}
	b.Total = total
	return b, nil
}

// comboForCount returns the first configured discount matching the
// selected vehicle count. At most one combo applies, no stacking.
func comboForCount(combos []ComboDiscount, count int) (ComboDiscount, bool) {
	for _, c := range combos {
		if c.VehicleCount == count {
			return c, true
		}
	}
	return ComboDiscount{}, false
}

// dedupe drops repeated ids preserving first-occurrence order so that
// breakdowns stay deterministic for a given request.
func dedupe(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
