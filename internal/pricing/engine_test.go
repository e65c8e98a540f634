package pricing

import (
	"errors"
	"reflect"
	"testing"
)

func testCatalog() Catalog {
	return Catalog{
		Vehicles: map[string]Vehicle{
			"gt3-cup": {ID: "gt3-cup", DisplayName: "Porsche GT3 Cup", Category: "2", SupplementBase: 50},
			"f4":      {ID: "f4", DisplayName: "Formula 4", Category: "3", SupplementBase: 120},
		},
		LapPrices: map[string]float64{"2": 20, "3": 35},
		Combos: []ComboDiscount{
			{VehicleCount: 2, DiscountPercent: 10},
			{VehicleCount: 3, DiscountPercent: 15},
		},
		Promos: map[string]float64{"2025-06-01": 20},
		Options: map[string]Option{
			"helmet": {ID: "helmet", Label: "Helmet rental", Price: 15},
			"video":  {ID: "video", Label: "Onboard video", Price: 49},
		},
		Mode:         ModeLaps,
		MaxExtraLaps: 10,
	}
}

func TestComputeBasePriceOnly(t *testing.T) {
	b, err := Compute(Request{BasePrice: 200}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total != 200 {
		t.Fatalf("expected total 200, got %v", b.Total)
	}
	if len(b.Lines) != 1 || b.Lines[0].Label != LineBasePrice {
		t.Fatalf("expected a single base price line, got %+v", b.Lines)
	}
}

func TestComputeVehicleSupplement(t *testing.T) {
	b, err := Compute(Request{BasePrice: 200, VehicleIDs: []string{"gt3-cup"}}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total != 250 {
		t.Fatalf("expected total 250, got %v", b.Total)
	}
	if got := lineAmount(t, b, LineVehicleSupplement); got != 50 {
		t.Fatalf("expected vehicle supplement 50, got %v", got)
	}
}

func TestComputeExtraLaps(t *testing.T) {
	b, err := Compute(Request{BasePrice: 200, VehicleIDs: []string{"gt3-cup"}, ExtraLaps: 3}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lineAmount(t, b, LineExtraLaps); got != 60 {
		t.Fatalf("expected extra laps line 60, got %v", got)
	}
	if b.Total != 310 {
		t.Fatalf("expected total 310, got %v", b.Total)
	}
}

func TestComputeComboThenPromoThenOptions(t *testing.T) {
	// Walks the full stage order of the formula: supplements first, then
	// the combo discount on the running subtotal, then the date promo,
	// then undiscounted options.
	cat := testCatalog()
	cat.Vehicles["gt3-cup"] = Vehicle{ID: "gt3-cup", Category: "2", SupplementBase: 40}
	cat.Vehicles["f4"] = Vehicle{ID: "f4", Category: "3", SupplementBase: 60}
	req := Request{
		BasePrice:  200,
		VehicleIDs: []string{"gt3-cup", "f4"},
		Date:       "2025-06-01",
		OptionIDs:  []string{"helmet"},
	}
	b, err := Compute(req, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 200 + 100 = 300, combo -10% = 270, promo -20% = 216, helmet +15 = 231
	if got := lineAmount(t, b, LineComboDiscount); got != -30 {
		t.Fatalf("expected combo discount -30, got %v", got)
	}
	if b.SubtotalBeforePromo != 270 {
		t.Fatalf("expected subtotal before promo 270, got %v", b.SubtotalBeforePromo)
	}
	if got := lineAmount(t, b, LineDatePromo); got != -54 {
		t.Fatalf("expected date promo -54, got %v", got)
	}
	if got := lineAmount(t, b, LineOptions); got != 15 {
		t.Fatalf("expected options line 15, got %v", got)
	}
	if b.Total != 231 {
		t.Fatalf("expected total 231, got %v", b.Total)
	}
}

func TestComputeOptionsNeverDiscounted(t *testing.T) {
	cat := testCatalog()
	base := Request{BasePrice: 200, VehicleIDs: []string{"gt3-cup"}, Date: "2025-06-01"}
	withOption := base
	withOption.OptionIDs = []string{"video"}

	plain, err := Compute(base, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opted, err := Compute(withOption, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lineAmount(t, plain, LineDatePromo) != lineAmount(t, opted, LineDatePromo) {
		t.Fatalf("adding an option changed the promo amount: %v vs %v",
			lineAmount(t, plain, LineDatePromo), lineAmount(t, opted, LineDatePromo))
	}
	if opted.Total != plain.Total+49 {
		t.Fatalf("expected option to add exactly its price, got %v vs %v", opted.Total, plain.Total)
	}
}

func TestComputeSingleVehicleNoCombo(t *testing.T) {
	b, err := Compute(Request{BasePrice: 300, VehicleIDs: []string{"gt3-cup"}}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, line := range b.Lines {
		if line.Label == LineComboDiscount {
			t.Fatalf("combo discount must not apply to a single vehicle")
		}
	}
}

func TestComputeUnmatchedComboCountIsSoftMiss(t *testing.T) {
	cat := testCatalog()
	cat.Combos = []ComboDiscount{{VehicleCount: 3, DiscountPercent: 15}}
	b, err := Compute(Request{BasePrice: 200, VehicleIDs: []string{"gt3-cup", "f4"}}, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total != 370 {
		t.Fatalf("expected undiscounted total 370, got %v", b.Total)
	}
	if len(b.Misses) != 1 || b.Misses[0].Kind != MissCombo || b.Misses[0].Key != "2" {
		t.Fatalf("expected combo miss for count 2, got %+v", b.Misses)
	}
}

func TestComputeMissingLapPriceDegradesToZero(t *testing.T) {
	cat := testCatalog()
	delete(cat.LapPrices, "3")
	b, err := Compute(Request{BasePrice: 100, VehicleIDs: []string{"f4"}, ExtraLaps: 2}, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lineAmount(t, b, LineExtraLaps); got != 0 {
		t.Fatalf("expected zero lap contribution, got %v", got)
	}
	if len(b.Misses) != 1 || b.Misses[0].Kind != MissLapPrice || b.Misses[0].Key != "3" {
		t.Fatalf("expected lap price miss for category 3, got %+v", b.Misses)
	}
}

func TestComputePromoRequiresExactDate(t *testing.T) {
	b, err := Compute(Request{BasePrice: 200, Date: "2025-06-02"}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total != 200 {
		t.Fatalf("expected no promo on unlisted date, got %v", b.Total)
	}
}

func TestComputeZeroPercentPromoIgnored(t *testing.T) {
	cat := testCatalog()
	cat.Promos["2025-07-01"] = 0
	b, err := Compute(Request{BasePrice: 200, Date: "2025-07-01"}, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total != 200 {
		t.Fatalf("expected zero-percent promo to be ignored, got %v", b.Total)
	}
}

func TestComputeFormulaMode(t *testing.T) {
	cat := testCatalog()
	cat.Mode = ModeFormula
	cat.FormulaSupplement = 75
	b, err := Compute(Request{BasePrice: 200, VehicleIDs: []string{"gt3-cup"}}, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lineAmount(t, b, LineFormulaSupplement); got != 75 {
		t.Fatalf("expected formula supplement 75, got %v", got)
	}
	if b.Total != 325 {
		t.Fatalf("expected total 325, got %v", b.Total)
	}

	if _, err := Compute(Request{BasePrice: 200, ExtraLaps: 2}, cat); !errors.Is(err, ErrLapsNotAvailable) {
		t.Fatalf("expected ErrLapsNotAvailable, got %v", err)
	}
}

func TestComputeInvalidRequests(t *testing.T) {
	cat := testCatalog()
	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"negative laps", Request{ExtraLaps: -1}, ErrNegativeLaps},
		{"laps above maximum", Request{VehicleIDs: []string{"gt3-cup"}, ExtraLaps: 11}, ErrTooManyLaps},
		{"unknown vehicle", Request{VehicleIDs: []string{"nope"}}, ErrUnknownVehicle},
		{"unknown option", Request{OptionIDs: []string{"nope"}}, ErrUnknownOption},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.req, cat)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected error to wrap ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestComputeDuplicateSelectionsDeduplicated(t *testing.T) {
	b, err := Compute(Request{
		BasePrice:  200,
		VehicleIDs: []string{"gt3-cup", "gt3-cup"},
		OptionIDs:  []string{"helmet", "helmet"},
	}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total != 265 {
		t.Fatalf("expected duplicates to count once (265), got %v", b.Total)
	}
}

func TestComputeNegativeTotalClampedToZero(t *testing.T) {
	cat := testCatalog()
	cat.Combos = []ComboDiscount{{VehicleCount: 2, DiscountPercent: 150}}
	b, err := Compute(Request{BasePrice: 10, VehicleIDs: []string{"gt3-cup", "f4"}}, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total != 0 {
		t.Fatalf("expected clamped total 0, got %v", b.Total)
	}
	if got := lineAmount(t, b, LineNegativeClamp); got <= 0 {
		t.Fatalf("expected a positive clamp line, got %v", got)
	}
}

func TestComputeIdempotent(t *testing.T) {
	cat := testCatalog()
	req := Request{
		BasePrice:  200,
		VehicleIDs: []string{"gt3-cup", "f4"},
		ExtraLaps:  2,
		Date:       "2025-06-01",
		OptionIDs:  []string{"helmet", "video"},
	}
	first, err := Compute(req, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Compute(req, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical breakdowns, got %+v vs %+v", first, second)
	}
}

func TestComputeStageOrder(t *testing.T) {
	cat := testCatalog()
	req := Request{
		BasePrice:  200,
		VehicleIDs: []string{"gt3-cup", "f4"},
		ExtraLaps:  1,
		Date:       "2025-06-01",
		OptionIDs:  []string{"helmet"},
	}
	b, err := Compute(req, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		LineBasePrice,
		LineVehicleSupplement,
		LineExtraLaps,
		LineComboDiscount,
		LineDatePromo,
		LineOptions,
	}
	if len(b.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %+v", len(want), b.Lines)
	}
	for i, label := range want {
		if b.Lines[i].Label != label {
			t.Fatalf("line %d: expected %s, got %s", i, label, b.Lines[i].Label)
		}
	}
}

func lineAmount(t *testing.T, b Breakdown, label string) float64 {
	t.Helper()
	for _, line := range b.Lines {
		if line.Label == label {
			return line.Amount
		}
	}
	t.Fatalf("breakdown has no %q line: %+v", label, b.Lines)
	return 0
}
