package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/BrunoPirard/gtro-pricing/internal/catalog"
	"github.com/BrunoPirard/gtro-pricing/internal/common"
	"github.com/BrunoPirard/gtro-pricing/internal/pricing"
)

type fakeCatalog struct {
	snap catalog.Snapshot
	err  error
}

func (f *fakeCatalog) Snapshot(context.Context, string) (catalog.Snapshot, error) {
	if f.err != nil {
		return catalog.Snapshot{}, f.err
	}
	return f.snap, nil
}

func testSnapshot() catalog.Snapshot {
	return catalog.Snapshot{
		Product: catalog.Product{
			ID:           "11111111-1111-1111-1111-111111111111",
			Slug:         "gtro-experience",
			Title:        "GT Road Opera Experience",
			BasePrice:    200,
			Mode:         pricing.ModeLaps,
			MaxExtraLaps: 10,
		},
		Vehicles: []catalog.Vehicle{
			{ID: "gt3-rs", DisplayName: "GT3 RS", Category: "gt", SupplementBase: 50},
			{ID: "huracan", DisplayName: "Huracan", Category: "gt", SupplementBase: 50},
		},
		LapPrices: []catalog.LapPrice{{Category: "gt", PricePerLap: 30}},
		Combos:    []catalog.ComboDiscount{{VehicleCount: 2, DiscountPercent: 10}},
		Promos:    []catalog.DatePromo{{Date: "2026-04-18", DiscountPercent: 20}},
		Options:   []catalog.Option{{ID: "video", Label: "Onboard video", Price: 15}},
		DateGroups: []catalog.DateGroup{
			{Name: "spring", Dates: []string{"2026-04-18", "2026-04-19"}},
		},
	}
}

func newTestQuoteService(t *testing.T, cat snapshotProvider) *Service {
	t.Helper()
	svc, err := NewService(cat, "EUR", zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestQuoteSingleVehicleWithLaps(t *testing.T) {
	svc := newTestQuoteService(t, &fakeCatalog{snap: testSnapshot()})

	resp, err := svc.Quote(context.Background(), Request{
		ProductSlug: "gtro-experience",
		VehicleIDs:  []string{"gt3-rs"},
		ExtraLaps:   2,
	})
	require.NoError(t, err)
	require.Equal(t, 310.0, resp.Total)
	require.Equal(t, 310.0, resp.DisplayTotal)
	require.Equal(t, "EUR", resp.Currency)
	require.Empty(t, resp.Breakdown.Misses)
}

func TestQuoteComboAndPromoAndOption(t *testing.T) {
	svc := newTestQuoteService(t, &fakeCatalog{snap: testSnapshot()})

	resp, err := svc.Quote(context.Background(), Request{
		ProductSlug: "gtro-experience",
		VehicleIDs:  []string{"gt3-rs", "huracan"},
		Date:        "2026-04-18",
		OptionIDs:   []string{"video"},
	})
	require.NoError(t, err)
	// 200 + 100 = 300, combo -10% = 270, promo -20% = 216, option +15 = 231
	require.Equal(t, 270.0, resp.Breakdown.SubtotalBeforePromo)
	require.Equal(t, 231.0, resp.Total)
}

func TestQuoteDisplayTotalRoundsUp(t *testing.T) {
	snap := testSnapshot()
	snap.Promos = []catalog.DatePromo{{Date: "2026-04-18", DiscountPercent: 15}}
	svc := newTestQuoteService(t, &fakeCatalog{snap: snap})

	resp, err := svc.Quote(context.Background(), Request{
		ProductSlug: "gtro-experience",
		VehicleIDs:  []string{"gt3-rs"},
		Date:        "2026-04-18",
	})
	require.NoError(t, err)
	// 250 - 15% = 212.5
	require.Equal(t, 212.5, resp.Total)
	require.Equal(t, 213.0, resp.DisplayTotal)
}

func TestQuoteDateNotBookable(t *testing.T) {
	svc := newTestQuoteService(t, &fakeCatalog{snap: testSnapshot()})

	_, err := svc.Quote(context.Background(), Request{
		ProductSlug: "gtro-experience",
		VehicleIDs:  []string{"gt3-rs"},
		Date:        "2026-12-24",
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "DATE_NOT_BOOKABLE", appErr.Code)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
}

func TestQuoteInvalidSelectionMapsToBadRequest(t *testing.T) {
	svc := newTestQuoteService(t, &fakeCatalog{snap: testSnapshot()})

	_, err := svc.Quote(context.Background(), Request{
		ProductSlug: "gtro-experience",
		VehicleIDs:  []string{"batmobile"},
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)
	require.ErrorIs(t, err, pricing.ErrUnknownVehicle)
}

func TestQuotePropagatesCatalogErrors(t *testing.T) {
	svc := newTestQuoteService(t, &fakeCatalog{err: common.NotFound("product not found", nil)})

	_, err := svc.Quote(context.Background(), Request{ProductSlug: "missing"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestQuoteRecordsLookupMisses(t *testing.T) {
	snap := testSnapshot()
	snap.LapPrices = nil
	svc := newTestQuoteService(t, &fakeCatalog{snap: snap})

	resp, err := svc.Quote(context.Background(), Request{
		ProductSlug: "gtro-experience",
		VehicleIDs:  []string{"gt3-rs"},
		ExtraLaps:   3,
	})
	require.NoError(t, err)
	require.Equal(t, 250.0, resp.Total)
	require.Len(t, resp.Breakdown.Misses, 1)
	require.Equal(t, pricing.MissLapPrice, resp.Breakdown.Misses[0].Kind)
}

func newQuoteHandler(t *testing.T, cat snapshotProvider) *Handler {
	t.Helper()
	return &Handler{Svc: newTestQuoteService(t, cat), Validate: validator.New()}
}

func TestPriceEndpoint(t *testing.T) {
	h := newQuoteHandler(t, &fakeCatalog{snap: testSnapshot()})

	body := `{"product":"gtro-experience","vehicles":["gt3-rs"],"extraLaps":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Price(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Data Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 310.0, out.Data.Total)
	require.NotEmpty(t, out.Data.Breakdown.Lines)
}

func TestPriceEndpointValidation(t *testing.T) {
	h := newQuoteHandler(t, &fakeCatalog{snap: testSnapshot()})

	cases := map[string]string{
		"missing product": `{"vehicles":["gt3-rs"]}`,
		"bad date":        `{"product":"gtro-experience","date":"18-04-2026"}`,
		"malformed json":  `{"product":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.Price(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPriceEndpointUnbookableDate(t *testing.T) {
	h := newQuoteHandler(t, &fakeCatalog{snap: testSnapshot()})

	body := `{"product":"gtro-experience","vehicles":["gt3-rs"],"date":"2027-01-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Price(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var out struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "DATE_NOT_BOOKABLE", out.Error.Code)
}
