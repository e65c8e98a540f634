package quote

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrunoPirard/gtro-pricing/internal/catalog"
	"github.com/BrunoPirard/gtro-pricing/internal/common"
	"github.com/BrunoPirard/gtro-pricing/internal/obs"
	"github.com/BrunoPirard/gtro-pricing/internal/pricing"
)

// snapshotProvider is the slice of the catalog service the quote flow needs.
type snapshotProvider interface {
	Snapshot(ctx context.Context, slug string) (catalog.Snapshot, error)
}

// Request is a shopper's selection to be priced.
type Request struct {
	ProductSlug string   `json:"product" validate:"required"`
	VehicleIDs  []string `json:"vehicles" validate:"dive,required"`
	ExtraLaps   int      `json:"extraLaps"`
	Date        string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	OptionIDs   []string `json:"options" validate:"dive,required"`
}

// Response is the priced quote returned to the booking preview. Total is
// the exact engine result, DisplayTotal rounds it up to a whole unit for
// the storefront.
type Response struct {
	Product      string            `json:"product"`
	Currency     string            `json:"currency"`
	Breakdown    pricing.Breakdown `json:"breakdown"`
	Total        float64           `json:"total"`
	DisplayTotal float64           `json:"displayTotal"`
}

// Service prices quote requests against catalog snapshots.
type Service struct {
	catalog  snapshotProvider
	currency string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService constructs a quote Service.
func NewService(cat snapshotProvider, currency string, logger zerolog.Logger) (*Service, error) {
	if cat == nil {
		return nil, errors.New("quote: catalog service is required")
	}
	if currency == "" {
		currency = "EUR"
	}
	return &Service{catalog: cat, currency: currency, logger: logger, now: time.Now}, nil
}

// Quote loads the product snapshot, checks date bookability, and runs the
// pricing engine. Soft lookup misses are logged and counted here so the
// engine itself stays pure.
func (s *Service) Quote(ctx context.Context, req Request) (Response, error) {
	start := s.now()
	resp, err := s.quote(ctx, req)
	s.observe(start, err)
	return resp, err
}

func (s *Service) quote(ctx context.Context, req Request) (Response, error) {
	snap, err := s.catalog.Snapshot(ctx, req.ProductSlug)
	if err != nil {
		return Response{}, err
	}
	if req.Date != "" && !snap.IsBookable(req.Date) {
		return Response{}, common.Unprocessable("DATE_NOT_BOOKABLE", "the selected date is not open for booking", nil)
	}

	breakdown, err := pricing.Compute(pricing.Request{
		BasePrice:  snap.Product.BasePrice,
		VehicleIDs: req.VehicleIDs,
		ExtraLaps:  req.ExtraLaps,
		Date:       req.Date,
		OptionIDs:  req.OptionIDs,
	}, snap.PricingCatalog())
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidRequest) {
			return Response{}, common.BadRequest("selection", err.Error(), err)
		}
		return Response{}, err
	}

	for _, miss := range breakdown.Misses {
		s.logger.Warn().
			Str("product", req.ProductSlug).
			Str("kind", miss.Kind).
			Str("key", miss.Key).
			Msg("catalog lookup miss")
		if obs.CatalogLookupMissTotal != nil {
			obs.CatalogLookupMissTotal.WithLabelValues(miss.Kind).Inc()
		}
	}

	return Response{
		Product:      req.ProductSlug,
		Currency:     s.currency,
		Breakdown:    breakdown,
		Total:        breakdown.Total,
		DisplayTotal: math.Ceil(breakdown.Total),
	}, nil
}

func (s *Service) observe(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(result).Inc()
	}
	if obs.QuoteDuration != nil {
		obs.QuoteDuration.Observe(obs.DurationMillis(s.now().Sub(start)))
	}
}
