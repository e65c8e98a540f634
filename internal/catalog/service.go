package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BrunoPirard/gtro-pricing/internal/common"
	"github.com/BrunoPirard/gtro-pricing/internal/obs"
)

// storeProvider abstracts the Postgres store for testability.
type storeProvider interface {
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	ListVehicles(ctx context.Context, productID string) ([]Vehicle, error)
	ListLapPrices(ctx context.Context, productID string) ([]LapPrice, error)
	ListCombos(ctx context.Context, productID string) ([]ComboDiscount, error)
	ListPromos(ctx context.Context, productID string) ([]DatePromo, error)
	ListOptions(ctx context.Context, productID string) ([]Option, error)
	ListDateGroups(ctx context.Context, productID string) ([]DateGroup, error)
	ReplacePromos(ctx context.Context, productID string, promos []DatePromo) error
	ReplaceCombos(ctx context.Context, productID string, combos []ComboDiscount) error
	ReplaceLapPrices(ctx context.Context, productID string, prices []LapPrice) error
	ReplaceDateGroups(ctx context.Context, productID string, groups []DateGroup) error
	UpsertVehicle(ctx context.Context, productID string, v Vehicle) error
	UpsertOption(ctx context.Context, productID string, o Option) error
}

// Warmer schedules a background snapshot rebuild after admin writes.
type Warmer interface {
	EnqueueWarm(ctx context.Context, slug string) error
}

// Service assembles catalog snapshots and applies admin mutations.
type Service struct {
	store  storeProvider
	cache  *Cache
	warmer Warmer
	logger zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  storeProvider
	Cache  *Cache
	Warmer Warmer
	Logger zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	return &Service{
		store:  cfg.Store,
		cache:  cfg.Cache,
		warmer: cfg.Warmer,
		logger: cfg.Logger,
	}, nil
}

// Snapshot returns the catalog snapshot for a product slug, serving from
// the Redis cache when possible. Each call hands back an independent
// value, so concurrent pricing requests never share mutable state.
func (s *Service) Snapshot(ctx context.Context, slug string) (Snapshot, error) {
	key := snapshotCacheKey(slug)
	var cached Snapshot
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	return s.Refresh(ctx, slug, "demand")
}

// Refresh rebuilds the snapshot from Postgres and re-caches it.
// The trigger label distinguishes demand loads from admin/worker warms.
func (s *Service) Refresh(ctx context.Context, slug, trigger string) (Snapshot, error) {
	snap, err := s.load(ctx, slug)
	if err != nil {
		return Snapshot{}, err
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("catalog snapshot for %s: %w", slug, err)
	}
	if err := s.cache.SetJSON(ctx, snapshotCacheKey(slug), snap); err != nil {
		s.logger.Warn().Err(err).Str("product", slug).Msg("cache snapshot")
	}
	if obs.SnapshotRefreshTotal != nil {
		obs.SnapshotRefreshTotal.WithLabelValues(trigger).Inc()
	}
	return snap, nil
}

// ReplacePromos validates and swaps the product's date promotions.
func (s *Service) ReplacePromos(ctx context.Context, slug string, promos []DatePromo) error {
	product, err := s.product(ctx, slug)
	if err != nil {
		return err
	}
	if err := (Snapshot{Promos: promos}).Validate(); err != nil {
		return common.BadRequest("promos", err.Error(), err)
	}
	if err := s.store.ReplacePromos(ctx, product.ID, promos); err != nil {
		return err
	}
	s.invalidate(ctx, slug)
	return nil
}

// ReplaceCombos validates and swaps the product's combo discounts.
func (s *Service) ReplaceCombos(ctx context.Context, slug string, combos []ComboDiscount) error {
	product, err := s.product(ctx, slug)
	if err != nil {
		return err
	}
	if err := (Snapshot{Combos: combos}).Validate(); err != nil {
		return common.BadRequest("combos", err.Error(), err)
	}
	if err := s.store.ReplaceCombos(ctx, product.ID, combos); err != nil {
		return err
	}
	s.invalidate(ctx, slug)
	return nil
}

// ReplaceLapPrices swaps the product's per-category lap prices.
func (s *Service) ReplaceLapPrices(ctx context.Context, slug string, prices []LapPrice) error {
	product, err := s.product(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.store.ReplaceLapPrices(ctx, product.ID, prices); err != nil {
		return err
	}
	s.invalidate(ctx, slug)
	return nil
}

// ReplaceDateGroups validates and swaps the product's date groups.
func (s *Service) ReplaceDateGroups(ctx context.Context, slug string, groups []DateGroup) error {
	product, err := s.product(ctx, slug)
	if err != nil {
		return err
	}
	if err := (Snapshot{DateGroups: groups}).Validate(); err != nil {
		return common.BadRequest("dateGroups", err.Error(), err)
	}
	if err := s.store.ReplaceDateGroups(ctx, product.ID, groups); err != nil {
		return err
	}
	s.invalidate(ctx, slug)
	return nil
}

// UpsertVehicle creates or updates one vehicle.
func (s *Service) UpsertVehicle(ctx context.Context, slug string, v Vehicle) error {
	product, err := s.product(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.store.UpsertVehicle(ctx, product.ID, v); err != nil {
		return err
	}
	s.invalidate(ctx, slug)
	return nil
}

// UpsertOption creates or updates one add-on option.
func (s *Service) UpsertOption(ctx context.Context, slug string, o Option) error {
	product, err := s.product(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.store.UpsertOption(ctx, product.ID, o); err != nil {
		return err
	}
	s.invalidate(ctx, slug)
	return nil
}

func (s *Service) product(ctx context.Context, slug string) (Product, error) {
	product, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return Product{}, common.NotFound("product not found", err)
		}
		return Product{}, err
	}
	return product, nil
}

func (s *Service) load(ctx context.Context, slug string) (Snapshot, error) {
	product, err := s.product(ctx, slug)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Product: product}
	if snap.Vehicles, err = s.store.ListVehicles(ctx, product.ID); err != nil {
		return Snapshot{}, err
	}
	if snap.LapPrices, err = s.store.ListLapPrices(ctx, product.ID); err != nil {
		return Snapshot{}, err
	}
	if snap.Combos, err = s.store.ListCombos(ctx, product.ID); err != nil {
		return Snapshot{}, err
	}
	if snap.Promos, err = s.store.ListPromos(ctx, product.ID); err != nil {
		return Snapshot{}, err
	}
	if snap.Options, err = s.store.ListOptions(ctx, product.ID); err != nil {
		return Snapshot{}, err
	}
	if snap.DateGroups, err = s.store.ListDateGroups(ctx, product.ID); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// invalidate drops the cached snapshot and schedules a warm rebuild.
// Both are best effort, the next demand load rebuilds regardless.
func (s *Service) invalidate(ctx context.Context, slug string) {
	if err := s.cache.Delete(ctx, snapshotCacheKey(slug)); err != nil {
		s.logger.Warn().Err(err).Str("product", slug).Msg("invalidate snapshot cache")
	}
	if s.warmer != nil {
		if err := s.warmer.EnqueueWarm(ctx, slug); err != nil {
			s.logger.Warn().Err(err).Str("product", slug).Msg("enqueue snapshot warm")
		}
	}
}
