package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/BrunoPirard/gtro-pricing/internal/catalog"
)

// snapshotRefresher is the slice of the catalog service the worker needs.
type snapshotRefresher interface {
	Refresh(ctx context.Context, slug, trigger string) (catalog.Snapshot, error)
}

// Handler processes background catalog tasks on the worker.
type Handler struct {
	Catalog snapshotRefresher
	Logger  zerolog.Logger
}

// Register attaches the task handlers to an asynq mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeCatalogWarm, h.HandleCatalogWarm)
}

// HandleCatalogWarm rebuilds the snapshot cache for the slug in the payload.
func (h *Handler) HandleCatalogWarm(ctx context.Context, t *asynq.Task) error {
	var payload catalogWarmPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal warm payload: %v: %w", err, asynq.SkipRetry)
	}
	if _, err := h.Catalog.Refresh(ctx, payload.Slug, "warm"); err != nil {
		h.Logger.Error().Err(err).Str("product", payload.Slug).Msg("warm snapshot")
		return err
	}
	h.Logger.Info().Str("product", payload.Slug).Msg("snapshot warmed")
	return nil
}
