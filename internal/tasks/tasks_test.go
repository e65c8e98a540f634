package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/BrunoPirard/gtro-pricing/internal/catalog"
)

type fakeRefresher struct {
	slugs    []string
	triggers []string
	err      error
}

func (f *fakeRefresher) Refresh(_ context.Context, slug, trigger string) (catalog.Snapshot, error) {
	f.slugs = append(f.slugs, slug)
	f.triggers = append(f.triggers, trigger)
	return catalog.Snapshot{}, f.err
}

func TestCatalogWarmTaskPayload(t *testing.T) {
	task, err := NewCatalogWarmTask("gtro-experience")
	require.NoError(t, err)
	require.Equal(t, TypeCatalogWarm, task.Type())

	var payload catalogWarmPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "gtro-experience", payload.Slug)
}

func TestHandleCatalogWarm(t *testing.T) {
	ref := &fakeRefresher{}
	h := &Handler{Catalog: ref, Logger: zerolog.Nop()}

	task, err := NewCatalogWarmTask("gtro-experience")
	require.NoError(t, err)
	require.NoError(t, h.HandleCatalogWarm(context.Background(), task))
	require.Equal(t, []string{"gtro-experience"}, ref.slugs)
	require.Equal(t, []string{"warm"}, ref.triggers)
}

func TestHandleCatalogWarmRefreshError(t *testing.T) {
	ref := &fakeRefresher{err: errors.New("db down")}
	h := &Handler{Catalog: ref, Logger: zerolog.Nop()}

	task, err := NewCatalogWarmTask("gtro-experience")
	require.NoError(t, err)
	require.Error(t, h.HandleCatalogWarm(context.Background(), task))
}

func TestHandleCatalogWarmBadPayloadSkipsRetry(t *testing.T) {
	h := &Handler{Catalog: &fakeRefresher{}, Logger: zerolog.Nop()}

	err := h.HandleCatalogWarm(context.Background(), asynq.NewTask(TypeCatalogWarm, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestEnqueuerNilClientIsNoop(t *testing.T) {
	require.NoError(t, Enqueuer{}.EnqueueWarm(context.Background(), "gtro-experience"))
}
