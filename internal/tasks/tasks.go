package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeCatalogWarm rebuilds a product's snapshot cache after an admin write.
const TypeCatalogWarm = "catalog:warm"

type catalogWarmPayload struct {
	Slug string `json:"slug"`
}

// NewCatalogWarmTask builds the warm task for one product slug.
func NewCatalogWarmTask(slug string) (*asynq.Task, error) {
	payload, err := json.Marshal(catalogWarmPayload{Slug: slug})
	if err != nil {
		return nil, fmt.Errorf("marshal warm payload: %w", err)
	}
	return asynq.NewTask(TypeCatalogWarm, payload, asynq.MaxRetry(3)), nil
}

// Enqueuer submits background tasks through asynq. It satisfies the
// catalog warmer contract.
type Enqueuer struct {
	Client *asynq.Client
}

// EnqueueWarm schedules a snapshot rebuild for the product.
func (e Enqueuer) EnqueueWarm(ctx context.Context, slug string) error {
	if e.Client == nil {
		return nil
	}
	task, err := NewCatalogWarmTask(slug)
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeCatalogWarm, err)
	}
	return nil
}
