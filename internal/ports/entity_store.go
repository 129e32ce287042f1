package ports

import (
	"context"
	"hue-bridge-emulator/internal/domain/model"
)

// EntityStore is the automation platform: source of entity state and sink
// of service calls.
type EntityStore interface {
	List(ctx context.Context) ([]model.Entity, error)
	// Get returns model.ErrNotFound for unknown entities.
	Get(ctx context.Context, entityID string) (model.Entity, error)
	// Dispatch returns once the call has been accepted, not once its
	// effect is visible through Get.
	Dispatch(ctx context.Context, cmd model.Command) error
}
