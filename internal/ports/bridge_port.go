package ports

import (
	"context"
	"hue-bridge-emulator/internal/domain/model"
)

// StateResult is one applied Hue field.
type StateResult struct {
	Field string
	Value interface{}
}

type BridgePort interface {
	GetLights(ctx context.Context) (map[string]*model.LightView, error)
	GetLight(ctx context.Context, id string) (*model.LightView, error)
	SetLightState(ctx context.Context, id string, req model.StateRequest) ([]StateResult, error)
	// Lookup returns model.ErrNotFound when the entity is unknown or hidden.
	Lookup(ctx context.Context, id string) error
}
