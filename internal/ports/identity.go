package ports

import (
	"context"
	"hue-bridge-emulator/internal/domain/model"
)

type IdentityRepository interface {
	Get(ctx context.Context) (*model.Identity, error)
	Save(ctx context.Context, identity *model.Identity) error
}
