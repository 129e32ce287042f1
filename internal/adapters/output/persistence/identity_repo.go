package persistence

import (
	"context"
	"encoding/json"
	"hue-bridge-emulator/internal/domain/model"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JSONIdentityRepository keeps the bridge identity in a small JSON file.
type JSONIdentityRepository struct {
	filepath string
	mu       sync.RWMutex
}

func NewJSONIdentityRepository(filepath string) *JSONIdentityRepository {
	return &JSONIdentityRepository{filepath: filepath}
}

// Get returns nil, nil when no identity has been saved yet.
func (r *JSONIdentityRepository) Get(ctx context.Context) (*model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identity model.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, err
	}
	if identity.BridgeID == "" {
		return nil, nil
	}
	return &identity, nil
}

func (r *JSONIdentityRepository) Save(ctx context.Context, identity *model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(identity, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(r.filepath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(r.filepath, data, 0644)
}

// NewIdentity builds a Hue style bridge id: 16 upper-case hex digits.
func NewIdentity() *model.Identity {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
	return &model.Identity{BridgeID: id, CreatedAt: time.Now().UTC()}
}
