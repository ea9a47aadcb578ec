package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hostpool/internal/config"
	"hostpool/internal/model"
)

// Inventory loads and durably persists the record store. Load failures are
// fatal to startup; Persist failures abort the enclosing mutation unless the
// caller explicitly treats the write as best-effort.
type Inventory interface {
	Load(ctx context.Context) (*model.Store, error)
	Persist(ctx context.Context, s *model.Store) error
}

// Factory builds an inventory backend from config.
type Factory func(cfg *config.Config, logger *zap.Logger) (Inventory, error)

var registry = map[string]Factory{}

// Register makes a backend available under the given config name.
func Register(name string, f Factory) {
	registry[name] = f
}

// Open builds the inventory backend selected by cfg.Backend.Inventory.
func Open(cfg *config.Config, logger *zap.Logger) (Inventory, error) {
	f, ok := registry[cfg.Backend.Inventory]
	if !ok {
		return nil, fmt.Errorf("unknown inventory backend %q", cfg.Backend.Inventory)
	}
	return f(cfg, logger)
}

func init() {
	Register("yaml", newYAMLFile)
	Register("postgres", newPostgres)
}
