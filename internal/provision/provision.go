package provision

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hostpool/internal/config"
)

// Driver physically realizes a host move between clouds: network and
// inventory reconfiguration. The scheduling core never calls a driver
// directly; it only computes the before/after cloud pair.
type Driver interface {
	ApplyAssignment(ctx context.Context, host, from, to string) error
}

// Factory builds a provisioning driver from config.
type Factory func(cfg *config.Config, logger *zap.Logger) (Driver, error)

var registry = map[string]Factory{}

// Register makes a driver available under the given config name.
func Register(name string, f Factory) {
	registry[name] = f
}

// Open builds the driver selected by cfg.Backend.Driver.
func Open(cfg *config.Config, logger *zap.Logger) (Driver, error) {
	f, ok := registry[cfg.Backend.Driver]
	if !ok {
		return nil, fmt.Errorf("unknown provisioning driver %q", cfg.Backend.Driver)
	}
	return f(cfg, logger)
}

func init() {
	Register("noop", newNoop)
	Register("command", newCommand)
	Register("route53", newRoute53)
}

// noopDriver records moves in the log and nothing else. Useful when an
// external system watches the assignment table and does the real work.
type noopDriver struct {
	logger *zap.Logger
}

func newNoop(cfg *config.Config, logger *zap.Logger) (Driver, error) {
	return &noopDriver{logger: logger}, nil
}

func (d *noopDriver) ApplyAssignment(ctx context.Context, host, from, to string) error {
	d.logger.Info("assignment applied (noop)",
		zap.String("host", host), zap.String("from", from), zap.String("to", to))
	return nil
}
