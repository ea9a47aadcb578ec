package provision

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"hostpool/internal/config"
)

// commandDriver shells out to a configured move command, invoked as
// "command host from to". A non-zero exit fails the move.
type commandDriver struct {
	command string
	logger  *zap.Logger
}

func newCommand(cfg *config.Config, logger *zap.Logger) (Driver, error) {
	return &commandDriver{command: cfg.Move.Command, logger: logger}, nil
}

func (d *commandDriver) ApplyAssignment(ctx context.Context, host, from, to string) error {
	cmd := exec.CommandContext(ctx, d.command, host, from, to)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("move command for %s (%s -> %s): %w: %s",
			host, from, to, err, strings.TrimSpace(string(out)))
	}
	d.logger.Info("move command succeeded",
		zap.String("host", host), zap.String("from", from), zap.String("to", to))
	return nil
}
