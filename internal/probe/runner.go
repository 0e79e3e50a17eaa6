package probe

import (
	"context"

	"go.uber.org/zap"

	"github.com/astrobl1904/prtg-custom-sensors/internal/config"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/manifest"
)

// Runner builds a fresh probe per manifest run. The server uses it so
// each request dials its own collaborators against the task export the
// manifest names.
type Runner struct {
	cfg *config.Config
	log *zap.Logger
}

// NewRunner returns a Runner bound to the collector configuration.
func NewRunner(cfg *config.Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, log: log}
}

// Run resolves the manifest into a rendered result document.
func (r *Runner) Run(ctx context.Context, m *manifest.Manifest) ([]byte, error) {
	p, err := NewFromConfig(ctx, r.cfg, m.Task.Export, r.log)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return p.Run(ctx, m)
}
