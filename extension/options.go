package extension

import (
	"log/slog"

	"github.com/akreda/gate"
	"github.com/akreda/gate/hook"
	"github.com/akreda/gate/store"
)

// ExtOption configures the gate Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.gateOpts = append(e.gateOpts, gate.WithStore(s))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...gate.Option) ExtOption {
	return func(e *Extension) {
		e.gateOpts = append(e.gateOpts, opts...)
	}
}

// WithHooks sets the lifecycle hook registry.
func WithHooks(r *hook.Registry) ExtOption {
	return func(e *Extension) {
		e.gateOpts = append(e.gateOpts, gate.WithHooks(r))
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
