// Package extension provides a Forge extension entry point for gate.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/akreda/gate"
	"github.com/akreda/gate/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "gate"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Authorization and workflow gating engine for accreditation platforms"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the gate engine as a Forge extension.
type Extension struct {
	config   Config
	eng      *gate.Engine
	logger   *slog.Logger
	gateOpts []gate.Option
}

// New creates a gate Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying gate engine.
func (e *Extension) Engine() *gate.Engine { return e.eng }

// Register implements [forge.Extension]. It initializes the engine and
// registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*gate.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("gate: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := make([]gate.Option, 0, len(e.gateOpts)+2)
	opts = append(opts, gate.WithLogger(logger))

	if e.config.MaxChainDepth > 0 {
		cfg := gate.DefaultConfig()
		cfg.MaxChainDepth = e.config.MaxChainDepth
		opts = append(opts, gate.WithConfig(cfg))
	}

	// Try to resolve a store from the DI container; option-provided
	// stores override it.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, gate.WithStore(s))
	}

	opts = append(opts, e.gateOpts...)

	eng, err := gate.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("gate: create engine: %w", err)
	}
	e.eng = eng

	return nil
}

// Start runs store migrations unless disabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("gate: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if s := e.eng.Store(); s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("gate: migration failed: %w", err)
			}
		}
	}

	return nil
}

// Stop gracefully shuts down the gate engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	e.eng.Shutdown(ctx)
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("gate: extension not initialized")
	}
	s := e.eng.Store()
	if s == nil {
		return errors.New("gate: no store configured")
	}
	return s.Ping(ctx)
}
