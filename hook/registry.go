package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds registered hooks and dispatches lifecycle events to
// them. Interface checks happen once at registration time; emit paths
// iterate pre-built slices.
type Registry struct {
	mu     sync.RWMutex
	hooks  []Hook
	names  map[string]bool
	logger *slog.Logger

	beforeDecide []BeforeDecide
	afterDecide  []AfterDecide
	shutdown     []Shutdown
}

// NewRegistry creates an empty hook registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		names:  make(map[string]bool),
		logger: logger,
	}
}

// Register adds a hook to the registry. Hook names must be unique.
func (r *Registry) Register(h Hook) error {
	if h == nil {
		return fmt.Errorf("hook: cannot register nil hook")
	}
	name := h.Name()
	if name == "" {
		return fmt.Errorf("hook: hook name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[name] {
		return fmt.Errorf("hook: hook %q already registered", name)
	}
	r.names[name] = true
	r.hooks = append(r.hooks, h)

	if bd, ok := h.(BeforeDecide); ok {
		r.beforeDecide = append(r.beforeDecide, bd)
	}
	if ad, ok := h.(AfterDecide); ok {
		r.afterDecide = append(r.afterDecide, ad)
	}
	if sd, ok := h.(Shutdown); ok {
		r.shutdown = append(r.shutdown, sd)
	}
	return nil
}

// Hooks returns the registered hooks in registration order.
func (r *Registry) Hooks() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, len(r.hooks))
	copy(out, r.hooks)
	return out
}

// EmitBeforeDecide invokes all BeforeDecide hooks. The first error
// aborts dispatch and is returned to the caller.
func (r *Registry) EmitBeforeDecide(ctx context.Context, req any) error {
	r.mu.RLock()
	hooks := r.beforeDecide
	r.mu.RUnlock()
	for _, h := range hooks {
		if err := h.OnBeforeDecide(ctx, req); err != nil {
			return fmt.Errorf("hook %q: %w", h.Name(), err)
		}
	}
	return nil
}

// EmitAfterDecide invokes all AfterDecide hooks. Errors are logged and
// do not affect the decision.
func (r *Registry) EmitAfterDecide(ctx context.Context, req, result any) {
	r.mu.RLock()
	hooks := r.afterDecide
	r.mu.RUnlock()
	for _, h := range hooks {
		if err := h.OnAfterDecide(ctx, req, result); err != nil {
			r.logHookError(ctx, h.Name(), "after_decide", err)
		}
	}
}

// EmitShutdown invokes all Shutdown hooks. Errors are logged.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.shutdown
	r.mu.RUnlock()
	for _, h := range hooks {
		if err := h.OnShutdown(ctx); err != nil {
			r.logHookError(ctx, h.Name(), "shutdown", err)
		}
	}
}

func (r *Registry) logHookError(ctx context.Context, name, event string, err error) {
	r.logger.WarnContext(ctx, "hook error",
		slog.String("hook", name),
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}
