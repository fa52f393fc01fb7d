package gate

import (
	"log/slog"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/decisionlog"
	"github.com/akreda/gate/hook"
	"github.com/akreda/gate/resource"
	"github.com/akreda/gate/store"
)

// Option configures an Engine.
type Option func(*Engine)

// WithStore wires a composite store as the engine's resource accessor,
// actor directory, and audit log in one call.
func WithStore(s store.Store) Option {
	return func(e *Engine) {
		e.accessor = s
		e.directory = s
		e.audit = s
		e.store = s
	}
}

// WithAccessor sets the resource accessor. Required unless WithStore is
// used.
func WithAccessor(acc resource.Accessor) Option {
	return func(e *Engine) { e.accessor = acc }
}

// WithDirectory sets the actor directory used by Can.
func WithDirectory(dir actor.Directory) Option {
	return func(e *Engine) { e.directory = dir }
}

// WithAuditLog sets the decision audit store.
func WithAuditLog(s decisionlog.Store) Option {
	return func(e *Engine) { e.audit = s }
}

// WithCache sets the decision cache.
func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConfig replaces the engine configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithCatalog replaces the default rule catalog. The replacement is
// validated at construction like the default.
func WithCatalog(c *Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithChainWalker replaces the ownership-chain walker.
func WithChainWalker(w ChainWalker) Option {
	return func(e *Engine) {
		if w != nil {
			e.walker = w
		}
	}
}

// WithHooks sets the hook registry.
func WithHooks(r *hook.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.hooks = r
		}
	}
}
