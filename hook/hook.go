// Package hook defines the extension points the decision engine calls
// around each authorization decision. Hooks implement the base Hook
// interface plus any of the optional lifecycle interfaces; the registry
// inspects each registered hook once and dispatches only to the
// interfaces it actually implements.
package hook

import "context"

// Hook is the base interface all hooks implement.
type Hook interface {
	// Name returns a unique identifier for the hook.
	Name() string
}

// BeforeDecide is called before the engine evaluates a request. The
// request is passed as an opaque value to avoid a dependency cycle with
// the root package; implementations type-assert to *gate.Request.
// Returning an error aborts the decision.
type BeforeDecide interface {
	Hook
	OnBeforeDecide(ctx context.Context, req any) error
}

// AfterDecide is called after the engine has produced a result. Errors
// are logged and ignored; a hook cannot change the outcome.
type AfterDecide interface {
	Hook
	OnAfterDecide(ctx context.Context, req, result any) error
}

// Shutdown is called when the engine is closing. Hooks holding
// connections or buffers flush here.
type Shutdown interface {
	Hook
	OnShutdown(ctx context.Context) error
}
