package gate

import "context"

// Cache stores decision results keyed by tenant, actor, action, and
// resource identity plus lifecycle status. Implementations must treat
// the status as part of the key: a resource moving through its
// lifecycle must not serve stale decisions.
type Cache interface {
	// Get returns a cached result for the request, if present.
	Get(ctx context.Context, tenantID string, req *Request) (*Result, bool)

	// Set stores a result for the request.
	Set(ctx context.Context, tenantID string, req *Request, result *Result)

	// InvalidateTenant drops all cached results for a tenant.
	InvalidateTenant(ctx context.Context, tenantID string)

	// InvalidateActor drops all cached results for one actor in a tenant.
	InvalidateActor(ctx context.Context, tenantID string, actorID string)
}
