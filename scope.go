package gate

import (
	"context"

	"github.com/xraph/forge"
)

// ambientTenant extracts the request's tenant from forge.Scope, falling
// back to the standalone context set by WithTenant.
func ambientTenant(ctx context.Context) string {
	if s, ok := forge.ScopeFrom(ctx); ok {
		return s.OrgID()
	}
	return tenantIDFromContext(ctx)
}
