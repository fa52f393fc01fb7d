// Package middleware provides HTTP authorization middleware for gate.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/akreda/gate"
	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
)

// Check names a single action/kind pair for RequireAny and RequireAll.
// The resource ID is taken from the request's "id" path parameter when
// present; without one the check is class-level.
type Check struct {
	Action gate.Action
	Kind   resource.Kind
}

// Require enforces authorization. It resolves the acting actor from the
// request context (Authsome user ID) and checks whether the actor can
// perform the given action on the resource kind.
func Require(eng *gate.Engine, action gate.Action, kind resource.Kind) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			actorID, ok := resolveActor(ctx)
			if !ok {
				return denyResponse(ctx)
			}
			allowed, err := eng.Can(ctx.Context(), actorID, action, kind, resolveResource(ctx))
			if err != nil || !allowed {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if ANY of the checks pass.
func RequireAny(eng *gate.Engine, checks ...Check) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			actorID, ok := resolveActor(ctx)
			if !ok {
				return denyResponse(ctx)
			}
			resourceID := resolveResource(ctx)
			for _, c := range checks {
				allowed, err := eng.Can(ctx.Context(), actorID, c.Action, c.Kind, resourceID)
				if err == nil && allowed {
					return next(ctx)
				}
			}
			return denyResponse(ctx)
		}
	}
}

// RequireAll allows the request only if ALL checks pass.
func RequireAll(eng *gate.Engine, checks ...Check) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			actorID, ok := resolveActor(ctx)
			if !ok {
				return denyResponse(ctx)
			}
			resourceID := resolveResource(ctx)
			for _, c := range checks {
				allowed, err := eng.Can(ctx.Context(), actorID, c.Action, c.Kind, resourceID)
				if err != nil || !allowed {
					return denyResponse(ctx)
				}
			}
			return next(ctx)
		}
	}
}

// resolveActor extracts the acting actor's ID from context. Requests
// without an authenticated user are denied outright.
func resolveActor(ctx forge.Context) (id.ActorID, bool) {
	userID := forge.UserIDFromContext(ctx.Context())
	if userID == "" {
		return id.Nil, false
	}
	actorID, err := id.ParseActorID(userID)
	if err != nil {
		return id.Nil, false
	}
	return actorID, true
}

// resolveResource reads the "id" path parameter. A missing or malformed
// parameter yields the nil ID, which makes the check class-level.
func resolveResource(ctx forge.Context) id.ID {
	param := ctx.Param("id")
	if param == "" {
		return id.Nil
	}
	resourceID, err := id.Parse(param)
	if err != nil {
		return id.Nil
	}
	return resourceID
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
