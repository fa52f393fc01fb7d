package gate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/decisionlog"
	"github.com/akreda/gate/hook"
	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
	"github.com/akreda/gate/store"
)

// Engine evaluates authorization requests against the static catalog.
// It is safe for concurrent use; every rule table is immutable after
// construction.
type Engine struct {
	accessor   resource.Accessor
	directory  actor.Directory
	catalog    *Catalog
	gate       *StateGate
	invariants *InvariantChecker
	walker     ChainWalker
	cache      Cache
	hooks      *hook.Registry
	audit      decisionlog.Store
	store      store.Store
	logger     *slog.Logger
	config     Config
}

// NewEngine creates an engine. A resource accessor is required; the
// actor directory, cache, hooks, and audit store are optional. The
// catalog is validated against the invariant table before the engine is
// returned.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		catalog:    DefaultCatalog(),
		invariants: NewInvariantChecker(),
		logger:     slog.Default(),
		config:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.config = e.config.withDefaults()

	if e.accessor == nil {
		return nil, ErrNoAccessor
	}
	if err := e.catalog.Validate(); err != nil {
		return nil, err
	}
	if e.gate == nil {
		e.gate = NewStateGate(e.catalog)
	}
	if e.walker == nil {
		e.walker = NewChainWalker(e.config.MaxChainDepth)
	}
	if e.hooks == nil {
		e.hooks = hook.NewRegistry(e.logger)
	}
	return e, nil
}

// Hooks exposes the engine's hook registry for late registration.
func (e *Engine) Hooks() *hook.Registry { return e.hooks }

// Store returns the composite store when one was wired with WithStore,
// or nil when the engine runs on individual accessor interfaces.
func (e *Engine) Store() store.Store { return e.store }

// Decide evaluates a request and returns the decision. Requests naming
// unknown actions or kinds, or omitting a required snapshot, fail with
// an error; authorization outcomes, including denials, never do.
func (e *Engine) Decide(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if !KnownAction(req.Action) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	if req.Resource != nil && req.Resource.Kind != req.Kind {
		return nil, fmt.Errorf("%w: snapshot is %s, request targets %s",
			ErrMissingResource, req.Resource.Kind, req.Kind)
	}

	tenantID := ambientTenant(ctx)
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, tenantID, req); ok {
			return cached, nil
		}
	}

	if err := e.hooks.EmitBeforeDecide(ctx, req); err != nil {
		return nil, err
	}

	result, err := e.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	if e.cache != nil {
		e.cache.Set(ctx, tenantID, req, result)
	}
	e.hooks.EmitAfterDecide(ctx, req, result)
	e.recordDecision(ctx, tenantID, req, result)

	if !result.Allowed {
		e.logger.DebugContext(ctx, "access denied",
			slog.String("actor", req.Actor.ID.String()),
			slog.String("action", string(req.Action)),
			slog.String("kind", string(req.Kind)),
			slog.String("reason", string(result.Reason)),
		)
	}
	return result, nil
}

// Enforce evaluates a request and returns an error unless it is allowed.
func (e *Engine) Enforce(ctx context.Context, req *Request) error {
	result, err := e.Decide(ctx, req)
	if err != nil {
		return err
	}
	if !result.Allowed {
		if result.Detail != "" {
			return fmt.Errorf("%w: %s: %s", ErrAccessDenied, result.Reason, result.Detail)
		}
		return fmt.Errorf("%w: %s", ErrAccessDenied, result.Reason)
	}
	return nil
}

// Can resolves the actor and resource by ID and evaluates the request.
// It requires an actor directory. Pass a nil resourceID for class-level
// actions.
func (e *Engine) Can(ctx context.Context, actorID id.ActorID, action Action, kind resource.Kind, resourceID id.ID) (bool, error) {
	if e.directory == nil {
		return false, ErrNoDirectory
	}
	act, err := e.directory.GetActor(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("resolve actor %s: %w", actorID, err)
	}

	req := &Request{Actor: *act, Action: action, Kind: kind}
	if !resourceID.IsNil() {
		snap, err := e.accessor.GetResource(ctx, kind, resourceID)
		if err != nil {
			return false, fmt.Errorf("resolve %s %s: %w", kind, resourceID, err)
		}
		req.Resource = snap
	}

	result, err := e.Decide(ctx, req)
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// Shutdown flushes hooks. The engine performs no background work of its
// own.
func (e *Engine) Shutdown(ctx context.Context) {
	e.hooks.EmitShutdown(ctx)
}

// evaluate runs the decision pipeline. Checks run in a fixed order and
// the first failure wins; later checks never execute.
func (e *Engine) evaluate(ctx context.Context, req *Request) (*Result, error) {
	// Step 1: actor liveness. Nothing else matters for a deactivated
	// account.
	if !req.Actor.Active {
		return deny(ReasonInactiveActor, "actor account is deactivated"), nil
	}

	rule, ok := e.catalog.Rule(req.Kind, req.Action)
	if !ok {
		// A known action the kind's catalog does not declare. Absence
		// means deny, not error: the catalog is the complete surface.
		return deny(ReasonUnknownAction,
			fmt.Sprintf("action %s is not defined for %s", req.Action, req.Kind)), nil
	}
	if !rule.Class && req.Resource == nil {
		return nil, fmt.Errorf("%w: %s.%s is an instance-level action",
			ErrMissingResource, req.Kind, req.Action)
	}

	// Step 2: safety rules. These bind every role, including root.
	if res := e.checkSafety(req); res != nil {
		return res, nil
	}

	isRoot := req.Actor.Role == actor.RoleRoot

	if !isRoot {
		// Step 3: role ceiling.
		if !rule.permitsRole(req.Actor.Role) {
			return deny(ReasonInsufficientRole,
				fmt.Sprintf("role %s may not %s %s", req.Actor.Role, req.Action, req.Kind)), nil
		}
		if rule.ReviewerOnly && !req.Actor.ReviewerCapable {
			return deny(ReasonInsufficientRole, "action requires reviewer capability"), nil
		}

		if req.Resource != nil {
			// Step 4: tenant scope.
			res, err := e.checkScope(ctx, req, rule)
			if err != nil {
				return nil, err
			}
			if res != nil {
				return res, nil
			}

			// Step 5: lifecycle state.
			if !e.gate.IsLegal(req.Kind, req.Action, req.Resource.Status) {
				return deny(ReasonIllegalState,
					fmt.Sprintf("%s may not be performed while %s is %q",
						req.Action, req.Kind, req.Resource.Status)), nil
			}
		}
	}

	// Step 6: business invariants. Root does not bypass these.
	if rule.Guarded {
		if ok, detail := e.invariants.Check(req.Kind, req.Action, req.Resource); !ok {
			return deny(ReasonInvariantViolated, detail), nil
		}
	}

	// Role grants have their own table, applied to every grantor
	// including root.
	if req.Action == ActionAssignRole {
		res, err := checkRoleGrant(req)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}

	return allow(), nil
}

// selfForbiddenActions are destructive actions an actor may never aim
// at their own account, regardless of role.
var selfForbiddenActions = map[Action]bool{
	ActionDelete:     true,
	ActionDeactivate: true,
}

// rootShieldedActions may not target a root actor: root accounts are
// removed out of band, never through the engine.
var rootShieldedActions = map[Action]bool{
	ActionDelete:     true,
	ActionDeactivate: true,
	ActionAssignRole: true,
}

func (e *Engine) checkSafety(req *Request) *Result {
	if req.Kind != resource.KindActor || req.Resource == nil {
		return nil
	}
	if selfForbiddenActions[req.Action] && req.Resource.ID.String() == req.Actor.ID.String() {
		return deny(ReasonSelfActionForbidden,
			fmt.Sprintf("actors may not %s their own account", req.Action))
	}
	if rootShieldedActions[req.Action] && req.Resource.Facts.RootActor {
		return deny(ReasonInsufficientRole,
			fmt.Sprintf("root actors may not be targeted by %s", req.Action))
	}
	return nil
}

// checkScope resolves the resource's tenant and matches it against the
// actor. It returns a non-nil deny result on mismatch and nil when
// scope is satisfied.
func (e *Engine) checkScope(ctx context.Context, req *Request, rule Rule) (*Result, error) {
	snap := req.Resource

	// Owning a resource is sufficient scope for any role; the chain walk
	// is skipped entirely.
	if !snap.OwnerID.IsNil() && snap.OwnerID.String() == req.Actor.ID.String() {
		return nil, nil
	}

	scope, err := e.walker.Resolve(ctx, e.accessor, snap)
	if err != nil {
		return nil, err
	}

	switch scope.Class {
	case ScopeUnscoped:
		// Platform-global data carries no tenant; the role ceiling is the
		// whole story.
		return nil, nil

	case ScopeUnresolvable:
		return deny(ReasonScopeMismatch,
			fmt.Sprintf("ownership chain for %s %s cannot be resolved", snap.Kind, snap.ID)), nil

	case ScopeTenant:
		if req.Actor.Role == actor.RoleTenantAdmin &&
			req.Actor.TenantID.String() == scope.Tenant.String() {
			return nil, nil
		}
		if rule.ReviewerJoin && req.Actor.ReviewerCapable {
			assigned, err := e.accessor.HasAssignment(ctx, req.Actor.ID, snap.Kind, snap.ID)
			if err != nil {
				return nil, fmt.Errorf("check reviewer assignment: %w", err)
			}
			if assigned {
				return nil, nil
			}
		}
		return deny(ReasonScopeMismatch,
			fmt.Sprintf("%s %s belongs to another tenant", snap.Kind, snap.ID)), nil

	default:
		return nil, fmt.Errorf("unexpected scope class %s", scope.Class)
	}
}

// checkRoleGrant applies the role grant table: root may confer any
// non-root role; a tenant admin may confer only the owner role, and
// tenant containment was already checked by the scope step.
func checkRoleGrant(req *Request) (*Result, error) {
	if req.Grant == nil {
		return nil, ErrMissingGrant
	}
	if !req.Grant.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrMissingGrant, req.Grant.Role)
	}

	switch req.Actor.Role {
	case actor.RoleRoot:
		if req.Grant.Role == actor.RoleRoot {
			return deny(ReasonInsufficientRole, "the root role cannot be granted"), nil
		}
		return nil, nil
	case actor.RoleTenantAdmin:
		if req.Grant.Role != actor.RoleOwner {
			return deny(ReasonInsufficientRole,
				fmt.Sprintf("tenant admins may grant only the %s role", actor.RoleOwner)), nil
		}
		return nil, nil
	default:
		return deny(ReasonInsufficientRole,
			fmt.Sprintf("role %s may not grant roles", req.Actor.Role)), nil
	}
}

// recordDecision writes the audit entry. Failures are logged and never
// affect the decision.
func (e *Engine) recordDecision(ctx context.Context, tenantID string, req *Request, result *Result) {
	if e.audit == nil || !e.config.AuditEnabled {
		return
	}
	entry := &decisionlog.Entry{
		ID:           id.NewDecisionLogID(),
		TenantID:     tenantID,
		ActorID:      req.Actor.ID,
		ActorRole:    string(req.Actor.Role),
		Action:       string(req.Action),
		ResourceKind: string(req.Kind),
		Allowed:      result.Allowed,
		Reason:       string(result.Reason),
		Detail:       result.Detail,
		EvalTimeNs:   result.EvalTimeNs,
		CreatedAt:    time.Now().UTC(),
	}
	if req.Resource != nil {
		entry.ResourceID = req.Resource.ID
	}
	if err := e.audit.CreateDecisionLog(ctx, entry); err != nil {
		e.logger.WarnContext(ctx, "audit write failed",
			slog.String("error", err.Error()),
		)
	}
}
