// Package gate implements the authorization and workflow-gating engine
// for a multi-tenant journal-accreditation platform. Every state-changing
// operation flows through a single decision pipeline that checks, in
// order: actor liveness, role ceiling, tenant scope via static ownership
// chains, lifecycle state, and business invariants. The first failing
// check produces a deny with a machine-readable reason; evaluation never
// continues past it.
//
// The engine is deliberately static: roles are a closed enum, ownership
// chains are fixed per resource kind, and the action catalog is a
// compile-time table validated at construction. There is no policy
// storage and no runtime rule mutation.
package gate

import (
	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
)

// ID is the primary identifier type for all platform entities.
type ID = id.ID

// Action names an operation an actor may attempt on a resource kind.
// The set of known actions is closed; requests naming an action outside
// it are caller errors, not denials.
type Action string

// Known actions. Not every action applies to every resource kind; the
// catalog declares which pairs exist.
const (
	ActionView        Action = "view"
	ActionViewAny     Action = "view_any"
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionRestore     Action = "restore"
	ActionForceDelete Action = "force_delete"
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionReassign    Action = "reassign"
	ActionExport      Action = "export"
	ActionSubmit      Action = "submit"
	ActionReview      Action = "review"
	ActionRegister    Action = "register"
	ActionCancel      Action = "cancel"
	ActionAssign      Action = "assign"
	ActionDeactivate  Action = "deactivate"
	ActionAssignRole  Action = "assign_role"
)

var knownActions = map[Action]bool{
	ActionView:        true,
	ActionViewAny:     true,
	ActionCreate:      true,
	ActionUpdate:      true,
	ActionDelete:      true,
	ActionRestore:     true,
	ActionForceDelete: true,
	ActionApprove:     true,
	ActionReject:      true,
	ActionReassign:    true,
	ActionExport:      true,
	ActionSubmit:      true,
	ActionReview:      true,
	ActionRegister:    true,
	ActionCancel:      true,
	ActionAssign:      true,
	ActionDeactivate:  true,
	ActionAssignRole:  true,
}

// KnownAction reports whether the action belongs to the closed action set.
func KnownAction(a Action) bool { return knownActions[a] }

// Reason is the machine-readable explanation attached to a denial. It is
// empty on allow.
type Reason string

const (
	// ReasonNone is set on allowed results.
	ReasonNone Reason = ""
	// ReasonInactiveActor denies requests from deactivated actors.
	ReasonInactiveActor Reason = "inactive_actor"
	// ReasonInsufficientRole denies requests below the action's role floor.
	ReasonInsufficientRole Reason = "insufficient_role"
	// ReasonScopeMismatch denies requests whose resource resolves outside
	// the actor's tenant, or whose ownership chain cannot be resolved.
	ReasonScopeMismatch Reason = "scope_mismatch"
	// ReasonIllegalState denies actions attempted from a lifecycle status
	// the state gate does not permit.
	ReasonIllegalState Reason = "illegal_state"
	// ReasonInvariantViolated denies destructive or cross-entity actions
	// that would break a business invariant.
	ReasonInvariantViolated Reason = "invariant_violated"
	// ReasonSelfActionForbidden denies destructive actions an actor aims
	// at their own account.
	ReasonSelfActionForbidden Reason = "self_action_forbidden"
	// ReasonUnknownAction denies known actions requested on a resource
	// kind whose catalog does not declare them.
	ReasonUnknownAction Reason = "unknown_action"
)

// RoleGrant carries the role an assign_role request wants to confer on
// the target actor.
type RoleGrant struct {
	Role actor.Role `json:"role"`
}

// Request describes an authorization question: may this actor perform
// this action on this resource?
type Request struct {
	// Actor is the authenticated identity attempting the action.
	Actor actor.Actor `json:"actor"`
	// Action is the operation being attempted.
	Action Action `json:"action"`
	// Kind is the resource type the action targets.
	Kind resource.Kind `json:"kind"`
	// Resource is the snapshot of the target. It is nil for class-level
	// actions (view_any, plain create). For create-like guarded actions
	// (register, assign) the caller supplies a prospective snapshot
	// carrying the facts the invariant checker needs.
	Resource *resource.Snapshot `json:"resource,omitempty"`
	// Grant is required for assign_role and ignored otherwise.
	Grant *RoleGrant `json:"grant,omitempty"`
}

// Result is the outcome of a decision.
type Result struct {
	// Allowed reports whether the action may proceed.
	Allowed bool `json:"allowed"`
	// Reason explains a denial; empty on allow.
	Reason Reason `json:"reason,omitempty"`
	// Detail is a human-readable elaboration of the reason.
	Detail string `json:"detail,omitempty"`
	// EvalTimeNs is the wall-clock evaluation time in nanoseconds.
	EvalTimeNs int64 `json:"eval_time_ns"`
}

func allow() *Result {
	return &Result{Allowed: true}
}

func deny(reason Reason, detail string) *Result {
	return &Result{Allowed: false, Reason: reason, Detail: detail}
}
