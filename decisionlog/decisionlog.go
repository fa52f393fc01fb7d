// Package decisionlog defines the decision audit log Entry entity.
// Deny is a frequent, expected outcome and is recorded exactly like
// allow — never as an error.
package decisionlog

import (
	"time"

	"github.com/akreda/gate/id"
)

// Entry is a single authorization decision audit record.
type Entry struct {
	ID           id.DecisionLogID `json:"id" db:"id"`
	TenantID     string           `json:"tenant_id,omitempty" db:"tenant_id"`
	ActorID      id.ActorID       `json:"actor_id" db:"actor_id"`
	ActorRole    string           `json:"actor_role" db:"actor_role"`
	Action       string           `json:"action" db:"action"`
	ResourceKind string           `json:"resource_kind" db:"resource_kind"`
	ResourceID   id.ID            `json:"resource_id,omitempty" db:"resource_id"`
	Allowed      bool             `json:"allowed" db:"allowed"`
	Reason       string           `json:"reason,omitempty" db:"reason"`
	Detail       string           `json:"detail,omitempty" db:"detail"`
	EvalTimeNs   int64            `json:"eval_time_ns" db:"eval_time_ns"`
	Metadata     map[string]any   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision logs.
type QueryFilter struct {
	TenantID     string     `json:"tenant_id,omitempty"`
	ActorID      string     `json:"actor_id,omitempty"`
	Action       string     `json:"action,omitempty"`
	ResourceKind string     `json:"resource_kind,omitempty"`
	ResourceID   string     `json:"resource_id,omitempty"`
	Allowed      *bool      `json:"allowed,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	After        *time.Time `json:"after,omitempty"`
	Before       *time.Time `json:"before,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}
