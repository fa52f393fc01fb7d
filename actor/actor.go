// Package actor defines the Actor entity and the directory interface
// that resolves authenticated identities for authorization decisions.
package actor

import (
	"errors"
	"time"

	"github.com/akreda/gate/id"
)

// ErrNotFound is returned by Directory and Store implementations when no
// actor exists for the given identifier.
var ErrNotFound = errors.New("actor: not found")

// Role is the closed set of platform roles. It is deliberately a small
// enum rather than stored role records: every rule table in the engine
// switches over it exhaustively, so a new role cannot be added without
// touching every table.
type Role string

const (
	// RoleRoot is the central accreditation authority. Root bypasses
	// scope and state checks but not invariant or safety rules.
	RoleRoot Role = "root"

	// RoleTenantAdmin administers a single university (tenant) and is
	// confined to resources resolving to that tenant.
	RoleTenantAdmin Role = "tenant_admin"

	// RoleOwner is a journal owner, confined to self-owned resources.
	RoleOwner Role = "owner"
)

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRoot, RoleTenantAdmin, RoleOwner:
		return true
	}
	return false
}

// Roles lists every declared role. Rule-table completeness checks
// iterate this slice.
func Roles() []Role {
	return []Role{RoleRoot, RoleTenantAdmin, RoleOwner}
}

// Actor is a frozen snapshot of an authenticated identity: who they
// are, which tenant they belong to, and what they may in principle do.
// Reviewer capability is an orthogonal flag, not a role — an Owner can
// also be reviewer-capable.
type Actor struct {
	ID              id.ActorID     `json:"id" db:"id"`
	TenantID        id.TenantID    `json:"tenant_id,omitempty" db:"tenant_id"`
	Role            Role           `json:"role" db:"role"`
	Name            string         `json:"name,omitempty" db:"name"`
	Email           string         `json:"email,omitempty" db:"email"`
	Active          bool           `json:"active" db:"active"`
	ReviewerCapable bool           `json:"reviewer_capable" db:"reviewer_capable"`
	Metadata        map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing actors.
type ListFilter struct {
	TenantID        *id.TenantID `json:"tenant_id,omitempty"`
	Role            Role         `json:"role,omitempty"`
	Active          *bool        `json:"active,omitempty"`
	ReviewerCapable *bool        `json:"reviewer_capable,omitempty"`
	Search          string       `json:"search,omitempty"`
	Limit           int          `json:"limit,omitempty"`
	Offset          int          `json:"offset,omitempty"`
}
