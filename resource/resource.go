// Package resource defines the resource snapshot model the engine
// decides over: resource kinds, lifecycle statuses, ownership-chain
// references, and the pre-computed facts that feed invariant checks.
package resource

import (
	"errors"
	"time"

	"github.com/akreda/gate/id"
)

// ErrNotFound is returned by Accessor and Store implementations when no
// snapshot exists for the given kind and identifier.
var ErrNotFound = errors.New("resource: not found")

// Kind identifies a resource type in the accreditation platform.
type Kind string

// The full resource-kind catalog. Every kind the engine can be asked
// about is declared here; requests for any other kind are caller errors.
const (
	KindTenant        Kind = "tenant"
	KindActor         Kind = "actor"
	KindJournal       Kind = "journal"
	KindProgram       Kind = "program"
	KindRegistration  Kind = "registration"
	KindAssessment    Kind = "assessment"
	KindReview        Kind = "review"
	KindAssignment    Kind = "assignment"
	KindTemplate      Kind = "template"
	KindCategory      Kind = "category"
	KindSubCategory   Kind = "subcategory"
	KindIndicator     Kind = "indicator"
	KindEssayQuestion Kind = "essay_question"
)

// Kinds lists every declared resource kind. Catalog completeness
// checks iterate this slice.
func Kinds() []Kind {
	return []Kind{
		KindTenant,
		KindActor,
		KindJournal,
		KindProgram,
		KindRegistration,
		KindAssessment,
		KindReview,
		KindAssignment,
		KindTemplate,
		KindCategory,
		KindSubCategory,
		KindIndicator,
		KindEssayQuestion,
	}
}

// Valid reports whether k is a declared resource kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTenant, KindActor, KindJournal, KindProgram, KindRegistration,
		KindAssessment, KindReview, KindAssignment, KindTemplate,
		KindCategory, KindSubCategory, KindIndicator, KindEssayQuestion:
		return true
	}
	return false
}

// Status is a resource's position in its lifecycle. Each resource
// family draws from its own subset; StatusNone marks kinds without a
// lifecycle (tenants, actors, catalog entities).
type Status string

const (
	StatusNone       Status = ""
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
	StatusDraft      Status = "draft"
	StatusSubmitted  Status = "submitted"
	StatusReviewed   Status = "reviewed"
	StatusInProgress Status = "in_progress"
)

// StatusesFor returns the status family of a kind, nil for kinds
// without a lifecycle. Rule tables are validated against these sets so
// a state gate cannot name a status its kind can never hold.
func StatusesFor(k Kind) []Status {
	switch k {
	case KindJournal:
		return []Status{StatusPending, StatusApproved, StatusRejected}
	case KindRegistration:
		return []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}
	case KindAssessment:
		return []Status{StatusDraft, StatusSubmitted, StatusReviewed}
	case KindReview:
		return []Status{StatusDraft, StatusSubmitted}
	case KindAssignment:
		return []Status{StatusPending, StatusInProgress, StatusCompleted}
	default:
		return nil
	}
}

// Facts carries pre-computed predicate results supplied by the
// accessor alongside a snapshot. The engine composes these booleans;
// it never runs the underlying existence or count queries itself.
type Facts struct {
	// HasOwnedJournals: the tenant still owns at least one journal.
	HasOwnedJournals bool `json:"has_owned_journals,omitempty"`

	// HasSubmittedAssessments: an assessment owned by this journal is
	// in submitted or later status.
	HasSubmittedAssessments bool `json:"has_submitted_assessments,omitempty"`

	// InUseBySubmittedWork: a response referencing this catalog entity
	// belongs to a submitted assessment.
	InUseBySubmittedWork bool `json:"in_use_by_submitted_work,omitempty"`

	// HasDependents: the actor still owns dependent resources.
	HasDependents bool `json:"has_dependents,omitempty"`

	// RootActor: the actor this snapshot describes holds the root role.
	RootActor bool `json:"root_actor,omitempty"`

	// RegistrationApproved: the registration targeted by a prospective
	// reviewer assignment is approved.
	RegistrationApproved bool `json:"registration_approved,omitempty"`

	// TargetReviewerCapable: the actor targeted by a prospective
	// reviewer assignment carries the reviewer capability.
	TargetReviewerCapable bool `json:"target_reviewer_capable,omitempty"`

	// DuplicateAssignment: an assignment for the same (registration,
	// reviewer) pair already exists.
	DuplicateAssignment bool `json:"duplicate_assignment,omitempty"`

	// ProgramOpen: the coaching program is active and inside its
	// registration window.
	ProgramOpen bool `json:"program_open,omitempty"`

	// ProgramQuotaLeft: the coaching program has remaining quota.
	ProgramQuotaLeft bool `json:"program_quota_left,omitempty"`

	// DuplicateRegistration: a registration for the same (program,
	// journal) pair already exists.
	DuplicateRegistration bool `json:"duplicate_registration,omitempty"`
}

// Snapshot is a frozen view of one resource: identity, ownership
// pointers, lifecycle status, and invariant facts, all read from a
// single consistent read by the caller. For create-like actions the
// caller builds a prospective snapshot describing the would-be
// resource.
type Snapshot struct {
	ID       id.ID       `json:"id" db:"id"`
	Kind     Kind        `json:"kind" db:"kind"`
	TenantID id.TenantID `json:"tenant_id,omitempty" db:"tenant_id"`
	OwnerID  id.ActorID  `json:"owner_id,omitempty" db:"owner_id"`
	Status   Status      `json:"status,omitempty" db:"status"`

	// Refs holds outbound ownership-chain references, at most one per
	// target kind (e.g. a review references its registration). A
	// missing entry is a broken chain link, not an empty one.
	Refs map[Kind]id.ID `json:"refs,omitempty" db:"-"`

	Facts     Facts     `json:"facts,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Ref returns the outbound reference to the given kind, reporting
// whether the link is present and non-nil.
func (s *Snapshot) Ref(k Kind) (id.ID, bool) {
	if s.Refs == nil {
		return id.Nil, false
	}
	ref, ok := s.Refs[k]
	if !ok || ref.IsNil() {
		return id.Nil, false
	}
	return ref, true
}

// ListFilter contains filters for listing resource snapshots.
type ListFilter struct {
	Kind     Kind         `json:"kind,omitempty"`
	TenantID *id.TenantID `json:"tenant_id,omitempty"`
	OwnerID  *id.ActorID  `json:"owner_id,omitempty"`
	Status   Status       `json:"status,omitempty"`
	Limit    int          `json:"limit,omitempty"`
	Offset   int          `json:"offset,omitempty"`
}
