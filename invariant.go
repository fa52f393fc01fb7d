package gate

import (
	"github.com/akreda/gate/resource"
)

// invariantFn checks one business invariant against a snapshot. It
// returns ok=false with a human-readable detail when the invariant
// would be violated. Invariants compose pre-computed facts; they never
// touch storage.
type invariantFn func(snap *resource.Snapshot) (ok bool, detail string)

// invariants is the complete guard table. A (kind, action) pair appears
// here exactly when its catalog rule is marked Guarded; Validate
// enforces the correspondence.
var invariants = map[resource.Kind]map[Action]invariantFn{
	resource.KindTenant: {
		ActionDelete: func(s *resource.Snapshot) (bool, string) {
			if s.Facts.HasOwnedJournals {
				return false, "tenant still owns journals"
			}
			return true, ""
		},
	},
	resource.KindActor: {
		ActionDelete: func(s *resource.Snapshot) (bool, string) {
			if s.Facts.HasDependents {
				return false, "actor still owns dependent resources"
			}
			return true, ""
		},
	},
	resource.KindJournal: {
		ActionDelete:      guardJournalDelete,
		ActionForceDelete: guardJournalDelete,
	},
	resource.KindRegistration: {
		ActionRegister: func(s *resource.Snapshot) (bool, string) {
			if !s.Facts.ProgramOpen {
				return false, "program is not accepting registrations"
			}
			if !s.Facts.ProgramQuotaLeft {
				return false, "program quota is exhausted"
			}
			if s.Facts.DuplicateRegistration {
				return false, "journal is already registered for this program"
			}
			return true, ""
		},
		// The pending requirement is already state-gated; keeping it here
		// too means cancellation stays safe even if the gate table is
		// edited.
		ActionCancel: func(s *resource.Snapshot) (bool, string) {
			if s.Status != resource.StatusPending {
				return false, "registration is past the pending stage"
			}
			return true, ""
		},
	},
	resource.KindAssignment: {
		ActionAssign: func(s *resource.Snapshot) (bool, string) {
			if !s.Facts.RegistrationApproved {
				return false, "registration is not approved"
			}
			if !s.Facts.TargetReviewerCapable {
				return false, "target actor is not reviewer-capable"
			}
			if s.Facts.DuplicateAssignment {
				return false, "reviewer is already assigned to this registration"
			}
			return true, ""
		},
		ActionDelete: func(s *resource.Snapshot) (bool, string) {
			if s.Status == resource.StatusCompleted {
				return false, "completed assignments cannot be deleted"
			}
			return true, ""
		},
	},
	resource.KindTemplate:      {ActionDelete: guardCatalogEntityDelete},
	resource.KindCategory:      {ActionDelete: guardCatalogEntityDelete},
	resource.KindSubCategory:   {ActionDelete: guardCatalogEntityDelete},
	resource.KindIndicator:     {ActionDelete: guardCatalogEntityDelete},
	resource.KindEssayQuestion: {ActionDelete: guardCatalogEntityDelete},
}

func guardJournalDelete(s *resource.Snapshot) (bool, string) {
	if s.Facts.HasSubmittedAssessments {
		return false, "journal has submitted assessments"
	}
	return true, ""
}

func guardCatalogEntityDelete(s *resource.Snapshot) (bool, string) {
	if s.Facts.InUseBySubmittedWork {
		return false, "entity is referenced by submitted work"
	}
	return true, ""
}

func hasInvariant(kind resource.Kind, action Action) bool {
	_, ok := invariants[kind][action]
	return ok
}

// InvariantChecker evaluates the guard table for guarded actions.
type InvariantChecker struct{}

// NewInvariantChecker returns the platform invariant checker.
func NewInvariantChecker() *InvariantChecker { return &InvariantChecker{} }

// Check evaluates the invariant for a (kind, action) pair. Pairs without
// an invariant pass trivially.
func (c *InvariantChecker) Check(kind resource.Kind, action Action, snap *resource.Snapshot) (bool, string) {
	fn, ok := invariants[kind][action]
	if !ok {
		return true, ""
	}
	return fn(snap)
}
