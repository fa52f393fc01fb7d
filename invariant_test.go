package gate

import (
	"testing"

	"github.com/akreda/gate/resource"
)

func TestInvariantChecker(t *testing.T) {
	c := NewInvariantChecker()

	snap := func(kind resource.Kind, facts resource.Facts, status resource.Status) *resource.Snapshot {
		return &resource.Snapshot{Kind: kind, Facts: facts, Status: status}
	}

	cases := []struct {
		name   string
		kind   resource.Kind
		action Action
		snap   *resource.Snapshot
		want   bool
	}{
		{"tenant delete with journals", resource.KindTenant, ActionDelete,
			snap(resource.KindTenant, resource.Facts{HasOwnedJournals: true}, ""), false},
		{"tenant delete empty", resource.KindTenant, ActionDelete,
			snap(resource.KindTenant, resource.Facts{}, ""), true},
		{"actor delete with dependents", resource.KindActor, ActionDelete,
			snap(resource.KindActor, resource.Facts{HasDependents: true}, ""), false},
		{"journal delete with submitted work", resource.KindJournal, ActionDelete,
			snap(resource.KindJournal, resource.Facts{HasSubmittedAssessments: true}, resource.StatusApproved), false},
		{"journal force delete with submitted work", resource.KindJournal, ActionForceDelete,
			snap(resource.KindJournal, resource.Facts{HasSubmittedAssessments: true}, resource.StatusApproved), false},
		{"register closed program", resource.KindRegistration, ActionRegister,
			snap(resource.KindRegistration, resource.Facts{ProgramQuotaLeft: true}, ""), false},
		{"register full program", resource.KindRegistration, ActionRegister,
			snap(resource.KindRegistration, resource.Facts{ProgramOpen: true}, ""), false},
		{"register duplicate", resource.KindRegistration, ActionRegister,
			snap(resource.KindRegistration, resource.Facts{ProgramOpen: true, ProgramQuotaLeft: true, DuplicateRegistration: true}, ""), false},
		{"register ok", resource.KindRegistration, ActionRegister,
			snap(resource.KindRegistration, resource.Facts{ProgramOpen: true, ProgramQuotaLeft: true}, ""), true},
		{"cancel pending", resource.KindRegistration, ActionCancel,
			snap(resource.KindRegistration, resource.Facts{}, resource.StatusPending), true},
		{"cancel approved", resource.KindRegistration, ActionCancel,
			snap(resource.KindRegistration, resource.Facts{}, resource.StatusApproved), false},
		{"assign unapproved registration", resource.KindAssignment, ActionAssign,
			snap(resource.KindAssignment, resource.Facts{TargetReviewerCapable: true}, ""), false},
		{"assign incapable reviewer", resource.KindAssignment, ActionAssign,
			snap(resource.KindAssignment, resource.Facts{RegistrationApproved: true}, ""), false},
		{"assign duplicate", resource.KindAssignment, ActionAssign,
			snap(resource.KindAssignment, resource.Facts{RegistrationApproved: true, TargetReviewerCapable: true, DuplicateAssignment: true}, ""), false},
		{"assign ok", resource.KindAssignment, ActionAssign,
			snap(resource.KindAssignment, resource.Facts{RegistrationApproved: true, TargetReviewerCapable: true}, ""), true},
		{"delete completed assignment", resource.KindAssignment, ActionDelete,
			snap(resource.KindAssignment, resource.Facts{}, resource.StatusCompleted), false},
		{"delete in-use indicator", resource.KindIndicator, ActionDelete,
			snap(resource.KindIndicator, resource.Facts{InUseBySubmittedWork: true}, ""), false},
		{"delete unused indicator", resource.KindIndicator, ActionDelete,
			snap(resource.KindIndicator, resource.Facts{}, ""), true},
		// Unguarded pairs pass trivially.
		{"view has no invariant", resource.KindJournal, ActionView,
			snap(resource.KindJournal, resource.Facts{HasSubmittedAssessments: true}, resource.StatusApproved), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, detail := c.Check(tc.kind, tc.action, tc.snap)
			if ok != tc.want {
				t.Fatalf("Check(%s, %s) = %v (%s), want %v", tc.kind, tc.action, ok, detail, tc.want)
			}
			if !ok && detail == "" {
				t.Fatal("violations must carry a detail message")
			}
		})
	}
}
