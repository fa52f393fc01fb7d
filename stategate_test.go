package gate

import (
	"testing"

	"github.com/akreda/gate/resource"
)

func TestStateGateTable(t *testing.T) {
	g := NewStateGate(DefaultCatalog())

	cases := []struct {
		kind   resource.Kind
		action Action
		status resource.Status
		want   bool
	}{
		{resource.KindJournal, ActionApprove, resource.StatusPending, true},
		{resource.KindJournal, ActionApprove, resource.StatusApproved, false},
		{resource.KindJournal, ActionApprove, resource.StatusRejected, false},
		{resource.KindJournal, ActionReassign, resource.StatusApproved, true},
		{resource.KindJournal, ActionReassign, resource.StatusPending, false},
		{resource.KindAssessment, ActionSubmit, resource.StatusDraft, true},
		{resource.KindAssessment, ActionSubmit, resource.StatusSubmitted, false},
		{resource.KindAssessment, ActionReview, resource.StatusSubmitted, true},
		{resource.KindAssessment, ActionReview, resource.StatusDraft, false},
		{resource.KindRegistration, ActionCancel, resource.StatusPending, true},
		{resource.KindRegistration, ActionCancel, resource.StatusCompleted, false},
		{resource.KindAssignment, ActionUpdate, resource.StatusInProgress, true},
		{resource.KindAssignment, ActionUpdate, resource.StatusCompleted, false},
		// No state list means any status is legal.
		{resource.KindJournal, ActionView, resource.StatusRejected, true},
		{resource.KindTemplate, ActionUpdate, resource.StatusNone, true},
		// Undeclared pairs are illegal from every status.
		{resource.KindAssessment, ActionApprove, resource.StatusSubmitted, false},
		{resource.KindTenant, ActionSubmit, resource.StatusNone, false},
	}

	for _, tc := range cases {
		got := g.IsLegal(tc.kind, tc.action, tc.status)
		if got != tc.want {
			t.Errorf("IsLegal(%s, %s, %q) = %v, want %v", tc.kind, tc.action, tc.status, got, tc.want)
		}
	}
}
