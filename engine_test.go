package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
	"github.com/akreda/gate/store/memory"
)

func newTestEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	eng, err := NewEngine(WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	return eng, s
}

func newActor(role actor.Role, tenant id.TenantID) actor.Actor {
	return actor.Actor{
		ID:       id.NewActorID(),
		TenantID: tenant,
		Role:     role,
		Active:   true,
	}
}

func journalSnap(tenant id.TenantID, owner id.ActorID, status resource.Status) *resource.Snapshot {
	return &resource.Snapshot{
		ID:       id.NewJournalID(),
		Kind:     resource.KindJournal,
		TenantID: tenant,
		OwnerID:  owner,
		Status:   status,
	}
}

func decide(t *testing.T, eng *Engine, req *Request) *Result {
	t.Helper()
	result, err := eng.Decide(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func expectDeny(t *testing.T, result *Result, reason Reason) {
	t.Helper()
	if result.Allowed {
		t.Fatalf("expected deny %s, got allow", reason)
	}
	if result.Reason != reason {
		t.Fatalf("expected reason %s, got %s (%s)", reason, result.Reason, result.Detail)
	}
}

func expectAllow(t *testing.T, result *Result) {
	t.Helper()
	if !result.Allowed {
		t.Fatalf("expected allow, got %s: %s", result.Reason, result.Detail)
	}
}

func TestNewEngine_RequiresAccessor(t *testing.T) {
	_, err := NewEngine()
	if !errors.Is(err, ErrNoAccessor) {
		t.Fatalf("expected ErrNoAccessor, got %v", err)
	}
}

func TestInactiveActorDenied(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenant := id.NewTenantID()

	inactive := newActor(actor.RoleRoot, tenant)
	inactive.Active = false

	result := decide(t, eng, &Request{
		Actor:    inactive,
		Action:   ActionView,
		Kind:     resource.KindJournal,
		Resource: journalSnap(tenant, inactive.ID, resource.StatusPending),
	})
	expectDeny(t, result, ReasonInactiveActor)
}

func TestOwnerSelfScope(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenant := id.NewTenantID()
	owner := newActor(actor.RoleOwner, tenant)

	own := journalSnap(tenant, owner.ID, resource.StatusPending)
	expectAllow(t, decide(t, eng, &Request{Actor: owner, Action: ActionView, Kind: resource.KindJournal, Resource: own}))
	expectAllow(t, decide(t, eng, &Request{Actor: owner, Action: ActionUpdate, Kind: resource.KindJournal, Resource: own}))

	// Someone else's journal in the same tenant is out of reach.
	other := journalSnap(tenant, id.NewActorID(), resource.StatusPending)
	result := decide(t, eng, &Request{Actor: owner, Action: ActionView, Kind: resource.KindJournal, Resource: other})
	expectDeny(t, result, ReasonScopeMismatch)
}

func TestTenantAdminScope(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenantA := id.NewTenantID()
	tenantB := id.NewTenantID()
	admin := newActor(actor.RoleTenantAdmin, tenantA)

	inTenant := journalSnap(tenantA, id.NewActorID(), resource.StatusPending)
	expectAllow(t, decide(t, eng, &Request{Actor: admin, Action: ActionApprove, Kind: resource.KindJournal, Resource: inTenant}))

	crossTenant := journalSnap(tenantB, id.NewActorID(), resource.StatusPending)
	result := decide(t, eng, &Request{Actor: admin, Action: ActionApprove, Kind: resource.KindJournal, Resource: crossTenant})
	expectDeny(t, result, ReasonScopeMismatch)
}

func TestRootBypassesScopeAndState(t *testing.T) {
	eng, _ := newTestEngine(t)
	root := newActor(actor.RoleRoot, id.Nil)

	// Cross-tenant, and from a status the gate would reject.
	snap := journalSnap(id.NewTenantID(), id.NewActorID(), resource.StatusApproved)
	expectAllow(t, decide(t, eng, &Request{Actor: root, Action: ActionApprove, Kind: resource.KindJournal, Resource: snap}))
}

func TestRootDoesNotBypassInvariants(t *testing.T) {
	eng, _ := newTestEngine(t)
	root := newActor(actor.RoleRoot, id.Nil)

	snap := journalSnap(id.NewTenantID(), id.NewActorID(), resource.StatusApproved)
	snap.Facts.HasSubmittedAssessments = true

	result := decide(t, eng, &Request{Actor: root, Action: ActionDelete, Kind: resource.KindJournal, Resource: snap})
	expectDeny(t, result, ReasonInvariantViolated)

	result = decide(t, eng, &Request{Actor: root, Action: ActionForceDelete, Kind: resource.KindJournal, Resource: snap})
	expectDeny(t, result, ReasonInvariantViolated)
}

func TestDenyPrecedence(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenantA := id.NewTenantID()
	tenantB := id.NewTenantID()

	// Inactive wins over everything else.
	admin := newActor(actor.RoleTenantAdmin, tenantB)
	admin.Active = false
	wrongEverything := journalSnap(tenantA, id.NewActorID(), resource.StatusApproved)
	result := decide(t, eng, &Request{Actor: admin, Action: ActionApprove, Kind: resource.KindJournal, Resource: wrongEverything})
	expectDeny(t, result, ReasonInactiveActor)

	// Role floor fires before scope.
	owner := newActor(actor.RoleOwner, tenantB)
	result = decide(t, eng, &Request{Actor: owner, Action: ActionApprove, Kind: resource.KindJournal, Resource: wrongEverything})
	expectDeny(t, result, ReasonInsufficientRole)

	// Scope fires before state.
	admin.Active = true
	result = decide(t, eng, &Request{Actor: admin, Action: ActionApprove, Kind: resource.KindJournal, Resource: wrongEverything})
	expectDeny(t, result, ReasonScopeMismatch)

	// With scope satisfied, state is the remaining failure.
	sameTenantAdmin := newActor(actor.RoleTenantAdmin, tenantA)
	result = decide(t, eng, &Request{Actor: sameTenantAdmin, Action: ActionApprove, Kind: resource.KindJournal, Resource: wrongEverything})
	expectDeny(t, result, ReasonIllegalState)
}

func TestUnknownActionIsError(t *testing.T) {
	eng, _ := newTestEngine(t)
	owner := newActor(actor.RoleOwner, id.NewTenantID())

	_, err := eng.Decide(context.Background(), &Request{
		Actor:  owner,
		Action: Action("frobnicate"),
		Kind:   resource.KindJournal,
	})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}

	_, err = eng.Decide(context.Background(), &Request{
		Actor:  owner,
		Action: ActionView,
		Kind:   resource.Kind("spaceship"),
	})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestUndeclaredPairIsDenied(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenant := id.NewTenantID()
	admin := newActor(actor.RoleTenantAdmin, tenant)

	// approve is a known action, but assessments have no approve rule.
	snap := &resource.Snapshot{
		ID:       id.New(id.PrefixAssessment),
		Kind:     resource.KindAssessment,
		TenantID: tenant,
		Status:   resource.StatusSubmitted,
	}
	result := decide(t, eng, &Request{Actor: admin, Action: ActionApprove, Kind: resource.KindAssessment, Resource: snap})
	expectDeny(t, result, ReasonUnknownAction)
}

func TestMissingResourceIsError(t *testing.T) {
	eng, _ := newTestEngine(t)
	owner := newActor(actor.RoleOwner, id.NewTenantID())

	_, err := eng.Decide(context.Background(), &Request{
		Actor:  owner,
		Action: ActionUpdate,
		Kind:   resource.KindJournal,
	})
	if !errors.Is(err, ErrMissingResource) {
		t.Fatalf("expected ErrMissingResource, got %v", err)
	}
}

func TestStateGateTransitions(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenant := id.NewTenantID()
	owner := newActor(actor.RoleOwner, tenant)

	draft := &resource.Snapshot{
		ID:       id.New(id.PrefixAssessment),
		Kind:     resource.KindAssessment,
		TenantID: tenant,
		OwnerID:  owner.ID,
		Status:   resource.StatusDraft,
		Refs:     map[resource.Kind]id.ID{resource.KindJournal: id.NewJournalID()},
	}
	expectAllow(t, decide(t, eng, &Request{Actor: owner, Action: ActionUpdate, Kind: resource.KindAssessment, Resource: draft}))
	expectAllow(t, decide(t, eng, &Request{Actor: owner, Action: ActionSubmit, Kind: resource.KindAssessment, Resource: draft}))

	submitted := *draft
	submitted.Status = resource.StatusSubmitted
	for _, action := range []Action{ActionUpdate, ActionSubmit, ActionDelete} {
		result := decide(t, eng, &Request{Actor: owner, Action: action, Kind: resource.KindAssessment, Resource: &submitted})
		expectDeny(t, result, ReasonIllegalState)
	}
}

func TestUnresolvableChainFailsClosed(t *testing.T) {
	eng, s := newTestEngine(t)
	tenant := id.NewTenantID()
	admin := newActor(actor.RoleTenantAdmin, tenant)

	// No journal reference at all.
	broken := &resource.Snapshot{
		ID:       id.New(id.PrefixAssessment),
		Kind:     resource.KindAssessment,
		TenantID: tenant,
		OwnerID:  id.NewActorID(),
		Status:   resource.StatusDraft,
	}
	result := decide(t, eng, &Request{Actor: admin, Action: ActionView, Kind: resource.KindAssessment, Resource: broken})
	expectDeny(t, result, ReasonScopeMismatch)

	// Reference to a journal that does not exist.
	dangling := &resource.Snapshot{
		ID:       id.New(id.PrefixAssessment),
		Kind:     resource.KindAssessment,
		TenantID: tenant,
		OwnerID:  id.NewActorID(),
		Status:   resource.StatusDraft,
		Refs:     map[resource.Kind]id.ID{resource.KindJournal: id.NewJournalID()},
	}
	result = decide(t, eng, &Request{Actor: admin, Action: ActionView, Kind: resource.KindAssessment, Resource: dangling})
	expectDeny(t, result, ReasonScopeMismatch)

	// With the journal in place the chain resolves and the admin is in scope.
	journal := journalSnap(tenant, id.NewActorID(), resource.StatusApproved)
	if err := s.PutResource(context.Background(), journal); err != nil {
		t.Fatal(err)
	}
	dangling.Refs[resource.KindJournal] = journal.ID
	expectAllow(t, decide(t, eng, &Request{Actor: admin, Action: ActionView, Kind: resource.KindAssessment, Resource: dangling}))
}

func TestReviewerAssignmentVisibility(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()
	tenantA := id.NewTenantID()
	tenantB := id.NewTenantID()

	// Reviewer lives in tenant B; the journal under review is in tenant A.
	reviewer := newActor(actor.RoleOwner, tenantB)
	reviewer.ReviewerCapable = true

	journal := journalSnap(tenantA, id.NewActorID(), resource.StatusApproved)
	if err := s.PutResource(ctx, journal); err != nil {
		t.Fatal(err)
	}
	regn := &resource.Snapshot{
		ID:     id.NewRegistrationID(),
		Kind:   resource.KindRegistration,
		Status: resource.StatusApproved,
		Refs:   map[resource.Kind]id.ID{resource.KindJournal: journal.ID},
	}
	if err := s.PutResource(ctx, regn); err != nil {
		t.Fatal(err)
	}

	// Before an assignment exists the reviewer sees nothing.
	result := decide(t, eng, &Request{Actor: reviewer, Action: ActionView, Kind: resource.KindJournal, Resource: journal})
	expectDeny(t, result, ReasonScopeMismatch)

	assignment := &resource.Snapshot{
		ID:      id.NewAssignmentID(),
		Kind:    resource.KindAssignment,
		OwnerID: reviewer.ID,
		Status:  resource.StatusInProgress,
		Refs: map[resource.Kind]id.ID{
			resource.KindRegistration: regn.ID,
			resource.KindJournal:      journal.ID,
		},
	}
	if err := s.PutResource(ctx, assignment); err != nil {
		t.Fatal(err)
	}

	expectAllow(t, decide(t, eng, &Request{Actor: reviewer, Action: ActionView, Kind: resource.KindJournal, Resource: journal}))
	expectAllow(t, decide(t, eng, &Request{Actor: reviewer, Action: ActionView, Kind: resource.KindRegistration, Resource: regn}))

	// The join never opens mutations.
	result = decide(t, eng, &Request{Actor: reviewer, Action: ActionUpdate, Kind: resource.KindJournal, Resource: journal})
	expectDeny(t, result, ReasonScopeMismatch)
}

func TestReviewAssessmentRequiresCapability(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()
	tenant := id.NewTenantID()

	journal := journalSnap(tenant, id.NewActorID(), resource.StatusApproved)
	if err := s.PutResource(ctx, journal); err != nil {
		t.Fatal(err)
	}
	regnID := id.NewRegistrationID()
	asmt := &resource.Snapshot{
		ID:     id.New(id.PrefixAssessment),
		Kind:   resource.KindAssessment,
		Status: resource.StatusSubmitted,
		Refs: map[resource.Kind]id.ID{
			resource.KindJournal:      journal.ID,
			resource.KindRegistration: regnID,
		},
	}

	if err := s.PutResource(ctx, asmt); err != nil {
		t.Fatal(err)
	}

	plain := newActor(actor.RoleOwner, tenant)
	result := decide(t, eng, &Request{Actor: plain, Action: ActionReview, Kind: resource.KindAssessment, Resource: asmt})
	expectDeny(t, result, ReasonInsufficientRole)

	reviewer := newActor(actor.RoleOwner, id.NewTenantID())
	reviewer.ReviewerCapable = true
	assignment := &resource.Snapshot{
		ID:      id.NewAssignmentID(),
		Kind:    resource.KindAssignment,
		OwnerID: reviewer.ID,
		Status:  resource.StatusInProgress,
		Refs:    map[resource.Kind]id.ID{resource.KindRegistration: regnID},
	}
	if err := s.PutResource(ctx, assignment); err != nil {
		t.Fatal(err)
	}
	expectAllow(t, decide(t, eng, &Request{Actor: reviewer, Action: ActionReview, Kind: resource.KindAssessment, Resource: asmt}))
}

func TestTenantDeleteInvariant(t *testing.T) {
	eng, _ := newTestEngine(t)
	root := newActor(actor.RoleRoot, id.Nil)

	tenant := &resource.Snapshot{
		ID:   id.NewTenantID(),
		Kind: resource.KindTenant,
	}
	tenant.Facts.HasOwnedJournals = true
	result := decide(t, eng, &Request{Actor: root, Action: ActionDelete, Kind: resource.KindTenant, Resource: tenant})
	expectDeny(t, result, ReasonInvariantViolated)

	tenant.Facts.HasOwnedJournals = false
	expectAllow(t, decide(t, eng, &Request{Actor: root, Action: ActionDelete, Kind: resource.KindTenant, Resource: tenant}))
}

func TestCatalogEntityDeleteInvariant(t *testing.T) {
	eng, _ := newTestEngine(t)
	root := newActor(actor.RoleRoot, id.Nil)

	indicator := &resource.Snapshot{
		ID:   id.New(id.PrefixIndicator),
		Kind: resource.KindIndicator,
	}
	indicator.Facts.InUseBySubmittedWork = true
	result := decide(t, eng, &Request{Actor: root, Action: ActionDelete, Kind: resource.KindIndicator, Resource: indicator})
	expectDeny(t, result, ReasonInvariantViolated)

	indicator.Facts.InUseBySubmittedWork = false
	expectAllow(t, decide(t, eng, &Request{Actor: root, Action: ActionDelete, Kind: resource.KindIndicator, Resource: indicator}))
}

func TestUnscopedKindsGatedByRole(t *testing.T) {
	eng, _ := newTestEngine(t)
	owner := newActor(actor.RoleOwner, id.NewTenantID())
	root := newActor(actor.RoleRoot, id.Nil)

	template := &resource.Snapshot{
		ID:   id.New(id.PrefixTemplate),
		Kind: resource.KindTemplate,
	}
	expectAllow(t, decide(t, eng, &Request{Actor: owner, Action: ActionView, Kind: resource.KindTemplate, Resource: template}))

	result := decide(t, eng, &Request{Actor: owner, Action: ActionUpdate, Kind: resource.KindTemplate, Resource: template})
	expectDeny(t, result, ReasonInsufficientRole)

	expectAllow(t, decide(t, eng, &Request{Actor: root, Action: ActionUpdate, Kind: resource.KindTemplate, Resource: template}))
}

func TestRegistrationRegisterInvariants(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenant := id.NewTenantID()
	owner := newActor(actor.RoleOwner, tenant)

	prospective := &resource.Snapshot{
		ID:      id.NewRegistrationID(),
		Kind:    resource.KindRegistration,
		OwnerID: owner.ID,
		Refs:    map[resource.Kind]id.ID{resource.KindJournal: id.NewJournalID()},
	}
	prospective.Facts.ProgramOpen = true
	prospective.Facts.ProgramQuotaLeft = true

	expectAllow(t, decide(t, eng, &Request{Actor: owner, Action: ActionRegister, Kind: resource.KindRegistration, Resource: prospective}))

	closed := *prospective
	closed.Facts.ProgramOpen = false
	result := decide(t, eng, &Request{Actor: owner, Action: ActionRegister, Kind: resource.KindRegistration, Resource: &closed})
	expectDeny(t, result, ReasonInvariantViolated)

	full := *prospective
	full.Facts.ProgramQuotaLeft = false
	result = decide(t, eng, &Request{Actor: owner, Action: ActionRegister, Kind: resource.KindRegistration, Resource: &full})
	expectDeny(t, result, ReasonInvariantViolated)

	dup := *prospective
	dup.Facts.DuplicateRegistration = true
	result = decide(t, eng, &Request{Actor: owner, Action: ActionRegister, Kind: resource.KindRegistration, Resource: &dup})
	expectDeny(t, result, ReasonInvariantViolated)

	// Quota and duplicates bind root as well.
	root := newActor(actor.RoleRoot, id.Nil)
	result = decide(t, eng, &Request{Actor: root, Action: ActionRegister, Kind: resource.KindRegistration, Resource: &full})
	expectDeny(t, result, ReasonInvariantViolated)
}

func TestRegistrationCancelOnlyWhilePending(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenant := id.NewTenantID()
	owner := newActor(actor.RoleOwner, tenant)

	regn := &resource.Snapshot{
		ID:      id.NewRegistrationID(),
		Kind:    resource.KindRegistration,
		OwnerID: owner.ID,
		Status:  resource.StatusPending,
		Refs:    map[resource.Kind]id.ID{resource.KindJournal: id.NewJournalID()},
	}
	expectAllow(t, decide(t, eng, &Request{Actor: owner, Action: ActionCancel, Kind: resource.KindRegistration, Resource: regn}))

	approved := *regn
	approved.Status = resource.StatusApproved
	result := decide(t, eng, &Request{Actor: owner, Action: ActionCancel, Kind: resource.KindRegistration, Resource: &approved})
	expectDeny(t, result, ReasonIllegalState)

	// Root skips the state gate but the invariant still holds the line.
	root := newActor(actor.RoleRoot, id.Nil)
	result = decide(t, eng, &Request{Actor: root, Action: ActionCancel, Kind: resource.KindRegistration, Resource: &approved})
	expectDeny(t, result, ReasonInvariantViolated)
}

func TestAssignmentAssignInvariants(t *testing.T) {
	eng, _ := newTestEngine(t)
	root := newActor(actor.RoleRoot, id.Nil)

	prospective := &resource.Snapshot{
		ID:   id.NewAssignmentID(),
		Kind: resource.KindAssignment,
		Refs: map[resource.Kind]id.ID{resource.KindRegistration: id.NewRegistrationID()},
	}
	prospective.Facts.RegistrationApproved = true
	prospective.Facts.TargetReviewerCapable = true

	expectAllow(t, decide(t, eng, &Request{Actor: root, Action: ActionAssign, Kind: resource.KindAssignment, Resource: prospective}))

	unapproved := *prospective
	unapproved.Facts.RegistrationApproved = false
	result := decide(t, eng, &Request{Actor: root, Action: ActionAssign, Kind: resource.KindAssignment, Resource: &unapproved})
	expectDeny(t, result, ReasonInvariantViolated)

	incapable := *prospective
	incapable.Facts.TargetReviewerCapable = false
	result = decide(t, eng, &Request{Actor: root, Action: ActionAssign, Kind: resource.KindAssignment, Resource: &incapable})
	expectDeny(t, result, ReasonInvariantViolated)

	dup := *prospective
	dup.Facts.DuplicateAssignment = true
	result = decide(t, eng, &Request{Actor: root, Action: ActionAssign, Kind: resource.KindAssignment, Resource: &dup})
	expectDeny(t, result, ReasonInvariantViolated)

	// Tenant admins never assign reviewers.
	admin := newActor(actor.RoleTenantAdmin, id.NewTenantID())
	result = decide(t, eng, &Request{Actor: admin, Action: ActionAssign, Kind: resource.KindAssignment, Resource: prospective})
	expectDeny(t, result, ReasonInsufficientRole)
}

func TestCompletedAssignmentCannotBeDeleted(t *testing.T) {
	eng, _ := newTestEngine(t)
	root := newActor(actor.RoleRoot, id.Nil)

	done := &resource.Snapshot{
		ID:     id.NewAssignmentID(),
		Kind:   resource.KindAssignment,
		Status: resource.StatusCompleted,
		Refs:   map[resource.Kind]id.ID{resource.KindRegistration: id.NewRegistrationID()},
	}
	result := decide(t, eng, &Request{Actor: root, Action: ActionDelete, Kind: resource.KindAssignment, Resource: done})
	expectDeny(t, result, ReasonInvariantViolated)
}

func TestSelfDestructiveActionsForbidden(t *testing.T) {
	eng, _ := newTestEngine(t)
	root := newActor(actor.RoleRoot, id.Nil)

	self := &resource.Snapshot{
		ID:      root.ID,
		Kind:    resource.KindActor,
		OwnerID: root.ID,
	}
	for _, action := range []Action{ActionDeactivate, ActionDelete} {
		result := decide(t, eng, &Request{Actor: root, Action: action, Kind: resource.KindActor, Resource: self})
		expectDeny(t, result, ReasonSelfActionForbidden)
	}
}

func TestRootActorsAreShielded(t *testing.T) {
	eng, _ := newTestEngine(t)
	root := newActor(actor.RoleRoot, id.Nil)

	otherRoot := &resource.Snapshot{
		ID:   id.NewActorID(),
		Kind: resource.KindActor,
	}
	otherRoot.Facts.RootActor = true

	for _, action := range []Action{ActionDelete, ActionDeactivate} {
		result := decide(t, eng, &Request{Actor: root, Action: action, Kind: resource.KindActor, Resource: otherRoot})
		expectDeny(t, result, ReasonInsufficientRole)
	}
}

func TestAssignRoleGrants(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenantA := id.NewTenantID()
	tenantB := id.NewTenantID()
	root := newActor(actor.RoleRoot, id.Nil)
	admin := newActor(actor.RoleTenantAdmin, tenantA)

	target := &resource.Snapshot{
		ID:       id.NewActorID(),
		Kind:     resource.KindActor,
		TenantID: tenantA,
	}

	// Root grants any non-root role.
	expectAllow(t, decide(t, eng, &Request{
		Actor: root, Action: ActionAssignRole, Kind: resource.KindActor,
		Resource: target, Grant: &RoleGrant{Role: actor.RoleTenantAdmin},
	}))

	// Root cannot mint another root.
	result := decide(t, eng, &Request{
		Actor: root, Action: ActionAssignRole, Kind: resource.KindActor,
		Resource: target, Grant: &RoleGrant{Role: actor.RoleRoot},
	})
	expectDeny(t, result, ReasonInsufficientRole)

	// Tenant admin grants owner within the tenant.
	expectAllow(t, decide(t, eng, &Request{
		Actor: admin, Action: ActionAssignRole, Kind: resource.KindActor,
		Resource: target, Grant: &RoleGrant{Role: actor.RoleOwner},
	}))

	// But not tenant_admin.
	result = decide(t, eng, &Request{
		Actor: admin, Action: ActionAssignRole, Kind: resource.KindActor,
		Resource: target, Grant: &RoleGrant{Role: actor.RoleTenantAdmin},
	})
	expectDeny(t, result, ReasonInsufficientRole)

	// And not across tenants.
	crossTarget := &resource.Snapshot{
		ID:       id.NewActorID(),
		Kind:     resource.KindActor,
		TenantID: tenantB,
	}
	result = decide(t, eng, &Request{
		Actor: admin, Action: ActionAssignRole, Kind: resource.KindActor,
		Resource: crossTarget, Grant: &RoleGrant{Role: actor.RoleOwner},
	})
	expectDeny(t, result, ReasonScopeMismatch)

	// A missing grant is a caller error.
	_, err := eng.Decide(context.Background(), &Request{
		Actor: root, Action: ActionAssignRole, Kind: resource.KindActor, Resource: target,
	})
	if !errors.Is(err, ErrMissingGrant) {
		t.Fatalf("expected ErrMissingGrant, got %v", err)
	}
}

func TestEnforce(t *testing.T) {
	eng, _ := newTestEngine(t)
	tenant := id.NewTenantID()
	owner := newActor(actor.RoleOwner, tenant)

	own := journalSnap(tenant, owner.ID, resource.StatusPending)
	if err := eng.Enforce(context.Background(), &Request{Actor: owner, Action: ActionView, Kind: resource.KindJournal, Resource: own}); err != nil {
		t.Fatal(err)
	}

	foreign := journalSnap(id.NewTenantID(), id.NewActorID(), resource.StatusPending)
	err := eng.Enforce(context.Background(), &Request{Actor: owner, Action: ActionView, Kind: resource.KindJournal, Resource: foreign})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCanResolvesActorAndResource(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()
	tenant := id.NewTenantID()

	owner := newActor(actor.RoleOwner, tenant)
	if err := s.CreateActor(ctx, &owner); err != nil {
		t.Fatal(err)
	}
	journal := journalSnap(tenant, owner.ID, resource.StatusPending)
	if err := s.PutResource(ctx, journal); err != nil {
		t.Fatal(err)
	}

	ok, err := eng.Can(ctx, owner.ID, ActionView, resource.KindJournal, journal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected owner to view own journal")
	}

	// Class-level action with a nil resource ID.
	ok, err = eng.Can(ctx, owner.ID, ActionViewAny, resource.KindJournal, id.Nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected view_any to be allowed")
	}

	// Unknown actor is an error, not a deny.
	_, err = eng.Can(ctx, id.NewActorID(), ActionView, resource.KindJournal, journal.ID)
	if !errors.Is(err, ErrActorNotFound) {
		t.Fatalf("expected ErrActorNotFound, got %v", err)
	}

	// Unknown resource likewise.
	_, err = eng.Can(ctx, owner.ID, ActionView, resource.KindJournal, id.NewJournalID())
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestDecisionsAreAudited(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := WithTenant(context.Background(), "t1")
	tenant := id.NewTenantID()
	owner := newActor(actor.RoleOwner, tenant)

	decideReq := &Request{
		Actor:    owner,
		Action:   ActionDelete,
		Kind:     resource.KindJournal,
		Resource: journalSnap(id.NewTenantID(), id.NewActorID(), resource.StatusPending),
	}
	result, err := eng.Decide(ctx, decideReq)
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatal("expected deny")
	}

	logs, err := s.ListDecisionLogs(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(logs))
	}
	e := logs[0]
	if e.TenantID != "t1" || e.Action != "delete" || e.Allowed || e.Reason != string(ReasonScopeMismatch) {
		t.Fatalf("unexpected audit entry: %+v", e)
	}
}
