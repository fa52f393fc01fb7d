package memory

import (
	"context"
	"testing"
	"time"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/decisionlog"
	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
	"github.com/akreda/gate/store"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestActorCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	tenant := id.NewTenantID()
	a := &actor.Actor{
		ID:       id.NewActorID(),
		TenantID: tenant,
		Role:     actor.RoleOwner,
		Name:     "Amira Hassan",
		Email:    "amira@example.edu",
		Active:   true,
	}

	// Create
	if err := s.CreateActor(ctx, a); err != nil {
		t.Fatal(err)
	}

	// Get
	got, err := s.GetActor(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Amira Hassan" {
		t.Fatalf("expected Amira Hassan, got %s", got.Name)
	}

	// Update
	a.Role = actor.RoleTenantAdmin
	if err := s.UpdateActor(ctx, a); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetActor(ctx, a.ID)
	if got.Role != actor.RoleTenantAdmin {
		t.Fatal("update failed")
	}

	// List
	list, _ := s.ListActors(ctx, &actor.ListFilter{TenantID: &tenant})
	if len(list) != 1 {
		t.Fatalf("expected 1 actor, got %d", len(list))
	}

	// Count
	count, _ := s.CountActors(ctx, &actor.ListFilter{TenantID: &tenant})
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	// Delete
	if err := s.DeleteActor(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetActor(ctx, a.ID); err == nil {
		t.Fatal("expected not found after delete")
	}
}

func TestActorListFilters(t *testing.T) {
	ctx := context.Background()
	s := New()

	tenant := id.NewTenantID()
	active := true

	mustCreateActor(t, s, &actor.Actor{
		ID: id.NewActorID(), TenantID: tenant, Role: actor.RoleOwner,
		Name: "Researcher One", Active: true, ReviewerCapable: true,
	})
	mustCreateActor(t, s, &actor.Actor{
		ID: id.NewActorID(), TenantID: tenant, Role: actor.RoleOwner,
		Name: "Researcher Two", Active: false,
	})
	mustCreateActor(t, s, &actor.Actor{
		ID: id.NewActorID(), TenantID: id.NewTenantID(), Role: actor.RoleTenantAdmin,
		Name: "Other Admin", Active: true,
	})

	list, _ := s.ListActors(ctx, &actor.ListFilter{TenantID: &tenant, Active: &active})
	if len(list) != 1 {
		t.Fatalf("expected 1 active actor in tenant, got %d", len(list))
	}

	capable := true
	list, _ = s.ListActors(ctx, &actor.ListFilter{ReviewerCapable: &capable})
	if len(list) != 1 {
		t.Fatalf("expected 1 reviewer-capable actor, got %d", len(list))
	}

	list, _ = s.ListActors(ctx, &actor.ListFilter{Search: "researcher"})
	if len(list) != 2 {
		t.Fatalf("expected 2 actors matching search, got %d", len(list))
	}

	if err := s.DeleteActorsByTenant(ctx, tenant); err != nil {
		t.Fatal(err)
	}
	count, _ := s.CountActors(ctx, nil)
	if count != 1 {
		t.Fatalf("expected 1 actor after tenant purge, got %d", count)
	}
}

func TestResourceCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	tenant := id.NewTenantID()
	owner := id.NewActorID()
	snap := &resource.Snapshot{
		ID:       id.NewJournalID(),
		Kind:     resource.KindJournal,
		TenantID: tenant,
		OwnerID:  owner,
		Status:   resource.StatusPending,
	}

	if err := s.PutResource(ctx, snap); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetResource(ctx, resource.KindJournal, snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != resource.StatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}

	// Put replaces
	snap.Status = resource.StatusApproved
	if err := s.PutResource(ctx, snap); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetResource(ctx, resource.KindJournal, snap.ID)
	if got.Status != resource.StatusApproved {
		t.Fatal("replace failed")
	}

	list, _ := s.ListResources(ctx, &resource.ListFilter{Kind: resource.KindJournal, TenantID: &tenant})
	if len(list) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(list))
	}

	if err := s.DeleteResource(ctx, resource.KindJournal, snap.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetResource(ctx, resource.KindJournal, snap.ID); err == nil {
		t.Fatal("expected not found after delete")
	}
}

func TestResourceCopyIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	journalID := id.NewJournalID()
	regn := &resource.Snapshot{
		ID:   id.NewRegistrationID(),
		Kind: resource.KindRegistration,
		Refs: map[resource.Kind]id.ID{resource.KindJournal: journalID},
	}
	if err := s.PutResource(ctx, regn); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetResource(ctx, resource.KindRegistration, regn.ID)
	delete(got.Refs, resource.KindJournal)

	again, _ := s.GetResource(ctx, resource.KindRegistration, regn.ID)
	if _, ok := again.Ref(resource.KindJournal); !ok {
		t.Fatal("mutating a returned snapshot must not affect the store")
	}
}

func TestHasAssignment(t *testing.T) {
	ctx := context.Background()
	s := New()

	reviewer := id.NewActorID()
	journalID := id.NewJournalID()
	regnID := id.NewRegistrationID()
	asmtID := id.New(id.PrefixAssessment)

	mustPut(t, s, &resource.Snapshot{
		ID: regnID, Kind: resource.KindRegistration,
		Refs: map[resource.Kind]id.ID{resource.KindJournal: journalID},
	})
	mustPut(t, s, &resource.Snapshot{
		ID: asmtID, Kind: resource.KindAssessment,
		Refs: map[resource.Kind]id.ID{resource.KindRegistration: regnID},
	})
	mustPut(t, s, &resource.Snapshot{
		ID:      id.NewAssignmentID(),
		Kind:    resource.KindAssignment,
		OwnerID: reviewer,
		Status:  resource.StatusInProgress,
		Refs: map[resource.Kind]id.ID{
			resource.KindRegistration: regnID,
			resource.KindJournal:      journalID,
		},
	})

	cases := []struct {
		kind resource.Kind
		id   id.ID
		want bool
	}{
		{resource.KindRegistration, regnID, true},
		{resource.KindJournal, journalID, true},
		{resource.KindAssessment, asmtID, true},
		{resource.KindRegistration, id.NewRegistrationID(), false},
	}
	for _, tc := range cases {
		got, err := s.HasAssignment(ctx, reviewer, tc.kind, tc.id)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Fatalf("HasAssignment(%s, %s) = %v, want %v", tc.kind, tc.id, got, tc.want)
		}
	}

	// A different reviewer sees nothing.
	got, err := s.HasAssignment(ctx, id.NewActorID(), resource.KindRegistration, regnID)
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Fatal("unassigned reviewer should not match")
	}
}

func TestDecisionLogStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	actorID := id.NewActorID()
	old := &decisionlog.Entry{
		ID:           id.NewDecisionLogID(),
		TenantID:     "t1",
		ActorID:      actorID,
		Action:       "delete",
		ResourceKind: "journal",
		Allowed:      false,
		Reason:       "invariant_violated",
		CreatedAt:    time.Now().Add(-48 * time.Hour),
	}
	recent := &decisionlog.Entry{
		ID:           id.NewDecisionLogID(),
		TenantID:     "t1",
		ActorID:      actorID,
		Action:       "view",
		ResourceKind: "journal",
		Allowed:      true,
		CreatedAt:    time.Now(),
	}
	for _, e := range []*decisionlog.Entry{old, recent} {
		if err := s.CreateDecisionLog(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetDecisionLog(ctx, recent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Allowed {
		t.Fatal("expected allowed entry")
	}

	denied := false
	list, _ := s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{TenantID: "t1", Allowed: &denied})
	if len(list) != 1 || list[0].Reason != "invariant_violated" {
		t.Fatalf("expected 1 denied entry, got %d", len(list))
	}

	count, _ := s.CountDecisionLogs(ctx, &decisionlog.QueryFilter{ActorID: actorID.String()})
	if count != 2 {
		t.Fatalf("expected 2 entries, got %d", count)
	}

	purged, err := s.PurgeDecisionLogs(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged entry, got %d", purged)
	}

	if err := s.DeleteDecisionLogsByTenant(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	count, _ = s.CountDecisionLogs(ctx, nil)
	if count != 0 {
		t.Fatalf("expected empty log, got %d", count)
	}
}

func mustCreateActor(t *testing.T, s *Store, a *actor.Actor) {
	t.Helper()
	if err := s.CreateActor(context.Background(), a); err != nil {
		t.Fatal(err)
	}
}

func mustPut(t *testing.T, s *Store, snap *resource.Snapshot) {
	t.Helper()
	if err := s.PutResource(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
}
