// Package memory provides an in-memory implementation of the composite
// store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/decisionlog"
	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
)

// Compile-time interface checks.
var (
	_ actor.Store       = (*Store)(nil)
	_ resource.Store    = (*Store)(nil)
	_ decisionlog.Store = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all engine entities.
type Store struct {
	mu sync.RWMutex

	actors       map[string]*actor.Actor
	resources    map[string]*resource.Snapshot // kind/id -> snapshot
	decisionLogs map[string]*decisionlog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		actors:       make(map[string]*actor.Actor),
		resources:    make(map[string]*resource.Snapshot),
		decisionLogs: make(map[string]*decisionlog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Actor Store
// ──────────────────────────────────────────────────

func (s *Store) CreateActor(_ context.Context, a *actor.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[a.ID.String()] = copyActor(a)
	return nil
}

func (s *Store) GetActor(_ context.Context, actorID id.ActorID) (*actor.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[actorID.String()]
	if !ok {
		return nil, fmt.Errorf("actor %s: %w", actorID, actor.ErrNotFound)
	}
	return copyActor(a), nil
}

func (s *Store) UpdateActor(_ context.Context, a *actor.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[a.ID.String()]; !ok {
		return fmt.Errorf("actor %s: %w", a.ID, actor.ErrNotFound)
	}
	s.actors[a.ID.String()] = copyActor(a)
	return nil
}

func (s *Store) DeleteActor(_ context.Context, actorID id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actors, actorID.String())
	return nil
}

func (s *Store) ListActors(_ context.Context, filter *actor.ListFilter) ([]*actor.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*actor.Actor, 0, len(s.actors))
	for _, a := range s.actors {
		if !matchActor(a, filter) {
			continue
		}
		result = append(result, copyActor(a))
	}
	return applyPaginationActor(result, paginationOptsActor(filter)), nil
}

func (s *Store) CountActors(ctx context.Context, filter *actor.ListFilter) (int64, error) {
	var unpaged *actor.ListFilter
	if filter != nil {
		f := *filter
		f.Limit, f.Offset = 0, 0
		unpaged = &f
	}
	list, err := s.ListActors(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteActorsByTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, a := range s.actors {
		if a.TenantID.String() == tenantID.String() {
			delete(s.actors, k)
		}
	}
	return nil
}

func matchActor(a *actor.Actor, f *actor.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.TenantID != nil && a.TenantID.String() != f.TenantID.String() {
		return false
	}
	if f.Role != "" && a.Role != f.Role {
		return false
	}
	if f.Active != nil && a.Active != *f.Active {
		return false
	}
	if f.ReviewerCapable != nil && a.ReviewerCapable != *f.ReviewerCapable {
		return false
	}
	if f.Search != "" {
		search := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(a.Name), search) &&
			!strings.Contains(strings.ToLower(a.Email), search) {
			return false
		}
	}
	return true
}

// ──────────────────────────────────────────────────
// Resource Store
// ──────────────────────────────────────────────────

func (s *Store) PutResource(_ context.Context, snap *resource.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[resourceKey(snap.Kind, snap.ID)] = copySnapshot(snap)
	return nil
}

func (s *Store) GetResource(_ context.Context, kind resource.Kind, resourceID id.ID) (*resource.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.resources[resourceKey(kind, resourceID)]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, resourceID, resource.ErrNotFound)
	}
	return copySnapshot(snap), nil
}

func (s *Store) DeleteResource(_ context.Context, kind resource.Kind, resourceID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resources, resourceKey(kind, resourceID))
	return nil
}

func (s *Store) ListResources(_ context.Context, filter *resource.ListFilter) ([]*resource.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*resource.Snapshot, 0, len(s.resources))
	for _, snap := range s.resources {
		if !matchSnapshot(snap, filter) {
			continue
		}
		result = append(result, copySnapshot(snap))
	}
	return applyPaginationSnap(result, paginationOptsSnap(filter)), nil
}

func (s *Store) CountResources(ctx context.Context, filter *resource.ListFilter) (int64, error) {
	var unpaged *resource.ListFilter
	if filter != nil {
		f := *filter
		f.Limit, f.Offset = 0, 0
		unpaged = &f
	}
	list, err := s.ListResources(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteResourcesByTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, snap := range s.resources {
		if snap.TenantID.String() == tenantID.String() {
			delete(s.resources, k)
		}
	}
	return nil
}

// HasAssignment answers the reviewer visibility join. Assignment records
// are snapshots of kind assignment owned by the reviewer; they reach a
// registration directly and a journal through the registration's
// journal link. Reviews and assessments are matched through their own
// registration reference.
func (s *Store) HasAssignment(_ context.Context, reviewerID id.ActorID, kind resource.Kind, resourceID id.ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Resolve the registration the target hangs off.
	var regnID, journalID id.ID
	switch kind {
	case resource.KindRegistration:
		regnID = resourceID
	case resource.KindJournal:
		journalID = resourceID
	case resource.KindAssignment:
		snap, ok := s.resources[resourceKey(kind, resourceID)]
		if !ok {
			return false, nil
		}
		return snap.OwnerID.String() == reviewerID.String(), nil
	default:
		snap, ok := s.resources[resourceKey(kind, resourceID)]
		if !ok {
			return false, nil
		}
		ref, ok := snap.Ref(resource.KindRegistration)
		if !ok {
			return false, nil
		}
		regnID = ref
	}

	for _, snap := range s.resources {
		if snap.Kind != resource.KindAssignment || snap.OwnerID.String() != reviewerID.String() {
			continue
		}
		if !regnID.IsNil() {
			if ref, ok := snap.Ref(resource.KindRegistration); ok && ref.String() == regnID.String() {
				return true, nil
			}
		}
		if !journalID.IsNil() {
			if ref, ok := snap.Ref(resource.KindJournal); ok && ref.String() == journalID.String() {
				return true, nil
			}
		}
	}
	return false, nil
}

func matchSnapshot(snap *resource.Snapshot, f *resource.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.Kind != "" && snap.Kind != f.Kind {
		return false
	}
	if f.TenantID != nil && snap.TenantID.String() != f.TenantID.String() {
		return false
	}
	if f.OwnerID != nil && snap.OwnerID.String() != f.OwnerID.String() {
		return false
	}
	if f.Status != "" && snap.Status != f.Status {
		return false
	}
	return true
}

// ──────────────────────────────────────────────────
// Decision Log Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(_ context.Context, e *decisionlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisionLogs[e.ID.String()] = copyDecisionLog(e)
	return nil
}

func (s *Store) GetDecisionLog(_ context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.decisionLogs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("decision log %s: %w", logID, errLogNotFound)
	}
	return copyDecisionLog(e), nil
}

func (s *Store) ListDecisionLogs(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*decisionlog.Entry, 0, len(s.decisionLogs))
	for _, e := range s.decisionLogs {
		if filter != nil {
			if filter.TenantID != "" && e.TenantID != filter.TenantID {
				continue
			}
			if filter.ActorID != "" && e.ActorID.String() != filter.ActorID {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if filter.ResourceKind != "" && e.ResourceKind != filter.ResourceKind {
				continue
			}
			if filter.ResourceID != "" && e.ResourceID.String() != filter.ResourceID {
				continue
			}
			if filter.Allowed != nil && e.Allowed != *filter.Allowed {
				continue
			}
			if filter.Reason != "" && e.Reason != filter.Reason {
				continue
			}
			if filter.After != nil && e.CreatedAt.Before(*filter.After) {
				continue
			}
			if filter.Before != nil && e.CreatedAt.After(*filter.Before) {
				continue
			}
		}
		result = append(result, copyDecisionLog(e))
	}
	return applyPaginationLog(result, paginationOptsLog(filter)), nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	var unpaged *decisionlog.QueryFilter
	if filter != nil {
		f := *filter
		f.Limit, f.Offset = 0, 0
		unpaged = &f
	}
	list, err := s.ListDecisionLogs(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) PurgeDecisionLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.decisionLogs {
		if e.CreatedAt.Before(before) {
			delete(s.decisionLogs, k)
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteDecisionLogsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.decisionLogs {
		if e.TenantID == tenantID {
			delete(s.decisionLogs, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

var errLogNotFound = fmt.Errorf("decision log not found")

func resourceKey(kind resource.Kind, resourceID id.ID) string {
	return string(kind) + "/" + resourceID.String()
}

func copyActor(a *actor.Actor) *actor.Actor {
	c := *a
	if a.Metadata != nil {
		c.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func copySnapshot(snap *resource.Snapshot) *resource.Snapshot {
	c := *snap
	if snap.Refs != nil {
		c.Refs = make(map[resource.Kind]id.ID, len(snap.Refs))
		for k, v := range snap.Refs {
			c.Refs[k] = v
		}
	}
	return &c
}

func copyDecisionLog(e *decisionlog.Entry) *decisionlog.Entry {
	c := *e
	if e.Metadata != nil {
		c.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Pagination helpers for each entity type.
type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}

func paginationOptsActor(f *actor.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func applyPaginationActor(items []*actor.Actor, p pagOpts) []*actor.Actor {
	return applyPagination(items, p)
}

func paginationOptsSnap(f *resource.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func applyPaginationSnap(items []*resource.Snapshot, p pagOpts) []*resource.Snapshot {
	return applyPagination(items, p)
}

func paginationOptsLog(f *decisionlog.QueryFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func applyPaginationLog(items []*decisionlog.Entry, p pagOpts) []*decisionlog.Entry {
	return applyPagination(items, p)
}
