// Package mongo provides a MongoDB implementation of the gate composite
// store backed by grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/decisionlog"
	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
	"github.com/akreda/gate/store"
)

// Collection name constants.
const (
	colActors       = "gate_actors"
	colResources    = "gate_resources"
	colDecisionLogs = "gate_decision_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite gate store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all gate collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("gate/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all gate collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colActors: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "role", Value: 1}}},
		},
		colResources: {
			{Keys: bson.D{{Key: "kind", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "owner_id", Value: 1}}},
			{Keys: bson.D{{Key: "ref_journal", Value: 1}}},
			{Keys: bson.D{{Key: "ref_registration", Value: 1}}},
		},
		colDecisionLogs: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Actor operations
// ──────────────────────────────────────────────────

func (s *Store) CreateActor(ctx context.Context, a *actor.Actor) error {
	t := now()
	a.CreatedAt = t
	a.UpdatedAt = t
	m := actorToModel(a)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gate: create actor: %w", err)
	}
	return nil
}

func (s *Store) GetActor(ctx context.Context, actorID id.ActorID) (*actor.Actor, error) {
	var m actorModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": actorID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("actor %s: %w", actorID, actor.ErrNotFound)
		}
		return nil, fmt.Errorf("gate: get actor: %w", err)
	}
	return actorFromModel(&m), nil
}

func (s *Store) UpdateActor(ctx context.Context, a *actor.Actor) error {
	a.UpdatedAt = now()
	m := actorToModel(a)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: update actor: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("actor %s: %w", a.ID, actor.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteActor(ctx context.Context, actorID id.ActorID) error {
	_, err := s.mdb.NewDelete((*actorModel)(nil)).
		Filter(bson.M{"_id": actorID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete actor: %w", err)
	}
	return nil
}

func actorFilter(filter *actor.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != nil {
		f["tenant_id"] = filter.TenantID.String()
	}
	if filter.Role != "" {
		f["role"] = string(filter.Role)
	}
	if filter.Active != nil {
		f["active"] = *filter.Active
	}
	if filter.ReviewerCapable != nil {
		f["reviewer_capable"] = *filter.ReviewerCapable
	}
	if filter.Search != "" {
		f["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}
	return f
}

func (s *Store) ListActors(ctx context.Context, filter *actor.ListFilter) ([]*actor.Actor, error) {
	var models []actorModel
	q := s.mdb.NewFind(&models).
		Filter(actorFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gate: list actors: %w", err)
	}
	result := make([]*actor.Actor, len(models))
	for i := range models {
		result[i] = actorFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountActors(ctx context.Context, filter *actor.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*actorModel)(nil)).
		Filter(actorFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gate: count actors: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteActorsByTenant(ctx context.Context, tenantID id.TenantID) error {
	_, err := s.mdb.NewDelete((*actorModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete actors by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Resource operations
// ──────────────────────────────────────────────────

func (s *Store) PutResource(ctx context.Context, snap *resource.Snapshot) error {
	t := now()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = t
	}
	snap.UpdatedAt = t
	m := resourceToModel(snap)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: put resource: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("gate: put resource: %w", err)
		}
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, kind resource.Kind, resourceID id.ID) (*resource.Snapshot, error) {
	var m resourceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": resourceID.String(), "kind": string(kind)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%s %s: %w", kind, resourceID, resource.ErrNotFound)
		}
		return nil, fmt.Errorf("gate: get resource: %w", err)
	}
	return resourceFromModel(&m), nil
}

func (s *Store) DeleteResource(ctx context.Context, kind resource.Kind, resourceID id.ID) error {
	_, err := s.mdb.NewDelete((*resourceModel)(nil)).
		Filter(bson.M{"_id": resourceID.String(), "kind": string(kind)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete resource: %w", err)
	}
	return nil
}

func resourceFilter(filter *resource.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.Kind != "" {
		f["kind"] = string(filter.Kind)
	}
	if filter.TenantID != nil {
		f["tenant_id"] = filter.TenantID.String()
	}
	if filter.OwnerID != nil {
		f["owner_id"] = filter.OwnerID.String()
	}
	if filter.Status != "" {
		f["status"] = string(filter.Status)
	}
	return f
}

func (s *Store) ListResources(ctx context.Context, filter *resource.ListFilter) ([]*resource.Snapshot, error) {
	var models []resourceModel
	q := s.mdb.NewFind(&models).
		Filter(resourceFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gate: list resources: %w", err)
	}
	result := make([]*resource.Snapshot, len(models))
	for i := range models {
		result[i] = resourceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountResources(ctx context.Context, filter *resource.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*resourceModel)(nil)).
		Filter(resourceFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gate: count resources: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteResourcesByTenant(ctx context.Context, tenantID id.TenantID) error {
	_, err := s.mdb.NewDelete((*resourceModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete resources by tenant: %w", err)
	}
	return nil
}

// HasAssignment answers the reviewer visibility join against the
// flattened reference fields.
func (s *Store) HasAssignment(ctx context.Context, reviewerID id.ActorID, kind resource.Kind, resourceID id.ID) (bool, error) {
	switch kind {
	case resource.KindRegistration:
		return s.hasReviewerAssignment(ctx, reviewerID, "ref_registration", resourceID)
	case resource.KindJournal:
		return s.hasReviewerAssignment(ctx, reviewerID, "ref_journal", resourceID)
	case resource.KindAssignment:
		count, err := s.mdb.NewFind((*resourceModel)(nil)).
			Filter(bson.M{
				"_id":      resourceID.String(),
				"kind":     string(resource.KindAssignment),
				"owner_id": reviewerID.String(),
			}).
			Count(ctx)
		if err != nil {
			return false, fmt.Errorf("gate: has assignment: %w", err)
		}
		return count > 0, nil
	default:
		// Reviews and assessments reach their registration through the
		// flattened reference.
		target, err := s.GetResource(ctx, kind, resourceID)
		if err != nil {
			if errors.Is(err, resource.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		ref, ok := target.Ref(resource.KindRegistration)
		if !ok {
			return false, nil
		}
		return s.hasReviewerAssignment(ctx, reviewerID, "ref_registration", ref)
	}
}

func (s *Store) hasReviewerAssignment(ctx context.Context, reviewerID id.ActorID, field string, resourceID id.ID) (bool, error) {
	count, err := s.mdb.NewFind((*resourceModel)(nil)).
		Filter(bson.M{
			"kind":     string(resource.KindAssignment),
			"owner_id": reviewerID.String(),
			field:      resourceID.String(),
		}).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("gate: has assignment: %w", err)
	}
	return count > 0, nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	m := decisionLogToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gate: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	var m decisionLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("gate: decision log %s not found", logID)
		}
		return nil, fmt.Errorf("gate: get decision log: %w", err)
	}
	return decisionLogFromModel(&m), nil
}

func decisionLogFilter(filter *decisionlog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.ActorID != "" {
		f["actor_id"] = filter.ActorID
	}
	if filter.Action != "" {
		f["action"] = filter.Action
	}
	if filter.ResourceKind != "" {
		f["resource_kind"] = filter.ResourceKind
	}
	if filter.ResourceID != "" {
		f["resource_id"] = filter.ResourceID
	}
	if filter.Allowed != nil {
		f["allowed"] = *filter.Allowed
	}
	if filter.Reason != "" {
		f["reason"] = filter.Reason
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gte"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lte"] = *filter.Before
		}
		f["created_at"] = dateFilter
	}
	return f
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.mdb.NewFind(&models).
		Filter(decisionLogFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gate: list decision logs: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*decisionLogModel)(nil)).
		Filter(decisionLogFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gate: count decision logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*decisionLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("gate: purge decision logs: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteDecisionLogsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*decisionLogModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete decision logs by tenant: %w", err)
	}
	return nil
}
