// Package postgres provides a PostgreSQL implementation of the gate
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/decisionlog"
	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
	"github.com/akreda/gate/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite gate store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("gate: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("gate: migration failed: %w", err)
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

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Actor operations
// ──────────────────────────────────────────────────

func (s *Store) CreateActor(ctx context.Context, a *actor.Actor) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	m := actorToModel(a)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gate: create actor: %w", err)
	}
	return nil
}

func (s *Store) GetActor(ctx context.Context, actorID id.ActorID) (*actor.Actor, error) {
	m := new(actorModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", actorID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("actor %s: %w", actorID, actor.ErrNotFound)
		}
		return nil, fmt.Errorf("gate: get actor: %w", err)
	}
	return actorFromModel(m), nil
}

func (s *Store) UpdateActor(ctx context.Context, a *actor.Actor) error {
	a.UpdatedAt = time.Now().UTC()
	m := actorToModel(a)
	res, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: update actor: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("actor %s: %w", a.ID, actor.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteActor(ctx context.Context, actorID id.ActorID) error {
	_, err := s.pgdb.NewDelete((*actorModel)(nil)).
		Where("id = ?", actorID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete actor: %w", err)
	}
	return nil
}

func (s *Store) ListActors(ctx context.Context, filter *actor.ListFilter) ([]*actor.Actor, error) {
	var models []actorModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != nil {
			q = q.Where("tenant_id = ?", filter.TenantID.String())
		}
		if filter.Role != "" {
			q = q.Where("role = ?", string(filter.Role))
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		if filter.ReviewerCapable != nil {
			q = q.Where("reviewer_capable = ?", *filter.ReviewerCapable)
		}
		if filter.Search != "" {
			q = q.Where("(name ILIKE ? OR email ILIKE ?)",
				"%"+filter.Search+"%", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
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
	q := s.pgdb.NewSelect((*actorModel)(nil))
	if filter != nil {
		if filter.TenantID != nil {
			q = q.Where("tenant_id = ?", filter.TenantID.String())
		}
		if filter.Role != "" {
			q = q.Where("role = ?", string(filter.Role))
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		if filter.ReviewerCapable != nil {
			q = q.Where("reviewer_capable = ?", *filter.ReviewerCapable)
		}
		if filter.Search != "" {
			q = q.Where("(name ILIKE ? OR email ILIKE ?)",
				"%"+filter.Search+"%", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gate: count actors: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteActorsByTenant(ctx context.Context, tenantID id.TenantID) error {
	_, err := s.pgdb.NewDelete((*actorModel)(nil)).
		Where("tenant_id = ?", tenantID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete actors by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Resource operations
// ──────────────────────────────────────────────────

func (s *Store) PutResource(ctx context.Context, snap *resource.Snapshot) error {
	now := time.Now().UTC()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = now
	}
	snap.UpdatedAt = now
	m := resourceToModel(snap)
	res, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: put resource: %w", err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("gate: put resource: %w", err)
		}
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, kind resource.Kind, resourceID id.ID) (*resource.Snapshot, error) {
	m := new(resourceModel)
	err := s.pgdb.NewSelect(m).
		Where("kind = ?", string(kind)).
		Where("id = ?", resourceID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s %s: %w", kind, resourceID, resource.ErrNotFound)
		}
		return nil, fmt.Errorf("gate: get resource: %w", err)
	}
	return resourceFromModel(m), nil
}

func (s *Store) DeleteResource(ctx context.Context, kind resource.Kind, resourceID id.ID) error {
	_, err := s.pgdb.NewDelete((*resourceModel)(nil)).
		Where("kind = ?", string(kind)).
		Where("id = ?", resourceID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete resource: %w", err)
	}
	return nil
}

func (s *Store) ListResources(ctx context.Context, filter *resource.ListFilter) ([]*resource.Snapshot, error) {
	var models []resourceModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.Kind != "" {
			q = q.Where("kind = ?", string(filter.Kind))
		}
		if filter.TenantID != nil {
			q = q.Where("tenant_id = ?", filter.TenantID.String())
		}
		if filter.OwnerID != nil {
			q = q.Where("owner_id = ?", filter.OwnerID.String())
		}
		if filter.Status != "" {
			q = q.Where("status = ?", string(filter.Status))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
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
	q := s.pgdb.NewSelect((*resourceModel)(nil))
	if filter != nil {
		if filter.Kind != "" {
			q = q.Where("kind = ?", string(filter.Kind))
		}
		if filter.TenantID != nil {
			q = q.Where("tenant_id = ?", filter.TenantID.String())
		}
		if filter.OwnerID != nil {
			q = q.Where("owner_id = ?", filter.OwnerID.String())
		}
		if filter.Status != "" {
			q = q.Where("status = ?", string(filter.Status))
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gate: count resources: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteResourcesByTenant(ctx context.Context, tenantID id.TenantID) error {
	_, err := s.pgdb.NewDelete((*resourceModel)(nil)).
		Where("tenant_id = ?", tenantID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete resources by tenant: %w", err)
	}
	return nil
}

// HasAssignment answers the reviewer visibility join against the
// flattened reference columns.
func (s *Store) HasAssignment(ctx context.Context, reviewerID id.ActorID, kind resource.Kind, resourceID id.ID) (bool, error) {
	switch kind {
	case resource.KindRegistration:
		return s.hasReviewerAssignment(ctx, reviewerID, "ref_registration", resourceID)
	case resource.KindJournal:
		return s.hasReviewerAssignment(ctx, reviewerID, "ref_journal", resourceID)
	case resource.KindAssignment:
		count, err := s.pgdb.NewSelect((*resourceModel)(nil)).
			Where("kind = ?", string(resource.KindAssignment)).
			Where("id = ?", resourceID.String()).
			Where("owner_id = ?", reviewerID.String()).
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

func (s *Store) hasReviewerAssignment(ctx context.Context, reviewerID id.ActorID, column string, resourceID id.ID) (bool, error) {
	count, err := s.pgdb.NewSelect((*resourceModel)(nil)).
		Where("kind = ?", string(resource.KindAssignment)).
		Where("owner_id = ?", reviewerID.String()).
		Where(column+" = ?", resourceID.String()).
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
		e.CreatedAt = time.Now().UTC()
	}
	m := decisionLogToModel(e)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gate: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	m := new(decisionLogModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("gate: decision log %s not found", logID)
		}
		return nil, fmt.Errorf("gate: get decision log: %w", err)
	}
	return decisionLogFromModel(m), nil
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.ActorID != "" {
			q = q.Where("actor_id = ?", filter.ActorID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.ResourceKind != "" {
			q = q.Where("resource_kind = ?", filter.ResourceKind)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.Reason != "" {
			q = q.Where("reason = ?", filter.Reason)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
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
	q := s.pgdb.NewSelect((*decisionLogModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.ActorID != "" {
			q = q.Where("actor_id = ?", filter.ActorID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.ResourceKind != "" {
			q = q.Where("resource_kind = ?", filter.ResourceKind)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.Reason != "" {
			q = q.Where("reason = ?", filter.Reason)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gate: count decision logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*decisionLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("gate: purge decision logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *Store) DeleteDecisionLogsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.pgdb.NewDelete((*decisionLogModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gate: delete decision logs by tenant: %w", err)
	}
	return nil
}
