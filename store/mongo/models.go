package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/decisionlog"
	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
)

// ──────────────────────────────────────────────────
// Actor model
// ──────────────────────────────────────────────────

type actorModel struct {
	grove.BaseModel `grove:"table:gate_actors"`
	ID              string         `grove:"id,pk"            bson:"_id"`
	TenantID        string         `grove:"tenant_id"        bson:"tenant_id"`
	Role            string         `grove:"role"             bson:"role"`
	Name            string         `grove:"name"             bson:"name"`
	Email           string         `grove:"email"            bson:"email"`
	Active          bool           `grove:"active"           bson:"active"`
	ReviewerCapable bool           `grove:"reviewer_capable" bson:"reviewer_capable"`
	Metadata        map[string]any `grove:"metadata"         bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"       bson:"updated_at"`
}

func actorToModel(a *actor.Actor) *actorModel {
	return &actorModel{
		ID:              a.ID.String(),
		TenantID:        a.TenantID.String(),
		Role:            string(a.Role),
		Name:            a.Name,
		Email:           a.Email,
		Active:          a.Active,
		ReviewerCapable: a.ReviewerCapable,
		Metadata:        a.Metadata,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func actorFromModel(m *actorModel) *actor.Actor {
	aid, _ := id.ParseActorID(m.ID) //nolint:errcheck // stored IDs are always valid
	a := &actor.Actor{
		ID:              aid,
		Role:            actor.Role(m.Role),
		Name:            m.Name,
		Email:           m.Email,
		Active:          m.Active,
		ReviewerCapable: m.ReviewerCapable,
		Metadata:        m.Metadata,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.TenantID != "" {
		tid, err := id.ParseTenantID(m.TenantID)
		if err == nil {
			a.TenantID = tid
		}
	}
	return a
}

// ──────────────────────────────────────────────────
// Resource snapshot model
// ──────────────────────────────────────────────────

// Ownership-chain references are flattened into dedicated fields so the
// reviewer-assignment join stays a plain indexed query. Chains only
// ever reference journals and registrations.
type resourceModel struct {
	grove.BaseModel `grove:"table:gate_resources"`
	ID              string         `grove:"id,pk"            bson:"_id"`
	Kind            string         `grove:"kind"             bson:"kind"`
	TenantID        string         `grove:"tenant_id"        bson:"tenant_id"`
	OwnerID         string         `grove:"owner_id"         bson:"owner_id"`
	Status          string         `grove:"status"           bson:"status"`
	RefJournal      *string        `grove:"ref_journal"      bson:"ref_journal,omitempty"`
	RefRegistration *string        `grove:"ref_registration" bson:"ref_registration,omitempty"`
	Facts           resource.Facts `grove:"facts"            bson:"facts"`
	CreatedAt       time.Time      `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"       bson:"updated_at"`
}

func resourceToModel(s *resource.Snapshot) *resourceModel {
	m := &resourceModel{
		ID:        s.ID.String(),
		Kind:      string(s.Kind),
		TenantID:  s.TenantID.String(),
		OwnerID:   s.OwnerID.String(),
		Status:    string(s.Status),
		Facts:     s.Facts,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if ref, ok := s.Ref(resource.KindJournal); ok {
		v := ref.String()
		m.RefJournal = &v
	}
	if ref, ok := s.Ref(resource.KindRegistration); ok {
		v := ref.String()
		m.RefRegistration = &v
	}
	return m
}

func resourceFromModel(m *resourceModel) *resource.Snapshot {
	rid, _ := id.Parse(m.ID) //nolint:errcheck // stored IDs are always valid
	s := &resource.Snapshot{
		ID:        rid,
		Kind:      resource.Kind(m.Kind),
		Status:    resource.Status(m.Status),
		Facts:     m.Facts,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.TenantID != "" {
		if tid, err := id.ParseTenantID(m.TenantID); err == nil {
			s.TenantID = tid
		}
	}
	if m.OwnerID != "" {
		if oid, err := id.ParseActorID(m.OwnerID); err == nil {
			s.OwnerID = oid
		}
	}
	refs := make(map[resource.Kind]id.ID)
	if m.RefJournal != nil {
		if ref, err := id.ParseJournalID(*m.RefJournal); err == nil {
			refs[resource.KindJournal] = ref
		}
	}
	if m.RefRegistration != nil {
		if ref, err := id.ParseRegistrationID(*m.RefRegistration); err == nil {
			refs[resource.KindRegistration] = ref
		}
	}
	if len(refs) > 0 {
		s.Refs = refs
	}
	return s
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionLogModel struct {
	grove.BaseModel `grove:"table:gate_decision_logs"`
	ID              string         `grove:"id,pk"         bson:"_id"`
	TenantID        string         `grove:"tenant_id"     bson:"tenant_id"`
	ActorID         string         `grove:"actor_id"      bson:"actor_id"`
	ActorRole       string         `grove:"actor_role"    bson:"actor_role"`
	Action          string         `grove:"action"        bson:"action"`
	ResourceKind    string         `grove:"resource_kind" bson:"resource_kind"`
	ResourceID      string         `grove:"resource_id"   bson:"resource_id"`
	Allowed         bool           `grove:"allowed"       bson:"allowed"`
	Reason          string         `grove:"reason"        bson:"reason"`
	Detail          string         `grove:"detail"        bson:"detail"`
	EvalTimeNs      int64          `grove:"eval_time_ns"  bson:"eval_time_ns"`
	Metadata        map[string]any `grove:"metadata"      bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"    bson:"created_at"`
}

func decisionLogToModel(e *decisionlog.Entry) *decisionLogModel {
	return &decisionLogModel{
		ID:           e.ID.String(),
		TenantID:     e.TenantID,
		ActorID:      e.ActorID.String(),
		ActorRole:    e.ActorRole,
		Action:       e.Action,
		ResourceKind: e.ResourceKind,
		ResourceID:   e.ResourceID.String(),
		Allowed:      e.Allowed,
		Reason:       e.Reason,
		Detail:       e.Detail,
		EvalTimeNs:   e.EvalTimeNs,
		Metadata:     e.Metadata,
		CreatedAt:    e.CreatedAt,
	}
}

func decisionLogFromModel(m *decisionLogModel) *decisionlog.Entry {
	lid, _ := id.Parse(m.ID)             //nolint:errcheck // stored IDs are always valid
	aid, _ := id.ParseActorID(m.ActorID) //nolint:errcheck
	e := &decisionlog.Entry{
		ID:           lid,
		TenantID:     m.TenantID,
		ActorID:      aid,
		ActorRole:    m.ActorRole,
		Action:       m.Action,
		ResourceKind: m.ResourceKind,
		Allowed:      m.Allowed,
		Reason:       m.Reason,
		Detail:       m.Detail,
		EvalTimeNs:   m.EvalTimeNs,
		Metadata:     m.Metadata,
		CreatedAt:    m.CreatedAt,
	}
	if m.ResourceID != "" {
		if rid, err := id.Parse(m.ResourceID); err == nil {
			e.ResourceID = rid
		}
	}
	return e
}
