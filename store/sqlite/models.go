package sqlite

import (
	"encoding/json"
	"fmt"
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
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id"`
	Role            string    `grove:"role,notnull"`
	Name            string    `grove:"name"`
	Email           string    `grove:"email"`
	Active          bool      `grove:"active,notnull"`
	ReviewerCapable bool      `grove:"reviewer_capable,notnull"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func actorToModel(a *actor.Actor) (*actorModel, error) {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal actor metadata: %w", err)
	}
	return &actorModel{
		ID:              a.ID.String(),
		TenantID:        a.TenantID.String(),
		Role:            string(a.Role),
		Name:            a.Name,
		Email:           a.Email,
		Active:          a.Active,
		ReviewerCapable: a.ReviewerCapable,
		Metadata:        string(metadata),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}, nil
}

func actorFromModel(m *actorModel) (*actor.Actor, error) {
	aid, _ := id.ParseActorID(m.ID) //nolint:errcheck // stored IDs are always valid
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal actor metadata: %w", err)
		}
	}
	a := &actor.Actor{
		ID:              aid,
		Role:            actor.Role(m.Role),
		Name:            m.Name,
		Email:           m.Email,
		Active:          m.Active,
		ReviewerCapable: m.ReviewerCapable,
		Metadata:        metadata,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.TenantID != "" {
		tid, err := id.ParseTenantID(m.TenantID)
		if err == nil {
			a.TenantID = tid
		}
	}
	return a, nil
}

// ──────────────────────────────────────────────────
// Resource snapshot model
// ──────────────────────────────────────────────────

// Ownership-chain references are flattened into dedicated columns so
// the reviewer-assignment join stays a plain indexed query. Chains only
// ever reference journals and registrations.
type resourceModel struct {
	grove.BaseModel `grove:"table:gate_resources"`
	ID              string    `grove:"id,pk"`
	Kind            string    `grove:"kind,notnull"`
	TenantID        string    `grove:"tenant_id"`
	OwnerID         string    `grove:"owner_id"`
	Status          string    `grove:"status"`
	RefJournal      *string   `grove:"ref_journal"`
	RefRegistration *string   `grove:"ref_registration"`
	Facts           string    `grove:"facts"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func resourceToModel(s *resource.Snapshot) (*resourceModel, error) {
	facts, err := json.Marshal(s.Facts)
	if err != nil {
		return nil, fmt.Errorf("marshal resource facts: %w", err)
	}
	m := &resourceModel{
		ID:        s.ID.String(),
		Kind:      string(s.Kind),
		TenantID:  s.TenantID.String(),
		OwnerID:   s.OwnerID.String(),
		Status:    string(s.Status),
		Facts:     string(facts),
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
	return m, nil
}

func resourceFromModel(m *resourceModel) (*resource.Snapshot, error) {
	rid, _ := id.Parse(m.ID) //nolint:errcheck // stored IDs are always valid
	s := &resource.Snapshot{
		ID:        rid,
		Kind:      resource.Kind(m.Kind),
		Status:    resource.Status(m.Status),
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
	if m.Facts != "" {
		if err := json.Unmarshal([]byte(m.Facts), &s.Facts); err != nil {
			return nil, fmt.Errorf("unmarshal resource facts: %w", err)
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
	return s, nil
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionLogModel struct {
	grove.BaseModel `grove:"table:gate_decision_logs"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id"`
	ActorID         string    `grove:"actor_id,notnull"`
	ActorRole       string    `grove:"actor_role"`
	Action          string    `grove:"action,notnull"`
	ResourceKind    string    `grove:"resource_kind,notnull"`
	ResourceID      string    `grove:"resource_id"`
	Allowed         bool      `grove:"allowed,notnull"`
	Reason          string    `grove:"reason"`
	Detail          string    `grove:"detail"`
	EvalTimeNs      int64     `grove:"eval_time_ns"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func decisionLogToModel(e *decisionlog.Entry) (*decisionLogModel, error) {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal decision log metadata: %w", err)
	}
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
		Metadata:     string(metadata),
		CreatedAt:    e.CreatedAt,
	}, nil
}

func decisionLogFromModel(m *decisionLogModel) (*decisionlog.Entry, error) {
	lid, _ := id.Parse(m.ID)      //nolint:errcheck // stored IDs are always valid
	aid, _ := id.ParseActorID(m.ActorID) //nolint:errcheck
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal decision log metadata: %w", err)
		}
	}
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
		Metadata:     metadata,
		CreatedAt:    m.CreatedAt,
	}
	if m.ResourceID != "" {
		if rid, err := id.Parse(m.ResourceID); err == nil {
			e.ResourceID = rid
		}
	}
	return e, nil
}
