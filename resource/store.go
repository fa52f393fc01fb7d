package resource

import (
	"context"

	"github.com/akreda/gate/id"
)

// Accessor is the narrow read side the engine consumes: snapshot
// retrieval for ownership-chain walking, and the one actor-dependent
// join predicate (reviewer assignment visibility). Implementations
// must answer both from the same consistent view.
type Accessor interface {
	// GetResource retrieves a resource snapshot by kind and ID.
	GetResource(ctx context.Context, kind Kind, resourceID id.ID) (*Snapshot, error)

	// HasAssignment reports whether the reviewer holds an assignment
	// record that reaches the given resource: directly for a
	// registration, through the registration link for reviews and
	// assessments, and through the journal link for journals.
	HasAssignment(ctx context.Context, reviewerID id.ActorID, kind Kind, resourceID id.ID) (bool, error)
}

// Store defines the full persistence surface for resource snapshots.
type Store interface {
	Accessor

	// PutResource creates or replaces a resource snapshot.
	PutResource(ctx context.Context, s *Snapshot) error

	// DeleteResource removes a resource snapshot.
	DeleteResource(ctx context.Context, kind Kind, resourceID id.ID) error

	// ListResources returns snapshots matching the filter.
	ListResources(ctx context.Context, filter *ListFilter) ([]*Snapshot, error)

	// CountResources returns the number of snapshots matching the filter.
	CountResources(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteResourcesByTenant removes all snapshots directly scoped to
	// a tenant.
	DeleteResourcesByTenant(ctx context.Context, tenantID id.TenantID) error
}
