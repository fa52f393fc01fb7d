package actor

import (
	"context"

	"github.com/akreda/gate/id"
)

// Directory resolves actor snapshots. The engine consumes this narrow
// read side; the surrounding platform owns authentication and actor
// provisioning.
type Directory interface {
	// GetActor retrieves an actor snapshot by ID.
	GetActor(ctx context.Context, actorID id.ActorID) (*Actor, error)
}

// Store defines the full persistence surface for actors.
type Store interface {
	Directory

	// CreateActor persists a new actor.
	CreateActor(ctx context.Context, a *Actor) error

	// UpdateActor persists changes to an actor.
	UpdateActor(ctx context.Context, a *Actor) error

	// DeleteActor removes an actor by ID.
	DeleteActor(ctx context.Context, actorID id.ActorID) error

	// ListActors returns actors matching the filter.
	ListActors(ctx context.Context, filter *ListFilter) ([]*Actor, error)

	// CountActors returns the number of actors matching the filter.
	CountActors(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteActorsByTenant removes all actors affiliated with a tenant.
	DeleteActorsByTenant(ctx context.Context, tenantID id.TenantID) error
}
