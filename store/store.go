// Package store defines the aggregate persistence interface. Each
// subsystem (actor, resource, decisionlog) defines its own store
// interface; the composite Store composes them all. Backends: Postgres,
// SQLite, Mongo, and Memory.
package store

import (
	"context"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/decisionlog"
	"github.com/akreda/gate/resource"
)

// Store is the aggregate persistence interface. A single backend
// implements all subsystem stores.
type Store interface {
	actor.Store
	resource.Store
	decisionlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
