package gate

import (
	"errors"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/resource"
)

var (
	// ErrUnknownAction is returned when a request names an action outside
	// the closed action set. This is a caller error, distinct from a
	// denial with reason unknown_action.
	ErrUnknownAction = errors.New("gate: unknown action")

	// ErrUnknownKind is returned when a request names a resource kind the
	// platform does not define.
	ErrUnknownKind = errors.New("gate: unknown resource kind")

	// ErrActorNotFound is returned when the referenced actor does not
	// exist. Identity resolution failures are errors, never denials.
	ErrActorNotFound = actor.ErrNotFound

	// ErrResourceNotFound is returned when the referenced resource does
	// not exist.
	ErrResourceNotFound = resource.ErrNotFound

	// ErrMissingResource is returned when an instance-level action is
	// requested without a resource snapshot.
	ErrMissingResource = errors.New("gate: action requires a resource snapshot")

	// ErrMissingGrant is returned when assign_role is requested without a
	// role grant.
	ErrMissingGrant = errors.New("gate: assign_role requires a role grant")

	// ErrAccessDenied is returned by Enforce when the decision is a deny.
	ErrAccessDenied = errors.New("gate: access denied")

	// ErrCatalogInvalid is returned at construction when the action
	// catalog fails validation.
	ErrCatalogInvalid = errors.New("gate: invalid action catalog")

	// ErrChainDepthExceeded is returned when an ownership chain is longer
	// than the configured maximum. This indicates a misdeclared chain,
	// not a bad request.
	ErrChainDepthExceeded = errors.New("gate: ownership chain depth exceeded")

	// ErrNoAccessor is returned at construction when no resource accessor
	// was provided.
	ErrNoAccessor = errors.New("gate: resource accessor is required")

	// ErrNoDirectory is returned by Can when the engine was built without
	// an actor directory.
	ErrNoDirectory = errors.New("gate: actor directory is required")
)
