package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/akreda/gate/id"
	"github.com/akreda/gate/resource"
)

// ScopeClass classifies the outcome of ownership-chain resolution.
type ScopeClass int

const (
	// ScopeTenant means the resource resolved to exactly one tenant.
	ScopeTenant ScopeClass = iota
	// ScopeUnscoped means the resource is platform-global catalog data
	// with no tenant owner.
	ScopeUnscoped
	// ScopeUnresolvable means a hop in the chain was missing or broken.
	// The engine fails closed on this class.
	ScopeUnresolvable
)

func (c ScopeClass) String() string {
	switch c {
	case ScopeTenant:
		return "tenant"
	case ScopeUnscoped:
		return "unscoped"
	case ScopeUnresolvable:
		return "unresolvable"
	default:
		return fmt.Sprintf("ScopeClass(%d)", int(c))
	}
}

// Scope is the resolved tenant scope of a resource.
type Scope struct {
	Class  ScopeClass
	Tenant id.TenantID
}

// ownershipChains declares, per resource kind, the fixed sequence of
// parent hops walked to reach the tenant. Kinds absent from this table
// either carry the tenant directly, are the tenant itself, or are
// unscoped. Chains are static: adding a kind means adding its row here.
var ownershipChains = map[resource.Kind][]resource.Kind{
	resource.KindAssessment:   {resource.KindJournal},
	resource.KindRegistration: {resource.KindJournal},
	resource.KindReview:       {resource.KindRegistration, resource.KindJournal},
	resource.KindAssignment:   {resource.KindRegistration, resource.KindJournal},
}

// unscopedKinds are platform-global: evaluation templates and the
// criteria tree they share. Access to them is gated purely by role.
var unscopedKinds = map[resource.Kind]bool{
	resource.KindProgram:       true,
	resource.KindTemplate:      true,
	resource.KindCategory:      true,
	resource.KindSubCategory:   true,
	resource.KindIndicator:     true,
	resource.KindEssayQuestion: true,
}

// ChainWalker resolves a resource snapshot to a tenant scope by walking
// its declared ownership chain.
type ChainWalker interface {
	Resolve(ctx context.Context, acc resource.Accessor, snap *resource.Snapshot) (Scope, error)
}

// DefaultChainWalker walks the static ownership-chain table. maxDepth
// bounds the number of hops loaded per resolution.
type DefaultChainWalker struct {
	maxDepth int
}

// NewChainWalker creates a walker with the given hop bound.
func NewChainWalker(maxDepth int) *DefaultChainWalker {
	if maxDepth <= 0 {
		maxDepth = DefaultConfig().MaxChainDepth
	}
	return &DefaultChainWalker{maxDepth: maxDepth}
}

var _ ChainWalker = (*DefaultChainWalker)(nil)

// Resolve walks the snapshot's ownership chain to its tenant. A missing
// reference or a missing hop target yields ScopeUnresolvable rather
// than an error: brokenness is an authorization fact, not a transport
// failure. Store errors other than not-found propagate.
func (w *DefaultChainWalker) Resolve(ctx context.Context, acc resource.Accessor, snap *resource.Snapshot) (Scope, error) {
	if snap == nil {
		return Scope{Class: ScopeUnresolvable}, nil
	}
	if snap.Kind == resource.KindTenant {
		return Scope{Class: ScopeTenant, Tenant: id.TenantID(snap.ID)}, nil
	}
	if unscopedKinds[snap.Kind] {
		return Scope{Class: ScopeUnscoped}, nil
	}

	chain := ownershipChains[snap.Kind]
	if len(chain) >= w.maxDepth {
		return Scope{}, fmt.Errorf("%w: kind %s declares %d hops, max %d",
			ErrChainDepthExceeded, snap.Kind, len(chain), w.maxDepth)
	}

	cur := snap
	for _, hop := range chain {
		ref, ok := cur.Ref(hop)
		if !ok {
			return Scope{Class: ScopeUnresolvable}, nil
		}
		next, err := acc.GetResource(ctx, hop, ref)
		if err != nil {
			if errors.Is(err, resource.ErrNotFound) {
				return Scope{Class: ScopeUnresolvable}, nil
			}
			return Scope{}, fmt.Errorf("resolve %s chain at %s: %w", snap.Kind, hop, err)
		}
		cur = next
	}

	if cur.TenantID.IsNil() {
		return Scope{Class: ScopeUnresolvable}, nil
	}
	return Scope{Class: ScopeTenant, Tenant: cur.TenantID}, nil
}
