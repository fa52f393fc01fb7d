package gate

import "github.com/akreda/gate/resource"

// StateGate answers whether an action may start from a resource's
// current lifecycle status. It is a view over the catalog's state
// declarations; a (kind, action) pair the catalog does not declare is
// illegal from every status.
type StateGate struct {
	catalog *Catalog
}

// NewStateGate creates a gate over the given catalog.
func NewStateGate(c *Catalog) *StateGate {
	return &StateGate{catalog: c}
}

// IsLegal reports whether the action is permitted from the given status.
// Rules without a state list permit any status.
func (g *StateGate) IsLegal(kind resource.Kind, action Action, status resource.Status) bool {
	rule, ok := g.catalog.Rule(kind, action)
	if !ok {
		return false
	}
	return rule.permitsState(status)
}
