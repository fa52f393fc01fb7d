package gate

import (
	"fmt"

	"github.com/akreda/gate/actor"
	"github.com/akreda/gate/resource"
)

// Rule declares how one (kind, action) pair is authorized. Absent pairs
// are denied; the tables below are the complete authorization surface.
type Rule struct {
	// Roles is the role floor: non-root actors must hold one of these.
	// Root bypasses the floor.
	Roles []actor.Role
	// Class marks class-level actions evaluated without a resource
	// instance (listings, plain creates).
	Class bool
	// ReviewerOnly additionally requires the reviewer capability flag,
	// regardless of role.
	ReviewerOnly bool
	// ReviewerJoin lets a reviewer-capable actor satisfy scope through an
	// active assignment instead of tenant membership.
	ReviewerJoin bool
	// States lists the lifecycle statuses the action may start from.
	// Nil means any status; kinds without a lifecycle must leave it nil.
	States []resource.Status
	// Guarded routes the request through the invariant checker.
	Guarded bool
}

func (r Rule) permitsRole(role actor.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

func (r Rule) permitsState(s resource.Status) bool {
	if r.States == nil {
		return true
	}
	for _, allowed := range r.States {
		if allowed == s {
			return true
		}
	}
	return false
}

// Catalog is the static (kind, action) rule table the engine evaluates
// against. Build one with DefaultCatalog and validate it at startup.
type Catalog struct {
	rules map[resource.Kind]map[Action]Rule
}

// Rule looks up the rule for a (kind, action) pair.
func (c *Catalog) Rule(kind resource.Kind, action Action) (Rule, bool) {
	actions, ok := c.rules[kind]
	if !ok {
		return Rule{}, false
	}
	r, ok := actions[action]
	return r, ok
}

// Actions returns the actions declared for a kind.
func (c *Catalog) Actions(kind resource.Kind) []Action {
	actions := c.rules[kind]
	out := make([]Action, 0, len(actions))
	for a := range actions {
		out = append(out, a)
	}
	return out
}

var (
	allRoles  = []actor.Role{actor.RoleRoot, actor.RoleTenantAdmin, actor.RoleOwner}
	admins    = []actor.Role{actor.RoleRoot, actor.RoleTenantAdmin}
	rootOnly  = []actor.Role{actor.RoleRoot}
	sPending  = []resource.Status{resource.StatusPending}
	sDraft    = []resource.Status{resource.StatusDraft}
	sApproved = []resource.Status{resource.StatusApproved}
)

// catalogEntityRules covers the platform-global criteria entities:
// templates, categories, subcategories, indicators, and essay questions.
// Everyone may read them; only root mutates them, and deletion is
// guarded against references from submitted work.
func catalogEntityRules() map[Action]Rule {
	return map[Action]Rule{
		ActionView:    {Roles: allRoles},
		ActionViewAny: {Roles: allRoles, Class: true},
		ActionCreate:  {Roles: rootOnly, Class: true},
		ActionUpdate:  {Roles: rootOnly},
		ActionDelete:  {Roles: rootOnly, Guarded: true},
	}
}

// DefaultCatalog builds the platform's complete rule table.
func DefaultCatalog() *Catalog {
	return &Catalog{rules: map[resource.Kind]map[Action]Rule{
		resource.KindTenant: {
			ActionView:    {Roles: admins},
			ActionViewAny: {Roles: rootOnly, Class: true},
			ActionCreate:  {Roles: rootOnly, Class: true},
			ActionUpdate:  {Roles: admins},
			ActionDelete:  {Roles: rootOnly, Guarded: true},
		},
		resource.KindActor: {
			ActionView:       {Roles: allRoles},
			ActionViewAny:    {Roles: admins, Class: true},
			ActionCreate:     {Roles: admins, Class: true},
			ActionUpdate:     {Roles: allRoles},
			ActionDelete:     {Roles: admins, Guarded: true},
			ActionDeactivate: {Roles: admins},
			ActionAssignRole: {Roles: admins},
		},
		resource.KindJournal: {
			ActionView:        {Roles: allRoles, ReviewerJoin: true},
			ActionViewAny:     {Roles: allRoles, Class: true},
			ActionCreate:      {Roles: allRoles, Class: true},
			ActionUpdate:      {Roles: allRoles, States: []resource.Status{resource.StatusPending, resource.StatusApproved}},
			ActionDelete:      {Roles: allRoles, Guarded: true},
			ActionRestore:     {Roles: admins},
			ActionForceDelete: {Roles: admins, Guarded: true},
			ActionApprove:     {Roles: admins, States: sPending},
			ActionReject:      {Roles: admins, States: sPending},
			ActionReassign:    {Roles: admins, States: sApproved},
			ActionExport:      {Roles: allRoles, ReviewerJoin: true},
		},
		resource.KindProgram: {
			ActionView:    {Roles: allRoles},
			ActionViewAny: {Roles: allRoles, Class: true},
			ActionCreate:  {Roles: rootOnly, Class: true},
			ActionUpdate:  {Roles: rootOnly},
			ActionDelete:  {Roles: rootOnly},
		},
		resource.KindRegistration: {
			ActionView:     {Roles: allRoles, ReviewerJoin: true},
			ActionViewAny:  {Roles: allRoles, Class: true},
			ActionCreate:   {Roles: admins, Class: true},
			ActionRegister: {Roles: allRoles, Guarded: true},
			ActionUpdate:   {Roles: allRoles, States: sPending},
			ActionCancel:   {Roles: allRoles, States: sPending, Guarded: true},
			ActionApprove:  {Roles: admins, States: sPending},
			ActionReject:   {Roles: admins, States: sPending},
		},
		resource.KindAssessment: {
			ActionView:    {Roles: allRoles, ReviewerJoin: true},
			ActionViewAny: {Roles: allRoles, Class: true},
			ActionCreate:  {Roles: allRoles, Class: true},
			ActionUpdate:  {Roles: allRoles, States: sDraft},
			ActionDelete:  {Roles: allRoles, States: sDraft},
			ActionSubmit:  {Roles: allRoles, States: sDraft},
			ActionReview:  {Roles: allRoles, ReviewerOnly: true, ReviewerJoin: true, States: []resource.Status{resource.StatusSubmitted}},
		},
		resource.KindReview: {
			ActionView:    {Roles: allRoles, ReviewerJoin: true},
			ActionViewAny: {Roles: admins, Class: true},
			ActionCreate:  {Roles: allRoles, ReviewerOnly: true},
			ActionUpdate:  {Roles: allRoles, ReviewerOnly: true, States: sDraft},
			ActionSubmit:  {Roles: allRoles, ReviewerOnly: true, States: sDraft},
		},
		resource.KindAssignment: {
			ActionView:    {Roles: allRoles},
			ActionViewAny: {Roles: admins, Class: true},
			ActionCreate:  {Roles: rootOnly, Class: true},
			ActionAssign:  {Roles: rootOnly, Guarded: true},
			ActionUpdate:  {Roles: rootOnly, States: []resource.Status{resource.StatusPending, resource.StatusInProgress}},
			ActionDelete:  {Roles: rootOnly, States: []resource.Status{resource.StatusPending, resource.StatusInProgress}, Guarded: true},
		},
		resource.KindTemplate:      catalogEntityRules(),
		resource.KindCategory:      catalogEntityRules(),
		resource.KindSubCategory:   catalogEntityRules(),
		resource.KindIndicator:     catalogEntityRules(),
		resource.KindEssayQuestion: catalogEntityRules(),
	}}
}

// Validate checks the catalog for structural completeness: every kind
// has rules, every action is known, role floors are non-empty and
// valid, state lists only name statuses the kind's lifecycle defines,
// and guarded rules line up one-to-one with the invariant table. An
// engine must not start with an invalid catalog.
func (c *Catalog) Validate() error {
	for _, kind := range resource.Kinds() {
		actions, ok := c.rules[kind]
		if !ok || len(actions) == 0 {
			return fmt.Errorf("%w: kind %s has no rules", ErrCatalogInvalid, kind)
		}
		lifecycle := resource.StatusesFor(kind)
		for action, rule := range actions {
			if !KnownAction(action) {
				return fmt.Errorf("%w: kind %s declares unknown action %q", ErrCatalogInvalid, kind, action)
			}
			if len(rule.Roles) == 0 {
				return fmt.Errorf("%w: %s.%s has an empty role floor", ErrCatalogInvalid, kind, action)
			}
			for _, role := range rule.Roles {
				if !role.Valid() {
					return fmt.Errorf("%w: %s.%s names invalid role %q", ErrCatalogInvalid, kind, action, role)
				}
			}
			if rule.Class && rule.States != nil {
				return fmt.Errorf("%w: class-level %s.%s cannot gate on state", ErrCatalogInvalid, kind, action)
			}
			if rule.States != nil && lifecycle == nil {
				return fmt.Errorf("%w: %s has no lifecycle but %s gates on state", ErrCatalogInvalid, kind, action)
			}
			for _, st := range rule.States {
				if !statusInLifecycle(st, lifecycle) {
					return fmt.Errorf("%w: %s.%s names status %q outside the %s lifecycle", ErrCatalogInvalid, kind, action, st, kind)
				}
			}
			if rule.Guarded != hasInvariant(kind, action) {
				if rule.Guarded {
					return fmt.Errorf("%w: %s.%s is guarded but has no invariant", ErrCatalogInvalid, kind, action)
				}
				return fmt.Errorf("%w: %s.%s has an invariant but is not guarded", ErrCatalogInvalid, kind, action)
			}
		}
	}
	for kind := range c.rules {
		if !kind.Valid() {
			return fmt.Errorf("%w: rules declared for unknown kind %q", ErrCatalogInvalid, kind)
		}
	}
	return nil
}

func statusInLifecycle(s resource.Status, lifecycle []resource.Status) bool {
	for _, l := range lifecycle {
		if l == s {
			return true
		}
	}
	return false
}
