// Package id defines TypeID-based identity types for all gate entities.
//
// Every entity in gate uses a single ID struct with a prefix that identifies
// the entity type. IDs are K-sortable (UUIDv7-based), globally unique,
// and URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all gate entity types.
const (
	PrefixTenant        Prefix = "univ"
	PrefixActor         Prefix = "actr"
	PrefixJournal       Prefix = "jrnl"
	PrefixProgram       Prefix = "prog"
	PrefixRegistration  Prefix = "regn"
	PrefixAssessment    Prefix = "asmt"
	PrefixReview        Prefix = "rvw"
	PrefixAssignment    Prefix = "rasg"
	PrefixTemplate      Prefix = "tmpl"
	PrefixCategory      Prefix = "catg"
	PrefixSubCategory   Prefix = "subc"
	PrefixIndicator     Prefix = "indc"
	PrefixEssayQuestion Prefix = "essq"
	PrefixDecisionLog   Prefix = "declog"
)

// ID is the primary identifier type for all gate entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "jrnl_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// MustParseWithPrefix is like ParseWithPrefix but panics on error.
func MustParseWithPrefix(s string, expected Prefix) ID {
	parsed, err := ParseWithPrefix(s, expected)
	if err != nil {
		panic(fmt.Sprintf("id: must parse with prefix %q: %v", expected, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases per entity
// ──────────────────────────────────────────────────

// TenantID is a type-safe identifier for tenants (prefix: "univ").
type TenantID = ID

// ActorID is a type-safe identifier for actors (prefix: "actr").
type ActorID = ID

// JournalID is a type-safe identifier for journals (prefix: "jrnl").
type JournalID = ID

// RegistrationID is a type-safe identifier for registrations (prefix: "regn").
type RegistrationID = ID

// AssignmentID is a type-safe identifier for reviewer assignments (prefix: "rasg").
type AssignmentID = ID

// DecisionLogID is a type-safe identifier for decision log entries (prefix: "declog").
type DecisionLogID = ID

// AnyID is a type alias that accepts any valid prefix.
type AnyID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewTenantID generates a new unique tenant ID.
func NewTenantID() ID { return New(PrefixTenant) }

// NewActorID generates a new unique actor ID.
func NewActorID() ID { return New(PrefixActor) }

// NewJournalID generates a new unique journal ID.
func NewJournalID() ID { return New(PrefixJournal) }

// NewProgramID generates a new unique coaching program ID.
func NewProgramID() ID { return New(PrefixProgram) }

// NewRegistrationID generates a new unique registration ID.
func NewRegistrationID() ID { return New(PrefixRegistration) }

// NewAssessmentID generates a new unique assessment ID.
func NewAssessmentID() ID { return New(PrefixAssessment) }

// NewReviewID generates a new unique review ID.
func NewReviewID() ID { return New(PrefixReview) }

// NewAssignmentID generates a new unique reviewer assignment ID.
func NewAssignmentID() ID { return New(PrefixAssignment) }

// NewTemplateID generates a new unique assessment template ID.
func NewTemplateID() ID { return New(PrefixTemplate) }

// NewCategoryID generates a new unique category ID.
func NewCategoryID() ID { return New(PrefixCategory) }

// NewSubCategoryID generates a new unique sub-category ID.
func NewSubCategoryID() ID { return New(PrefixSubCategory) }

// NewIndicatorID generates a new unique indicator ID.
func NewIndicatorID() ID { return New(PrefixIndicator) }

// NewEssayQuestionID generates a new unique essay question ID.
func NewEssayQuestionID() ID { return New(PrefixEssayQuestion) }

// NewDecisionLogID generates a new unique decision log entry ID.
func NewDecisionLogID() ID { return New(PrefixDecisionLog) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseTenantID parses a string and validates the "univ" prefix.
func ParseTenantID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTenant) }

// ParseActorID parses a string and validates the "actr" prefix.
func ParseActorID(s string) (ID, error) { return ParseWithPrefix(s, PrefixActor) }

// ParseJournalID parses a string and validates the "jrnl" prefix.
func ParseJournalID(s string) (ID, error) { return ParseWithPrefix(s, PrefixJournal) }

// ParseRegistrationID parses a string and validates the "regn" prefix.
func ParseRegistrationID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRegistration) }

// ParseAssignmentID parses a string and validates the "rasg" prefix.
func ParseAssignmentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAssignment) }

// ParseDecisionLogID parses a string and validates the "declog" prefix.
func ParseDecisionLogID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDecisionLog) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
