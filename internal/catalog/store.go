package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookup methods when no entity matches.
var ErrNotFound = errors.New("catalog: not found")

// AttributeStore persists attribute definitions, their options, and their
// store-scoped labels.
type AttributeStore interface {
	// Attribute returns the attribute with the given code, or ErrNotFound.
	Attribute(ctx context.Context, code string) (*Attribute, error)

	// SaveAttribute upserts the attribute definition. Options embedded in
	// the payload are created after any definition write; existing options
	// are untouched.
	SaveAttribute(ctx context.Context, data AttributeData) error

	// DeleteAttribute removes the attribute and everything hanging off it
	// (options, labels, set assignments).
	DeleteAttribute(ctx context.Context, code string) error

	// SetDefaultValue updates only the attribute's default value.
	SetDefaultValue(ctx context.Context, code, value string) error

	// Options returns the attribute's stored options in sort order.
	Options(ctx context.Context, code string) ([]Option, error)

	// AddOption creates a single option with its labels and sort order.
	AddOption(ctx context.Context, code string, opt OptionInput) error

	// DeleteAllOptions removes every stored option of the attribute.
	DeleteAllOptions(ctx context.Context, code string) error

	// AttributeLabels returns the attribute's store-scoped labels,
	// excluding the admin scope.
	AttributeLabels(ctx context.Context, code string) ([]StoreLabel, error)

	// SetAttributeLabels replaces the attribute's store-scoped labels with
	// the given set.
	SetAttributeLabels(ctx context.Context, code string, labels []StoreLabel) error
}

// SetStore persists attribute sets, their groups, and set membership.
type SetStore interface {
	// SetByID returns the attribute set with the given id, or ErrNotFound.
	SetByID(ctx context.Context, id int64) (*AttributeSet, error)

	// SetByName returns the attribute set whose name matches
	// case-insensitively, or ErrNotFound.
	SetByName(ctx context.Context, name string) (*AttributeSet, error)

	// CreateSet creates a new attribute set seeded with a default group.
	CreateSet(ctx context.Context, name string) (*AttributeSet, error)

	// DefaultSet returns the catalog's default attribute set.
	DefaultSet(ctx context.Context) (*AttributeSet, error)

	// DeleteSet removes the attribute set and its groups and assignments.
	DeleteSet(ctx context.Context, id int64) error

	// DefaultGroup returns the set's default group.
	DefaultGroup(ctx context.Context, setID int64) (*Group, error)

	// GroupByName returns the named group within the set, or ErrNotFound.
	// Matching is case-insensitive.
	GroupByName(ctx context.Context, setID int64, name string) (*Group, error)

	// CreateGroup creates a group within the set.
	CreateGroup(ctx context.Context, setID int64, name string, sortOrder int) (*Group, error)

	// AssignAttribute attaches the attribute to the set and group.
	// sortOrder is optional; nil keeps the store's ordering default.
	AssignAttribute(ctx context.Context, setID, groupID int64, code string, sortOrder *int) error
}

// StoreViews resolves store (scope) codes to store ids.
type StoreViews interface {
	// StoreID returns the id for a store code, or ErrNotFound when the
	// code does not name a configured store view.
	StoreID(ctx context.Context, code string) (int64, error)
}

// Store is the full persistence surface the import run writes through.
type Store interface {
	AttributeStore
	SetStore
	StoreViews
}
