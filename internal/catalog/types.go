// Package catalog defines the metadata-store model and the storage
// interfaces the import pipeline writes through. The reconciliation core
// depends only on this package; the PostgreSQL implementation lives in
// catalog/pg.
package catalog

// AdminStoreID is the admin/all-stores scope. Labels at this scope are the
// fallback for every store view.
const AdminStoreID int64 = 0

// ArrayBackendModel is the backend model injected for multiselect
// attributes when the import row does not set one explicitly; it stores the
// selected option ids as a comma-joined list.
const ArrayBackendModel = "eav/entity_attribute_backend_array"

// Attribute is the stored definition of a product attribute.
type Attribute struct {
	ID            int64
	Code          string
	FrontendInput string
	BackendModel  string
	DefaultValue  string
	DefaultLabel  string

	// Fields holds the remaining scalar definition columns keyed by their
	// storage name (is_required, apply_to, ...).
	Fields map[string]string
}

// Option is one stored selectable value of a select/multiselect attribute.
type Option struct {
	ID        int64
	Label     string
	SortOrder int
}

// OptionInput describes an option to create: admin label, sort order, and
// per-store label overrides keyed by store id.
type OptionInput struct {
	Label       string
	SortOrder   int
	StoreLabels map[int64]string
}

// StoreLabel is a store-scoped display label for an attribute.
type StoreLabel struct {
	StoreID int64
	Label   string
}

// AttributeData is the full payload for an attribute definition save.
// Empty FrontendInput, BackendModel, and DefaultLabel leave the stored
// values untouched on update. Options are embedded only on the create path
// (or after a full rebuild); incremental adds go through AddOption instead.
type AttributeData struct {
	Code          string
	FrontendInput string
	BackendModel  string
	DefaultValue  string
	DefaultLabel  string
	Fields        map[string]string
	Options       []OptionInput
}

// AttributeSet is a named grouping of attributes assignable to products.
type AttributeSet struct {
	ID   int64
	Name string
}

// Group is a named subdivision within an attribute set.
type Group struct {
	ID        int64
	SetID     int64
	Name      string
	SortOrder int
}
