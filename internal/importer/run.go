// Package importer reconciles CSV attribute rows against the catalog
// metadata store.
//
// Processing is strictly sequential: rows share mutable metadata (set and
// group creation) through the store, so there is no cross-row parallelism.
// Failures never stop the row loop; they accumulate in the Result and only
// decide the final exit status.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/catalogkit/attrimport/internal/catalog"
	"github.com/catalogkit/attrimport/internal/csvfile"
)

// ImportType selects what the CSV rows describe.
type ImportType string

const (
	TypeAttribute    ImportType = "attribute"
	TypeAttributeSet ImportType = "attribute-set"
)

// Behavior selects what happens to each row's entity.
type Behavior string

const (
	BehaviorAdd    Behavior = "add"
	BehaviorUpdate Behavior = "update"
	BehaviorDelete Behavior = "delete"
)

// Options configures a run. Invalid combinations are rejected by New
// before any row is touched.
type Options struct {
	Type     ImportType
	Behavior Behavior
}

// Runner executes one import run against a catalog store.
type Runner struct {
	store  catalog.Store
	stores *storeResolver
	opts   Options
	log    *slog.Logger
}

// Validate rejects unknown types, unknown behaviors, and the combinations
// the importer does not support. Attribute-set mode only deletes.
func (o Options) Validate() error {
	switch o.Type {
	case TypeAttribute, TypeAttributeSet:
	default:
		return fmt.Errorf("invalid import type %q", o.Type)
	}

	switch o.Behavior {
	case BehaviorAdd, BehaviorUpdate, BehaviorDelete:
	default:
		return fmt.Errorf("invalid behavior %q", o.Behavior)
	}

	if o.Type == TypeAttributeSet && o.Behavior != BehaviorDelete {
		return fmt.Errorf("import type %q only supports behavior %q", TypeAttributeSet, BehaviorDelete)
	}
	return nil
}

// New validates the run options and builds a Runner.
func New(store catalog.Store, opts Options, log *slog.Logger) (*Runner, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Runner{
		store:  store,
		stores: newStoreResolver(store),
		opts:   opts,
		log:    log,
	}, nil
}

// Run processes every data row of the table and returns the accumulated
// result. The returned error covers upfront validation and cancellation
// only; row-level failures land in Result.Errors.
func (r *Runner) Run(ctx context.Context, tbl *csvfile.Table) (*Result, error) {
	res := &Result{}

	if r.opts.Type == TypeAttributeSet {
		if !tbl.HasColumn(colAttributeSet) {
			return nil, fmt.Errorf("missing required column %q", colAttributeSet)
		}
		r.deleteSets(ctx, tbl, res)
		return res, nil
	}

	if !tbl.HasColumn(colAttributeCode) {
		return nil, fmt.Errorf("missing required column %q", colAttributeCode)
	}

	cols := classifyColumns(tbl.Header)
	for _, row := range tbl.Rows() {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("import cancelled at line %d: %w", row.Line, err)
		}
		r.processAttributeRow(ctx, rowView{tbl: tbl, row: row, cols: cols}, res)
	}
	return res, nil
}
