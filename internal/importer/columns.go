package importer

import (
	"strings"

	"github.com/catalogkit/attrimport/internal/csvfile"
)

// Well-known column names of the attribute import format.
const (
	colAttributeCode  = "attribute_code"
	colAttributeSet   = "attribute_set"
	colGroup          = "group"
	colGroupOrder     = "group_order"
	colSetOrder       = "attribute_set_order"
	colSortOrder      = "sort_order"
	colLabel          = "label"
	colInput          = "input"
	colDefault        = "default"
	colApplyTo        = "apply_to"
	colOption         = "option"
	colOptionOrder    = "option_order"
	colOptionStrategy = "option_strategy"
	colSource         = "source"
	colBackendModel   = "backend_model"
)

const (
	prefixStoreLabel  = "label_"
	prefixStoreOption = "option_"
)

// ColumnKind tags how a header column is consumed by the pipeline.
type ColumnKind int

const (
	// ColScalar columns feed the attribute definition payload.
	ColScalar ColumnKind = iota
	// ColReserved columns are structural (identity, set assignment,
	// option lists) and are consumed by dedicated steps.
	ColReserved
	// ColStoreLabel columns carry a store-scoped attribute label
	// (label_{storeCode}).
	ColStoreLabel
	// ColStoreOption columns carry store-scoped option labels
	// (option_{storeCode}).
	ColStoreOption
)

// reservedColumns never enter the attribute definition payload.
var reservedColumns = map[string]bool{
	colAttributeCode:  true,
	colAttributeSet:   true,
	colGroup:          true,
	colGroupOrder:     true,
	colSetOrder:       true,
	colOption:         true,
	colOptionOrder:    true,
	colOptionStrategy: true,
}

// Column is one classified header column.
type Column struct {
	Name      string // cleaned header name
	Index     int
	Kind      ColumnKind
	StoreCode string // set for ColStoreLabel and ColStoreOption
}

// classifyColumns tags every header column once; row processing then
// dispatches on the precomputed kind instead of re-parsing names per row.
// Duplicate header names are classified but only the first index is ever
// read through the table's header index.
func classifyColumns(header []string) []Column {
	cols := make([]Column, 0, len(header))
	for i, h := range header {
		name := csvfile.CleanHeader(h)
		col := Column{Name: name, Index: i}

		switch {
		case reservedColumns[name]:
			col.Kind = ColReserved
		case strings.HasPrefix(name, prefixStoreLabel):
			col.Kind = ColStoreLabel
			col.StoreCode = strings.TrimPrefix(name, prefixStoreLabel)
		case strings.HasPrefix(name, prefixStoreOption):
			col.Kind = ColStoreOption
			col.StoreCode = strings.TrimPrefix(name, prefixStoreOption)
		default:
			col.Kind = ColScalar
		}
		cols = append(cols, col)
	}
	return cols
}
