package importer

import (
	"strconv"
	"strings"

	"github.com/catalogkit/attrimport/internal/csvfile"
)

// rowView is the logical attribute-row view over one CSV data row. All
// state derived from it is rebuilt per row; nothing survives across rows.
type rowView struct {
	tbl  *csvfile.Table
	row  csvfile.Row
	cols []Column
}

func (v rowView) cell(name string) string {
	return v.tbl.Cell(v.row, name)
}

func (v rowView) code() string {
	return v.cell(colAttributeCode)
}

func (v rowView) line() int {
	return v.row.Line
}

// scalarFields collects the non-empty payload columns: every ColScalar
// column with a non-empty cell, keyed by cleaned header name. Blank cells
// are omitted so an update row never clobbers stored fields it does not
// mention.
func (v rowView) scalarFields() map[string]string {
	fields := make(map[string]string)
	for _, col := range v.cols {
		if col.Kind != ColScalar {
			continue
		}
		if _, ok := fields[col.Name]; ok {
			continue // duplicate header, first occurrence wins
		}
		val := v.tbl.CellAt(v.row, col.Index)
		if val == "" {
			continue
		}
		fields[col.Name] = val
	}
	return fields
}

// storeLabelCells returns the non-empty label_{storeCode} cells in column
// order.
func (v rowView) storeLabelCells() []scopedCell {
	return v.scopedCells(ColStoreLabel)
}

// storeOptionCells returns the non-empty option_{storeCode} cells in column
// order.
func (v rowView) storeOptionCells() []scopedCell {
	return v.scopedCells(ColStoreOption)
}

type scopedCell struct {
	StoreCode string
	Value     string
}

func (v rowView) scopedCells(kind ColumnKind) []scopedCell {
	var out []scopedCell
	for _, col := range v.cols {
		if col.Kind != kind {
			continue
		}
		val := v.tbl.CellAt(v.row, col.Index)
		if val == "" {
			continue
		}
		out = append(out, scopedCell{StoreCode: col.StoreCode, Value: val})
	}
	return out
}

// allDigits reports whether s is a non-empty run of ASCII digits, i.e. a
// non-negative integer with no sign or separators.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseOrder parses an all-digit order value. Anything else is ignored.
func parseOrder(s string) (int, bool) {
	if !allDigits(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// joinApplyTo converts the semicolon-delimited apply_to cell into the
// comma-joined storage format, de-duplicating case-insensitively while
// keeping first occurrences.
func joinApplyTo(cell string) string {
	parts := csvfile.ParseList(cell)
	if len(parts) == 0 {
		return ""
	}
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return strings.Join(out, ",")
}
