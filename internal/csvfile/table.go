package csvfile

import (
	"fmt"
	"strings"
)

// ShapeError reports a data row whose column count does not match the header.
// Line is the 1-based data line number (the first row after the header is
// line 1).
type ShapeError struct {
	Line int
	Got  int
	Want int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("line %d: row has %d columns, expected %d", e.Line, e.Got, e.Want)
}

// HeaderIndex maps cleaned column names to their position in a row.
// On duplicate column names the first occurrence wins.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from the raw header row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := CleanHeader(h)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

// Row is one non-blank data row with its 1-based data line number.
type Row struct {
	Line  int
	Cells []string
}

// Table is a parsed, shape-validated CSV grid.
type Table struct {
	Header []string
	Index  HeaderIndex

	rows []Row
}

// Load reads the file at path and validates its shape. Validation rules, in
// order: the file must not be empty; the header must contain at least one
// non-blank cell; at least one data row must follow the header; every
// non-blank data row must have the header's column count. Entirely blank
// rows are dropped silently.
func Load(path string) (*Table, error) {
	records, err := Read(path)
	if err != nil {
		return nil, err
	}
	return New(records)
}

// New validates raw records into a Table. See Load for the rules.
func New(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	header := records[0]
	if isBlank(header) {
		return nil, fmt.Errorf("csv header row is blank")
	}

	t := &Table{
		Header: header,
		Index:  MakeHeaderIndex(header),
	}

	want := len(header)
	for i, rec := range records[1:] {
		line := i + 1
		if isBlank(rec) {
			continue
		}
		if len(rec) != want {
			return nil, &ShapeError{Line: line, Got: len(rec), Want: want}
		}
		t.rows = append(t.rows, Row{Line: line, Cells: rec})
	}

	if len(t.rows) == 0 {
		return nil, fmt.Errorf("csv file has no data rows")
	}
	return t, nil
}

// Rows returns the non-blank data rows in file order.
func (t *Table) Rows() []Row {
	return t.rows
}

// Cell returns the cleaned value of the named column in row, or "" when the
// column is absent from the header or the cell is missing. Column lookup is
// case-insensitive and whitespace-trimmed.
func (t *Table) Cell(row Row, name string) string {
	pos, ok := t.Index[CleanHeader(name)]
	if !ok || pos >= len(row.Cells) {
		return ""
	}
	return CleanCell(row.Cells[pos])
}

// CellAt returns the cleaned value at a known column index, or "" when the
// row is short.
func (t *Table) CellAt(row Row, pos int) string {
	if pos < 0 || pos >= len(row.Cells) {
		return ""
	}
	return CleanCell(row.Cells[pos])
}

// HasColumn reports whether the named column exists in the header.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Index[CleanHeader(name)]
	return ok
}

// ParseList splits a semicolon-delimited cell into its non-empty trimmed
// parts, preserving order.
func ParseList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(cell, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseListRaw splits a semicolon-delimited cell into trimmed parts without
// dropping empties, preserving positional alignment with a sibling list.
func ParseListRaw(cell string) []string {
	parts := strings.Split(cell, ";")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
