package csvfile

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{" Attribute_Code ", "LABEL", "label", "option"})

	if got := idx["attribute_code"]; got != 0 {
		t.Errorf("attribute_code index = %d, want 0", got)
	}
	// Duplicate column names keep the first index.
	if got := idx["label"]; got != 1 {
		t.Errorf("label index = %d, want 1", got)
	}
	if got := idx["option"]; got != 3 {
		t.Errorf("option index = %d, want 3", got)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		records [][]string
		wantErr string
	}{
		{
			name:    "empty file",
			records: nil,
			wantErr: "csv file is empty",
		},
		{
			name:    "blank header",
			records: [][]string{{" ", "\t", ""}},
			wantErr: "csv header row is blank",
		},
		{
			name:    "header only",
			records: [][]string{{"attribute_code", "label"}},
			wantErr: "csv file has no data rows",
		},
		{
			name: "blank rows only",
			records: [][]string{
				{"attribute_code", "label"},
				{"", " "},
				{"\t", ""},
			},
			wantErr: "csv file has no data rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.records)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNew_ShapeError(t *testing.T) {
	records := [][]string{
		{"attribute_code", "label", "input", "option"},
		{"color", "Color", "select", "Red"},
		{"", "", "", ""}, // blank, skipped silently
		{"size", "Size", "select"},
	}

	_, err := New(records)
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected *ShapeError, got %v", err)
	}
	if shapeErr.Line != 3 {
		t.Errorf("Line = %d, want 3", shapeErr.Line)
	}
	if shapeErr.Got != 3 || shapeErr.Want != 4 {
		t.Errorf("Got/Want = %d/%d, want 3/4", shapeErr.Got, shapeErr.Want)
	}
}

func TestTable_RowsSkipBlank(t *testing.T) {
	records := [][]string{
		{"attribute_code", "label"},
		{"color", "Color"},
		{" ", ""},
		{"size", "Size"},
	}

	tbl, err := New(records)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rows := tbl.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Line != 1 || rows[1].Line != 3 {
		t.Errorf("lines = %d, %d; want 1, 3", rows[0].Line, rows[1].Line)
	}
}

func TestTable_Cell(t *testing.T) {
	tbl, err := New([][]string{
		{"Attribute_Code", " Label "},
		{" color ", `="Color"`},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	row := tbl.Rows()[0]

	if got := tbl.Cell(row, "attribute_code"); got != "color" {
		t.Errorf("Cell(attribute_code) = %q, want %q", got, "color")
	}
	if got := tbl.Cell(row, "LABEL"); got != "Color" {
		t.Errorf("Cell(LABEL) = %q, want %q", got, "Color")
	}
	if got := tbl.Cell(row, "missing"); got != "" {
		t.Errorf("Cell(missing) = %q, want empty", got)
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want []string
	}{
		{"simple", "Red;Green;Blue", []string{"Red", "Green", "Blue"}},
		{"trims parts", " Red ; Green ", []string{"Red", "Green"}},
		{"drops empties", "Red;;Blue;", []string{"Red", "Blue"}},
		{"empty cell", "  ", nil},
		{"single value", "Red", []string{"Red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseList(tt.cell)); diff != "" {
				t.Errorf("ParseList(%q) mismatch (-want +got):\n%s", tt.cell, diff)
			}
		})
	}
}

func TestParseListRaw_KeepsEmpties(t *testing.T) {
	want := []string{"Red", "", "Blue"}
	if diff := cmp.Diff(want, ParseListRaw("Red;;Blue")); diff != "" {
		t.Errorf("ParseListRaw mismatch (-want +got):\n%s", diff)
	}
}
