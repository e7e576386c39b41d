// Package csvfile reads and validates the attribute import grid.
//
// Files arrive from spreadsheet exports, so the reader tolerates the usual
// artifacts: UTF-8 BOM from Windows tools, invalid byte sequences, Excel
// formula-wrapped cells (="value"), and ragged quoting. Shape validation is
// strict: every non-blank data row must match the header's column count.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// MaxFileSize is the maximum allowed CSV file size (20MB). Attribute import
// files are small; anything larger is almost certainly the wrong file.
var MaxFileSize int64 = 20 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses the CSV file at path into raw records. The grid is returned
// as-is, including the header row; use Load for a validated Table.
func Read(path string) ([][]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("csv file %s exceeds %dMB limit", path, MaxFileSize/(1024*1024))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv file: %w", err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // shape is validated separately with line numbers
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the Unicode replacement
// character. Returns the input unchanged when it is already valid.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			out = utf8.AppendRune(out, utf8.RuneError)
			data = data[1:]
			continue
		}
		out = append(out, data[:size]...)
		data = data[size:]
	}
	return out
}

// CleanCell normalizes a raw cell value: trims whitespace and unwraps the
// Excel formula format ="value" that some exports produce.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
		s = strings.TrimSpace(s)
	}
	return s
}

// CleanHeader normalizes a header cell for lookup: CleanCell plus lowercasing.
func CleanHeader(s string) string {
	return strings.ToLower(CleanCell(s))
}
