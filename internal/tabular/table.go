// Package tabular turns external tables into validated movie field sets.
//
// Input arrives as CSV with arbitrary headers, as semicolon-delimited text
// with a fixed field order, or as JSON lines. Normalization is pure: it never
// touches storage. Rejected rows are returned as RowErrors next to the
// accepted records, and a bad row never aborts the rest.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// utf8BOM is stripped from the start of every input format; spreadsheet
// and editor exports often carry it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a header row plus data rows. Rows may be ragged.
type Table struct {
	Header []string
	Rows   [][]string
	// Index holds the source row number of each entry in Rows. When nil,
	// rows are numbered from 1.
	Index []int
}

// rowNumber returns the 1-based source number of Rows[i].
func (t Table) rowNumber(i int) int {
	if i < len(t.Index) {
		return t.Index[i]
	}
	return i + 1
}

// RowError reports why a row was rejected. Row is 1-based.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func (e RowError) Unwrap() error { return e.Err }

// ReadCSV reads a CSV table whose first record is the header. The delimiter
// is sniffed from the header line: comma, semicolon or tab.
func ReadCSV(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("reading csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", types.ErrMalformedRow, err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%w: no header row", types.ErrMalformedRow)
	}
	return Table{Header: records[0], Rows: records[1:]}, nil
}

// sniffDelimiter picks the candidate that occurs most often outside quotes
// on the first line. Ties and no match fall back to a comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	counts := map[rune]int{}
	inQuotes := false
	for _, c := range string(line) {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case !inQuotes && (c == ',' || c == ';' || c == '\t'):
			counts[c]++
		}
	}
	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
