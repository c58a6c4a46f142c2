package tabular

import (
	"strings"
	"time"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// Record is an accepted row. Row is the 1-based source row number.
type Record struct {
	Row    int
	Fields types.MovieFields
}

// dateLayouts are tried in order when normalizing release dates. Day comes
// before month in the slash and dash forms.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"2/1/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
}

// Normalize maps each row of t onto the canonical movie fields.
//
// Columns are assigned by MatchHeader; when several columns map to the same
// field the last one wins. A row is accepted when its title and genre are
// non-blank. Absent or blank language and country become
// types.UnknownValue; an absent translation column means "No".
func Normalize(t Table) ([]Record, []RowError) {
	cols := columnMap(t.Header)

	var (
		records []Record
		errs    []RowError
	)
	for i, row := range t.Rows {
		n := t.rowNumber(i)
		cell := func(f Field) string {
			idx, ok := cols[f]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		fields := types.MovieFields{
			Title:       cell(FieldTitle),
			Genre:       cell(FieldGenre),
			Language:    orUnknown(cell(FieldLanguage)),
			Translation: types.ParseTranslation(cell(FieldTranslation)),
			ReleaseDate: NormalizeDate(cell(FieldDate)),
			Country:     orUnknown(cell(FieldCountry)),
		}
		if reason := missingReason(fields); reason != "" {
			errs = append(errs, RowError{Row: n, Reason: reason, Err: types.ErrMissingRequiredField})
			continue
		}
		records = append(records, Record{Row: n, Fields: fields})
	}
	return records, errs
}

// NormalizeDate returns s as an ISO 8601 date when it parses with one of the
// known layouts. Anything else, including a bare year, is kept as given.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return types.UnknownValue
	}
	return s
}

func missingReason(f types.MovieFields) string {
	switch {
	case f.Title == "" && f.Genre == "":
		return "missing title and genre"
	case f.Title == "":
		return "missing title"
	case f.Genre == "":
		return "missing genre"
	}
	return ""
}
