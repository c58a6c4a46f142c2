package tabular

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// textFields is the fixed field count of a bulk text line:
// title;genre;language;translation;date;country
const textFields = 6

// ParseText parses newline-delimited bulk text. Blank lines are skipped;
// row numbers are source line numbers. Fields are kept as written apart from
// surrounding whitespace, with blank language and country read as
// types.UnknownValue.
func ParseText(text string) ([]Record, []RowError) {
	var (
		records []Record
		errs    []RowError
	)
	text = strings.TrimPrefix(text, string(utf8BOM))
	for i, line := range strings.Split(text, "\n") {
		n := i + 1
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, ";")
		if len(parts) != textFields {
			errs = append(errs, RowError{
				Row:    n,
				Reason: fmt.Sprintf("expected %d fields, got %d", textFields, len(parts)),
				Err:    types.ErrMalformedRow,
			})
			continue
		}
		for j := range parts {
			parts[j] = strings.TrimSpace(parts[j])
		}

		fields := types.MovieFields{
			Title:       parts[0],
			Genre:       parts[1],
			Language:    orUnknown(parts[2]),
			Translation: types.ParseTranslation(parts[3]),
			ReleaseDate: parts[4],
			Country:     orUnknown(parts[5]),
		}
		if reason := missingReason(fields); reason != "" {
			errs = append(errs, RowError{Row: n, Reason: reason, Err: types.ErrMissingRequiredField})
			continue
		}
		records = append(records, Record{Row: n, Fields: fields})
	}
	return records, errs
}
