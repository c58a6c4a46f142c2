package catalog

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/marquee/internal/policy"
	"github.com/mesh-intelligence/marquee/internal/tabular"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

// ImportReport is the outcome of a bulk import. Accepted counts the movies
// written; Errors lists every rejected row.
type ImportReport struct {
	Accepted int                `json:"accepted"`
	Errors   []tabular.RowError `json:"errors"`
}

func (r ImportReport) summary() string {
	if len(r.Errors) == 0 {
		return fmt.Sprintf("imported %d movies", r.Accepted)
	}
	return fmt.Sprintf("imported %d movies, %d rows rejected", r.Accepted, len(r.Errors))
}

// ImportTable normalizes t and adds the accepted rows as one batch. In
// ModeReplace the catalog is cleared first, and only when at least one row
// was accepted.
func (s *Service) ImportTable(ctx context.Context, sess *Session, t tabular.Table, mode ImportMode) Result[ImportReport] {
	log := s.sessionLog(sess, "import_table")
	records, rowErrs := tabular.Normalize(t)
	return s.importRecords(ctx, sess, log, records, rowErrs, mode)
}

// ImportText parses semicolon-delimited bulk text and imports the accepted
// lines.
func (s *Service) ImportText(ctx context.Context, sess *Session, text string, mode ImportMode) Result[ImportReport] {
	log := s.sessionLog(sess, "import_text")
	records, rowErrs := tabular.ParseText(text)
	return s.importRecords(ctx, sess, log, records, rowErrs, mode)
}

// ImportStaged imports the session's staged upload. An empty format is
// inferred from the upload's name. The staging buffer is cleared after a
// successful import.
func (s *Service) ImportStaged(ctx context.Context, sess *Session, format Format, mode ImportMode) Result[ImportReport] {
	log := s.sessionLog(sess, "import_staged")
	if sess.Closed() {
		return fail(log, ImportReport{}, types.ErrSessionClosed)
	}
	name, data, ok := sess.Staged()
	if !ok {
		return fail(log, ImportReport{}, fmt.Errorf("%w: no upload staged", types.ErrMissingRequiredField))
	}
	if format == "" {
		f, err := FormatFromName(name)
		if err != nil {
			return fail(log, ImportReport{}, err)
		}
		format = f
	}
	log = log.With().Str("upload", name).Str("format", string(format)).Logger()

	var (
		records []tabular.Record
		rowErrs []tabular.RowError
	)
	switch format {
	case FormatCSV:
		t, err := tabular.ReadCSV(bytes.NewReader(data))
		if err != nil {
			return fail(log, ImportReport{}, err)
		}
		records, rowErrs = tabular.Normalize(t)
	case FormatJSONL:
		t, lineErrs, err := tabular.ReadJSONL(bytes.NewReader(data))
		if err != nil {
			return fail(log, ImportReport{}, fmt.Errorf("%w: %w", types.ErrMalformedRow, err))
		}
		records, rowErrs = tabular.Normalize(t)
		rowErrs = mergeRowErrors(lineErrs, rowErrs)
	case FormatText:
		records, rowErrs = tabular.ParseText(string(data))
	default:
		return fail(log, ImportReport{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
	}

	res := s.importRecords(ctx, sess, log, records, rowErrs, mode)
	if res.OK() {
		sess.ClearStaged()
	}
	return res
}

func (s *Service) importRecords(ctx context.Context, sess *Session, log zerolog.Logger, records []tabular.Record, rowErrs []tabular.RowError, mode ImportMode) Result[ImportReport] {
	report := ImportReport{Errors: rowErrs}

	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, report, err)
	}
	if !policy.CanCreateOrImport(sess.User.Role) {
		return fail(log, report, denied("importing movies"))
	}
	if mode == ModeReplace && !policy.CanReplaceAllData(sess.User.Role) {
		return fail(log, report, denied("replacing the catalog"))
	}

	if len(records) == 0 {
		if mode == ModeReplace {
			return fail(log, report, fmt.Errorf("%w: no valid rows, catalog left unchanged", types.ErrMalformedRow))
		}
		return succeeded(report, "%s", report.summary())
	}

	if mode == ModeReplace {
		n, err := movies.Clear(ctx)
		if err != nil {
			return fail(log, report, err)
		}
		log.Info().Int64("removed", n).Msg("catalog cleared for import")
	}

	batch := make([]types.MovieFields, len(records))
	for i, r := range records {
		batch[i] = r.Fields
	}
	ids, err := movies.AddBatch(ctx, batch, sess.User.Username)
	if err != nil {
		return fail(log, report, err)
	}
	report.Accepted = len(ids)

	log.Info().
		Str("mode", mode.String()).
		Int("accepted", report.Accepted).
		Int("rejected", len(report.Errors)).
		Msg("movies imported")
	return succeeded(report, "%s", report.summary())
}

// mergeRowErrors combines two row-ordered error lists into one.
func mergeRowErrors(a, b []tabular.RowError) []tabular.RowError {
	out := make([]tabular.RowError, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Row <= b[j].Row {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
