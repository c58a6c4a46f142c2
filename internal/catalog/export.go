package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/mesh-intelligence/marquee/internal/tabular"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

// ExportMovies writes the whole catalog to w as CSV or JSON lines and
// returns the number of movies written.
func (s *Service) ExportMovies(ctx context.Context, sess *Session, w io.Writer, format Format) Result[int] {
	log := s.sessionLog(sess, "export_movies")
	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, 0, err)
	}

	var write func(io.Writer, []types.Movie) error
	switch format {
	case FormatCSV, "":
		write = tabular.WriteCSV
	case FormatJSONL:
		write = tabular.WriteJSONL
	default:
		return fail(log, 0, fmt.Errorf("%w: cannot export %q", ErrUnsupportedFormat, format))
	}

	all, err := movies.List(ctx)
	if err != nil {
		return fail(log, 0, err)
	}
	if err := write(w, all); err != nil {
		return fail(log, 0, fmt.Errorf("writing export: %w", err))
	}
	log.Debug().Int("movies", len(all)).Msg("catalog exported")
	return succeeded(len(all), "exported %d movies", len(all))
}
