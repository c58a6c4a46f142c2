package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mesh-intelligence/marquee/internal/catalog"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

// check turns a failed Result into a command error. Storage faults exit
// with exitSysError, everything else with exitUserError.
func check[T any](res catalog.Result[T]) error {
	if res.OK() {
		return nil
	}
	if errors.Is(res.Err, types.ErrStorageUnavailable) {
		return sysError(res.Err, "%s", res.Message)
	}
	return userError(res.Err, "%s", res.Message)
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(err, "marshal output: %s", err)
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printMovies(w io.Writer, movies []types.Movie) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tGENRE\tLANGUAGE\tTRANSLATION\tDATE\tCOUNTRY\tOWNER")
	for _, m := range movies {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Title, m.Genre, m.Language, types.TranslationLabel(m.Translation),
			m.ReleaseDate, m.Country, m.CreatedBy)
	}
	return tw.Flush()
}
