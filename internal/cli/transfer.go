package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/marquee/internal/catalog"
	"github.com/mesh-intelligence/marquee/internal/tabular"
)

// stdioName selects stdin or stdout in place of a file.
const stdioName = "-"

func newImportCmd(flags *rootFlags) *cobra.Command {
	var (
		format  string
		replace bool
		yes     bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import movies from CSV, text or JSON lines",
		Long: `Import reads a table of movies and adds every valid row. Column headers
are matched loosely (título, genre, país, ...). Text files hold one movie per
line as title;genre;language;translation;date;country. Rejected rows are
listed; the rest are still imported.

The format is taken from the file extension unless --format is given. Use
- to read standard input. --replace clears the catalog first and needs
--yes and the admin role.

Example:
  marquee import peliculas.csv
  marquee import --format text - < lista.txt
  marquee import nuevas.jsonl --replace --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			f, err := parseFormatFlag(format, name, false)
			if err != nil {
				return err
			}
			mode := catalog.ModeAppend
			if replace {
				if !yes {
					return userError(nil, "refusing to replace the catalog without --yes")
				}
				mode = catalog.ModeReplace
			}

			var in io.Reader = cmd.InOrStdin()
			if name != stdioName {
				file, err := os.Open(name)
				if err != nil {
					return userError(err, "open %s: %s", name, err)
				}
				defer file.Close()
				in = file
			}

			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.sess.Stage(name, in); err != nil {
				return userError(err, "read %s: %s", name, err)
			}
			res := s.svc.ImportStaged(cmd.Context(), s.sess, f, mode)
			if s.json {
				if err := printJSON(s.out, res.Value); err != nil {
					return err
				}
				return check(res)
			}
			printRowErrors(cmd.ErrOrStderr(), res.Value.Errors)
			if err := check(res); err != nil {
				return err
			}
			fmt.Fprintln(s.out, res.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv, text or jsonl (default: from the file extension)")
	cmd.Flags().BoolVar(&replace, "replace", false, "clear the catalog before importing")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm --replace")
	return cmd
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the catalog as CSV or JSON lines",
		Long: `Export writes every movie to a file, replacing it atomically. Use - to
write to standard output.

Example:
  marquee export peliculas.csv
  marquee export --format jsonl - | jq .nombre`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			f, err := parseFormatFlag(format, name, true)
			if err != nil {
				return err
			}

			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			var res catalog.Result[int]
			if name == stdioName {
				res = s.svc.ExportMovies(cmd.Context(), s.sess, s.out, f)
				return check(res)
			}
			werr := tabular.WriteFileAtomic(name, func(w io.Writer) error {
				res = s.svc.ExportMovies(cmd.Context(), s.sess, w, f)
				return check(res)
			})
			if werr != nil {
				if res.Err != nil {
					return werr
				}
				return sysError(werr, "write %s: %s", name, werr)
			}
			if s.json {
				return printJSON(s.out, map[string]any{"file": name, "movies": res.Value})
			}
			fmt.Fprintf(s.out, "%s to %s\n", res.Message, name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or jsonl (default: from the file extension, csv for -)")
	return cmd
}

// parseFormatFlag resolves --format, falling back to the file extension.
// An empty result lets the catalog infer the format itself.
func parseFormatFlag(flag, name string, export bool) (catalog.Format, error) {
	if flag != "" {
		f, err := catalog.ParseFormat(flag)
		if err != nil {
			return "", userError(err, "%s", err)
		}
		return f, nil
	}
	if name == stdioName {
		if export {
			return catalog.FormatCSV, nil
		}
		return "", userError(nil, "--format is required when reading standard input")
	}
	f, err := catalog.FormatFromName(name)
	if err != nil {
		return "", userError(err, "%s; use --format", err)
	}
	return f, nil
}

func printRowErrors(w io.Writer, errs []tabular.RowError) {
	for _, e := range errs {
		fmt.Fprintf(w, "skipped %s\n", e)
	}
}
