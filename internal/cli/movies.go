package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

func newMoviesCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "movies",
		Aliases: []string{"movie"},
		Short:   "List and edit catalog movies",
	}
	cmd.AddCommand(
		newMoviesListCmd(flags),
		newMoviesAddCmd(flags),
		newMoviesEditCmd(flags),
		newMoviesDeleteCmd(flags),
		newMoviesClearCmd(flags),
	)
	return cmd
}

func newMoviesListCmd(flags *rootFlags) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List movies, newest first",
		Long: `List prints the catalog, most recently added first. With --search only
movies whose title, genre or country contain the text are shown; case and
accents are ignored.

Example:
  marquee movies list
  marquee movies list --search francia --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.svc.ListMovies(cmd.Context(), s.sess)
			if search != "" {
				res = s.svc.SearchMovies(cmd.Context(), s.sess, search)
			}
			if err := check(res); err != nil {
				return err
			}
			if s.json {
				return printJSON(s.out, res.Value)
			}
			return printMovies(s.out, res.Value)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show movies matching this text")
	return cmd
}

// movieFlags binds the six editable movie fields to a command's flags.
type movieFlags struct {
	fields types.MovieFields
}

func (m *movieFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&m.fields.Title, "title", "", "movie title")
	fs.StringVar(&m.fields.Genre, "genre", "", "genre")
	fs.StringVar(&m.fields.Language, "language", "", "original language")
	fs.BoolVar(&m.fields.Translation, "translation", false, "a translation is available")
	fs.StringVar(&m.fields.ReleaseDate, "date", "", "release date, YYYY-MM-DD")
	fs.StringVar(&m.fields.Country, "country", "", "country of origin")
}

// apply copies the flags the user set onto base.
func (m *movieFlags) apply(fs *pflag.FlagSet, base types.MovieFields) types.MovieFields {
	set := map[string]func(){
		"title":       func() { base.Title = m.fields.Title },
		"genre":       func() { base.Genre = m.fields.Genre },
		"language":    func() { base.Language = m.fields.Language },
		"translation": func() { base.Translation = m.fields.Translation },
		"date":        func() { base.ReleaseDate = m.fields.ReleaseDate },
		"country":     func() { base.Country = m.fields.Country },
	}
	for name, fn := range set {
		if fs.Changed(name) {
			fn()
		}
	}
	return base
}

func newMoviesAddCmd(flags *rootFlags) *cobra.Command {
	var mf movieFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a movie",
		Long: `Add creates a movie owned by the signed-in user. Title and genre are
required. Requires the admin or editor role.

Example:
  marquee movies add --title "Roma" --genre Drama --language Español --date 2018-08-30 --country México`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.svc.AddMovie(cmd.Context(), s.sess, mf.fields)
			if err := check(res); err != nil {
				return err
			}
			if s.json {
				return printJSON(s.out, map[string]int64{"id": res.Value})
			}
			fmt.Fprintln(s.out, res.Message)
			return nil
		},
	}
	mf.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("genre")
	return cmd
}

func newMoviesEditCmd(flags *rootFlags) *cobra.Command {
	var mf movieFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a movie",
		Long: `Edit replaces the fields given as flags and keeps the rest.

Example:
  marquee movies edit 12 --translation --language Inglés`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			current := s.svc.GetMovie(cmd.Context(), s.sess, id)
			if err := check(current); err != nil {
				return err
			}
			res := s.svc.UpdateMovie(cmd.Context(), s.sess, id, mf.apply(cmd.Flags(), current.Value.MovieFields))
			if err := check(res); err != nil {
				return err
			}
			if s.json {
				return printJSON(s.out, res.Value)
			}
			fmt.Fprintln(s.out, res.Message)
			return nil
		},
	}
	mf.register(cmd.Flags())
	return cmd
}

func newMoviesDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a movie",
		Long:  "Delete removes one movie. Admins may delete any movie, everyone else only their own.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.svc.DeleteMovie(cmd.Context(), s.sess, id)
			if err := check(res); err != nil {
				return err
			}
			if s.json {
				return printJSON(s.out, map[string]any{"id": id, "title": res.Value})
			}
			fmt.Fprintln(s.out, res.Message)
			return nil
		},
	}
}

func newMoviesClearCmd(flags *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every movie",
		Long:  "Clear removes the whole catalog. It cannot be undone and requires --yes and the admin role.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return userError(nil, "refusing to clear the catalog without --yes")
			}
			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.svc.ClearAll(cmd.Context(), s.sess)
			if err := check(res); err != nil {
				return err
			}
			if s.json {
				return printJSON(s.out, map[string]int64{"removed": res.Value})
			}
			fmt.Fprintln(s.out, res.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError(err, "invalid id %q", arg)
	}
	return id, nil
}
