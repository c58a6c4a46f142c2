package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newWhoamiCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.svc.CurrentUser(cmd.Context(), s.sess)
			if err := check(res); err != nil {
				return err
			}
			if s.json {
				return printJSON(s.out, res.Value)
			}
			u := res.Value
			fmt.Fprintf(s.out, "%s (%s)\nrole: %s\n", u.Username, u.DisplayName, u.Role)
			return nil
		},
	}
}

func newStatsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals",
		Long:  "Stats prints the number of movies, genres, languages and translations, with counts per genre and per country.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.svc.Stats(cmd.Context(), s.sess)
			if err := check(res); err != nil {
				return err
			}
			st := res.Value
			if s.json {
				return printJSON(s.out, st)
			}

			tw := newTable(s.out)
			fmt.Fprintf(tw, "movies\t%s\n", humanize.Comma(int64(st.Total)))
			fmt.Fprintf(tw, "genres\t%s\n", humanize.Comma(int64(st.Genres)))
			fmt.Fprintf(tw, "languages\t%s\n", humanize.Comma(int64(st.Languages)))
			fmt.Fprintf(tw, "translated\t%s\n", humanize.Comma(int64(st.Translated)))
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "GENRE\tMOVIES")
			for _, c := range st.ByGenre {
				fmt.Fprintf(tw, "%s\t%d\n", c.Label, c.Count)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "COUNTRY\tMOVIES")
			for _, c := range st.ByCountry {
				fmt.Fprintf(tw, "%s\t%d\n", c.Label, c.Count)
			}
			return tw.Flush()
		},
	}
}
