package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

func newUsersCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage user accounts",
	}
	cmd.AddCommand(
		newUsersListCmd(flags),
		newUsersAddCmd(flags),
		newUsersUpdateCmd(flags),
		newUsersPasswdCmd(flags),
	)
	return cmd
}

func newUsersListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.svc.ListUsers(cmd.Context(), s.sess)
			if err := check(res); err != nil {
				return err
			}
			if s.json {
				return printJSON(s.out, res.Value)
			}
			tw := newTable(s.out)
			fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tROLE\tACTIVE\tCREATED")
			for _, u := range res.Value {
				created := "-"
				if !u.CreatedAt.IsZero() {
					created = humanize.Time(u.CreatedAt)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.DisplayName, u.Role, u.Active, created)
			}
			return tw.Flush()
		},
	}
}

func newUsersAddCmd(flags *rootFlags) *cobra.Command {
	var (
		nu   types.NewUser
		role string
	)
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account (admin only)",
		Long: `Add creates an account. The role is admin, editor or viewer and defaults
to viewer.

Example:
  marquee users add ana --name "Ana Ruiz" --role editor --new-password s3cret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := types.ParseRole(role)
			if err != nil {
				return userError(err, "%s", err)
			}
			nu.Username = args[0]
			nu.Role = r

			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.svc.CreateUser(cmd.Context(), s.sess, nu)
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
	cmd.Flags().StringVar(&nu.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(types.RoleViewer), "admin, editor or viewer")
	cmd.Flags().StringVar(&nu.Password, "new-password", "", "password for the new account (required)")
	_ = cmd.MarkFlagRequired("new-password")
	return cmd
}

func newUsersUpdateCmd(flags *rootFlags) *cobra.Command {
	var (
		username, name, role string
		active               bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an account (admin only)",
		Long: `Update changes the fields given as flags and keeps the rest. The last
active admin cannot be demoted or deactivated.

Example:
  marquee users update 3 --role editor
  marquee users update 3 --active=false`,
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

			current, err := findUser(cmd, s, id)
			if err != nil {
				return err
			}
			uu := types.UserUpdate{
				Username:    current.Username,
				DisplayName: current.DisplayName,
				Role:        current.Role,
				Active:      current.Active,
			}
			fs := cmd.Flags()
			if fs.Changed("username") {
				uu.Username = username
			}
			if fs.Changed("name") {
				uu.DisplayName = name
			}
			if fs.Changed("role") {
				r, err := types.ParseRole(role)
				if err != nil {
					return userError(err, "%s", err)
				}
				uu.Role = r
			}
			if fs.Changed("active") {
				uu.Active = active
			}

			res := s.svc.UpdateUser(cmd.Context(), s.sess, id, uu)
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
	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", "", "admin, editor or viewer")
	cmd.Flags().BoolVar(&active, "active", true, "whether the account may sign in")
	return cmd
}

// findUser looks an account up through the admin listing.
func findUser(cmd *cobra.Command, s *signedIn, id int64) (types.User, error) {
	res := s.svc.ListUsers(cmd.Context(), s.sess)
	if err := check(res); err != nil {
		return types.User{}, err
	}
	for _, u := range res.Value {
		if u.ID == id {
			return u, nil
		}
	}
	return types.User{}, userError(types.ErrNotFound, "user %d: %s", id, types.ErrNotFound)
}

func newUsersPasswdCmd(flags *rootFlags) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd [id]",
		Short: "Change a password",
		Long: `Passwd sets a new password. Without an id it changes the signed-in
user's own password; admins may give any id. The new password is read from
--new-password or prompted for on a terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}
			s, err := flags.signIn(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if id == 0 {
				id = s.sess.User.ID
			}

			if password == "" {
				password, err = promptNewPassword(cmd)
				if err != nil {
					return err
				}
			}
			res := s.svc.SetPassword(cmd.Context(), s.sess, id, password)
			if err := check(res); err != nil {
				return err
			}
			if s.json {
				return printJSON(s.out, map[string]any{"id": id, "changed": true})
			}
			fmt.Fprintln(s.out, res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "new-password", "", "the new password")
	return cmd
}

func promptNewPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", userError(nil, "no new password given: use --new-password")
	}
	read := func(prompt string) (string, error) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		raw, err := readPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", sysError(err, "read password: %s", err)
		}
		return string(raw), nil
	}
	first, err := read("New password: ")
	if err != nil {
		return "", err
	}
	second, err := read("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", userError(nil, "passwords do not match")
	}
	return first, nil
}
