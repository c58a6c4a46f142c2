// Package cli implements the marquee command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/marquee/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Environment variables holding login credentials.
const (
	envUser     = "MARQUEE_USER"
	envPassword = "MARQUEE_PASSWORD"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	user      string
	password  string
}

// NewRootCmd creates the top-level "marquee" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "marquee",
		Short: "Administer a movie catalog",
		Long: `Marquee manages a movie catalog and its user accounts in an embedded
SQLite database. Every command except init and version signs in with
--user/--password or MARQUEE_USER/MARQUEE_PASSWORD.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .marquee)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .marquee-db)")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVarP(&flags.user, "user", "u", "", "username to sign in as (env "+envUser+")")
	pf.StringVar(&flags.password, "password", "", "password (env "+envPassword+"; prompted when omitted on a terminal)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(flags))
	root.AddCommand(newWhoamiCmd(flags))
	root.AddCommand(newStatsCmd(flags))
	root.AddCommand(newMoviesCmd(flags))
	root.AddCommand(newImportCmd(flags))
	root.AddCommand(newExportCmd(flags))
	root.AddCommand(newUsersCmd(flags))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

func (f *rootFlags) resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(f.configDir)
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	msg  string
	err  error
}

func (e *exitError) Error() string { return e.msg }

func (e *exitError) Unwrap() error { return e.err }

func userError(err error, format string, args ...any) error {
	return &exitError{code: exitUserError, msg: fmt.Sprintf(format, args...), err: err}
}

func sysError(err error, format string, args ...any) error {
	return &exitError{code: exitSysError, msg: fmt.Sprintf(format, args...), err: err}
}

// exitCode maps a command error to an exit code. Errors cobra raises for
// bad flags or arguments are user errors.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
