package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mesh-intelligence/marquee/internal/catalog"
	"github.com/mesh-intelligence/marquee/internal/config"
	"github.com/mesh-intelligence/marquee/internal/logger"
	"github.com/mesh-intelligence/marquee/internal/paths"
	"github.com/mesh-intelligence/marquee/pkg/sqlite"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

// Test seams for the password prompt.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// storage is an attached backend plus the settings it was opened with.
type storage struct {
	backend  types.Backend
	settings config.Settings
	dataDir  string
	log      zerolog.Logger
}

// openStorage loads configuration, resolves the data directory and attaches
// the backend. The caller must call close.
func (f *rootFlags) openStorage(cmd *cobra.Command) (*storage, error) {
	configDir, err := f.resolveConfigDir()
	if err != nil {
		return nil, sysError(err, "resolve config dir: %s", err)
	}
	settings, err := config.Load(configDir)
	if err != nil {
		return nil, sysError(err, "load config: %s", err)
	}
	dataDir, err := paths.ResolveDataDir(f.dataDir, settings.DataDir, configDir)
	if err != nil {
		return nil, sysError(err, "resolve data dir: %s", err)
	}

	opts := settings.Log
	opts.Out = cmd.ErrOrStderr()
	log := logger.New(opts)

	backend := sqlite.NewBackend(log)
	if err := backend.Attach(settings.Storage(dataDir)); err != nil {
		return nil, sysError(err, "attach storage: %s", err)
	}
	return &storage{backend: backend, settings: settings, dataDir: dataDir, log: log}, nil
}

func (s *storage) close() {
	if err := s.backend.Detach(); err != nil {
		s.log.Warn().Err(err).Msg("detach failed")
	}
}

// signedIn is an open catalog session for one command.
type signedIn struct {
	*storage
	svc  *catalog.Service
	sess *catalog.Session
	out  io.Writer
	json bool
}

// signIn opens storage and logs in with the configured credentials. The
// caller must call close.
func (f *rootFlags) signIn(cmd *cobra.Command) (*signedIn, error) {
	username, password, err := f.credentials(cmd)
	if err != nil {
		return nil, err
	}

	st, err := f.openStorage(cmd)
	if err != nil {
		return nil, err
	}
	svc := catalog.NewService(st.backend, st.log)
	sess, ok := svc.Login(cmd.Context(), username, password)
	if !ok {
		st.close()
		return nil, userError(types.ErrPermissionDenied, "login failed for %q", username)
	}
	return &signedIn{storage: st, svc: svc, sess: sess, out: cmd.OutOrStdout(), json: f.jsonMode}, nil
}

func (s *signedIn) close() {
	s.svc.Logout(s.sess)
	s.storage.close()
}

// credentials returns the username and password from flags, then the
// environment, prompting for the password on a terminal.
func (f *rootFlags) credentials(cmd *cobra.Command) (string, string, error) {
	username := firstNonEmpty(f.user, os.Getenv(envUser))
	if username == "" {
		return "", "", userError(nil, "no user given: use --user or set %s", envUser)
	}
	password := firstNonEmpty(f.password, os.Getenv(envPassword))
	if password != "" {
		return username, password, nil
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", "", userError(nil, "no password given: use --password or set %s", envPassword)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", username)
	raw, err := readPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", "", sysError(err, "read password: %s", err)
	}
	return username, string(raw), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
