package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

var (
	// marqueeBin is the binary built once by TestMain.
	marqueeBin string
	buildErr   error
)

// TestMain builds the marquee binary once before running tests.
func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "marquee-test-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	marqueeBin = filepath.Join(tmpDir, "marquee")

	cmd := exec.Command("go", "build", "-o", marqueeBin, ".")
	if out, err := cmd.CombinedOutput(); err != nil {
		buildErr = fmt.Errorf("%w: %s", err, out)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// testEnv is an isolated config and data directory pair.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

type cmdResult struct {
	stdout   string
	stderr   string
	exitCode int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, buildErr, "building marquee")
	dir := t.TempDir()
	return &testEnv{
		t:         t,
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
	}
}

// run executes marquee signed in as user with the given password.
func (e *testEnv) run(stdin, user, password string, args ...string) cmdResult {
	e.t.Helper()
	all := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	cmd := exec.Command(marqueeBin, all...)
	cmd.Env = append(os.Environ(),
		"MARQUEE_USER="+user,
		"MARQUEE_PASSWORD="+password,
		"MARQUEE_LOG_LEVEL=error",
	)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	code := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		require.True(e.t, errors.As(err, &exitErr), "running marquee: %v", err)
		code = exitErr.ExitCode()
	}
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), exitCode: code}
}

func (e *testEnv) asAdmin(args ...string) cmdResult {
	e.t.Helper()
	return e.run("", "admin", types.DefaultAdminPassword, args...)
}

func (e *testEnv) mustRun(args ...string) cmdResult {
	e.t.Helper()
	res := e.asAdmin(args...)
	require.Zero(e.t, res.exitCode, "marquee %v\nstdout: %s\nstderr: %s", args, res.stdout, res.stderr)
	return res
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "parsing %q", s)
	return v
}

func TestBinary_InitCreatesConfigAndDatabase(t *testing.T) {
	env := newTestEnv(t)
	res := env.mustRun("init")

	assert.Contains(t, res.stdout, "marquee initialized")
	assert.FileExists(t, filepath.Join(env.configDir, "config.yaml"))
	assert.DirExists(t, env.dataDir)
}

func TestBinary_MovieLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")

	before := parseJSON[[]types.Movie](t, env.mustRun("--json", "movies", "list").stdout)

	added := parseJSON[map[string]int64](t, env.mustRun("--json", "movies", "add",
		"--title", "Roma", "--genre", "Drama", "--country", "México").stdout)
	id := added["id"]
	require.Positive(t, id)

	found := parseJSON[[]types.Movie](t, env.mustRun("--json", "movies", "list", "--search", "mexico").stdout)
	require.Len(t, found, 1)
	assert.Equal(t, "Roma", found[0].Title)
	assert.Equal(t, "admin", found[0].CreatedBy)

	env.mustRun("movies", "edit", fmt.Sprint(id), "--genre", "Drama histórico")
	env.mustRun("movies", "delete", fmt.Sprint(id))

	after := parseJSON[[]types.Movie](t, env.mustRun("--json", "movies", "list").stdout)
	assert.Len(t, after, len(before))
}

func TestBinary_ExitCodes(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")

	tests := []struct {
		name     string
		user     string
		password string
		args     []string
		want     int
	}{
		{"wrong password", "admin", "nope", []string{"movies", "list"}, 1},
		{"viewer cannot add", "viewer", types.DefaultViewerPassword, []string{"movies", "add", "--title", "x", "--genre", "y"}, 1},
		{"missing movie", "admin", types.DefaultAdminPassword, []string{"movies", "delete", "99999"}, 1},
		{"unknown command", "admin", types.DefaultAdminPassword, []string{"rewind"}, 1},
		{"viewer can list", "viewer", types.DefaultViewerPassword, []string{"movies", "list"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.run("", tt.user, tt.password, tt.args...)
			assert.Equal(t, tt.want, res.exitCode, "stderr: %s", res.stderr)
			if tt.want != 0 {
				assert.Contains(t, res.stderr, "Error:")
			}
		})
	}
}

func TestBinary_ImportExportThroughPipes(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")
	env.mustRun("movies", "clear", "--yes")

	csv := "nombre,genero,idioma,traduccion,fecha,pais\n" +
		"Dune,Sci-Fi,Inglés,si,2021-10-22,USA\n" +
		",Drama,,,,\n" +
		"Roma,Drama,Español,no,30/08/2018,México\n"
	res := env.run(csv, "admin", types.DefaultAdminPassword, "import", "-", "--format", "csv")
	require.Zero(t, res.exitCode, res.stderr)
	assert.Contains(t, res.stdout, "imported 2 movies")
	assert.Contains(t, res.stderr, "row 2")

	out := env.mustRun("export", "-", "--format", "jsonl").stdout
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, out, `"nombre":"Roma"`)
	assert.Contains(t, out, `"fecha":"2018-08-30"`)
}
