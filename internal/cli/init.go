package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/marquee/internal/config"
	"github.com/mesh-intelligence/marquee/internal/paths"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize marquee storage",
		Long: `Create the configuration and data directories, write config.yaml if it
is missing, then create or migrate the database and seed it on first run.
Running init again is harmless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}
}

func runInit(cmd *cobra.Command, flags *rootFlags) error {
	configDir, err := flags.resolveConfigDir()
	if err != nil {
		return sysError(err, "resolve config dir: %s", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError(err, "create config directory: %s", err)
	}

	// A data dir given on the command line is recorded so later commands
	// find the same database without the flag.
	recorded := ""
	if flags.dataDir != "" {
		recorded, err = paths.ResolveDataDir(flags.dataDir, "", "")
		if err != nil {
			return sysError(err, "resolve data dir: %s", err)
		}
	}
	configPath := filepath.Join(configDir, config.FileName)
	if err := config.WriteIfMissing(configPath, config.DefaultFile(recorded)); err != nil {
		return sysError(err, "write config: %s", err)
	}

	st, err := flags.openStorage(cmd)
	if err != nil {
		return err
	}
	st.close()

	if flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]string{
			"config": configPath,
			"data":   st.dataDir,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "marquee initialized\nconfig: %s\ndata:   %s\n", configPath, st.dataDir)
	return nil
}
