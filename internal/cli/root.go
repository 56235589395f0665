package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the storyarn CLI and returns an error if any command fails.
//
// The function sets up the root command with all subcommands (sync, link,
// unlink, show, export, serve), configures logging based on the --verbose
// flag, and executes the command tree. The logger is attached to the
// context and accessible to all commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "storyarn",
		Short:        "Storyarn syncs screenplay pages with branching flow graphs",
		Long:         `Storyarn is a bidirectional synchronization engine between screenplay documents and node-based flow graphs, keeping both representations of a branching story in lockstep.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("storyarn %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")

	config := func() (Config, error) { return loadConfig(configPath) }

	root.AddCommand(newSyncCmd(config))
	root.AddCommand(newLinkCmd(config))
	root.AddCommand(newUnlinkCmd(config))
	root.AddCommand(newShowCmd(config))
	root.AddCommand(newExportCmd(config))
	root.AddCommand(newServeCmd(config))

	return root.ExecuteContext(ctx)
}
