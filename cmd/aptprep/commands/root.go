// Package commands implements the CLI commands for aptprep.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aptprep/aptprep/internal/adapters/config"
	"github.com/aptprep/aptprep/internal/adapters/logger"
	"github.com/aptprep/aptprep/internal/adapters/repoindex"
	"github.com/aptprep/aptprep/internal/app"
	"github.com/aptprep/aptprep/internal/core/ports"
)

// CLI represents the command line interface for aptprep.
type CLI struct {
	rootCmd   *cobra.Command
	verbosity int

	logger ports.Logger
	loader ports.ConfigLoader
	app    *app.App
}

// New creates a new CLI instance. Adapters are wired in the persistent
// pre-run hook, once the verbosity is known.
func New() *CLI {
	rootCmd := &cobra.Command{
		Use:           "aptprep",
		Short:         "Resolve and mirror Debian packages for air-gapped installs",
		Long:          "Resolve all Debian package dependencies needed to install a given set of Debian packages behind an air gap",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &CLI{rootCmd: rootCmd}

	rootCmd.PersistentFlags().CountVarP(&c.verbosity, "verbose", "v", "Sets the level of verbosity")
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		c.logger = logger.New(logger.LevelFromVerbosity(c.verbosity))
		c.loader = config.NewLoader()
		c.app = app.New(repoindex.NewCollector(c.logger), c.logger)
	}

	rootCmd.AddCommand(c.newLockCmd())
	rootCmd.AddCommand(c.newDownloadCmd())
	rootCmd.AddCommand(c.newGeneratePackagesCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
