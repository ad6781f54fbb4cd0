package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newLockCmd() *cobra.Command {
	var (
		configPath          string
		lockfilePath        string
		targetArchitectures []string
	)

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Download package lists, resolve dependencies and create lockfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := c.resolveLock(configPath, lockfilePath, targetArchitectures)
			if err != nil {
				return err
			}
			return c.app.Lock(cmd.Context(), params)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Sets a custom config file")
	cmd.Flags().StringVarP(&lockfilePath, "lockfile", "l", "aptprep.lock", "Sets the output lockfile path")
	cmd.Flags().StringSliceVarP(&targetArchitectures, "target-architecture", "a", nil,
		"Overrides target architectures (repeat or use comma-separated values)")

	return cmd
}
