package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newGeneratePackagesCmd() *cobra.Command {
	var (
		configPath   string
		lockfilePath string
		outputPath   string
	)

	cmd := &cobra.Command{
		Use:     "generate-packages-file-from-lockfile",
		Aliases: []string{"generate_packages_file_from_lockfile"},
		Short:   "Read lockfile and generate a Packages index file",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			params, err := c.resolveGenerate(configPath, lockfilePath, outputPath)
			if err != nil {
				return err
			}
			return c.app.GeneratePackagesFile(params)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Optional config file for output path fallback")
	cmd.Flags().StringVarP(&lockfilePath, "lockfile", "l", "aptprep.lock", "Sets the input lockfile path")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Sets the output Packages file path (default: <config.output.path>/Packages)")

	return cmd
}
