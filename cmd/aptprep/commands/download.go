package commands

import (
	"github.com/spf13/cobra"

	"github.com/aptprep/aptprep/internal/engine/downloader"
)

func (c *CLI) newDownloadCmd() *cobra.Command {
	var (
		configPath   string
		lockfilePath string
		outputDir    string
		opts         downloader.Options
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Read lockfile and download all required packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := c.resolveDownload(configPath, lockfilePath, outputDir, opts)
			if err != nil {
				return err
			}
			return c.app.Download(cmd.Context(), params)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Optional config file for output-dir fallback and lockfile hash validation")
	cmd.Flags().StringVarP(&lockfilePath, "lockfile", "l", "aptprep.lock", "Sets the input lockfile path")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "",
		"Overrides output directory for downloaded packages and generated Packages file")
	cmd.Flags().IntVar(&opts.MaxConcurrencyPerHost, "max-concurrency-per-host", 8,
		"Maximum concurrent HTTP requests per host")
	cmd.Flags().IntVar(&opts.MaxRetries, "max-retries", 5,
		"Maximum retry attempts for failed HTTP operations")
	cmd.Flags().IntVar(&opts.DownloadParallelism, "download-parallelism", 16,
		"Maximum number of simultaneous downloads")
	cmd.Flags().IntVar(&opts.CheckingParallelism, "checking-parallelism", 128,
		"Maximum number of concurrent file digest checks")

	return cmd
}
