package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redquill/ferret/pkg/config"
)

var (
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "ferret",
	Short: "Ferret - forensic content and filesystem search",
	Long: `Ferret searches endpoint filesystems the way a remote forensic agent does:
grep scans arbitrarily large files in bounded memory, find walks directory
trees in resumable quota-bounded batches. Both commands read through a
layered virtual filesystem, so members of zip and 7z containers can be
addressed like ordinary files.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration (block size, overlap, hit limit)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (results only)")

	// Add subcommands
	rootCmd.AddCommand(grepCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the scanner tunables from --config, or the defaults.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
