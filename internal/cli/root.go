// Package cli provides the command-line interface for imgfill.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/imgfill/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string
	document   string
	baseDir    string

	// Loaded in PersistentPreRunE
	cfg      config.Config
	closeLog func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "imgfill",
	Short: "Fill in missing images referenced by a travel page",
	Long: `Imgfill scans a web page for image references (img: "images/<country>/<city>/<file>"),
finds the ones missing on disk and downloads replacements from image search engines.

Use "fetch" to take the first hit automatically, or "pick" to choose among
candidates yourself. Skipped picks are listed by "skipped".`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		applyGlobalFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		var logger *slog.Logger
		logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		slog.Debug("config loaded", "document", cfg.Document, "base_dir", cfg.ResolveBaseDir(), "engines", cfg.Engines)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// applyGlobalFlags lets explicitly set flags win over file and env config.
func applyGlobalFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("document") {
		c.Document = document
	}
	if flags.Changed("base-dir") {
		c.BaseDir = baseDir
	}
	if verbose {
		c.LogLevel = slog.LevelDebug
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the imgfill version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "imgfill %s\n", Version)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./imgfill.yaml)")
	rootCmd.PersistentFlags().StringVarP(&document, "document", "d", "", "page to scan (default index.html)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "directory image paths are relative to (default: the document's directory)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(skippedCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(versionCmd)
}
