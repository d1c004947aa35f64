package cmd

import (
	"log/slog"
	"os"

	"github.com/atdiar/reactive"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	settingsPath string

	logger = slog.Default()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reactive",
	Short: "reactive binds HTML templates to YAML or JSON models",
	Long: `
		reactive binds an HTML template to a model read from a YAML or JSON file.
		The render command prints the bound template once. The watch command
		keeps the binding alive and prints the template again every time the
		model file changes.
		`,
	Version:      "0.1.0",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		reactive.SetLogger(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", "", "YAML or JSON settings file")
}
