// Package cmd implements the easycued command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/easycue/easycue/internal/buildinfo"
)

var (
	foreground bool
	port       int
)

var rootCmd = &cobra.Command{
	Use:   "easycued",
	Short: "EasyCue tray daemon",
	Long: `easycued shows the EasyCue tray icon and supervises the PromptX
background service. Use --foreground to run without a tray, e.g. on a
headless machine or during development.`,
	Version:      buildinfo.Summary(),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(foreground, port)
	},
}

// Execute runs the daemon command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground without a system tray")
	rootCmd.Flags().IntVar(&port, "port", 0, "Control API port (0 for dynamic allocation)")
	rootCmd.SetVersionTemplate("easycued {{.Version}}\n")
}
