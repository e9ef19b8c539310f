package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/easycue/easycue/internal/config"
	"github.com/easycue/easycue/internal/models"
)

var settingsInitForce bool

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"config"},
	Short:   "Show or edit global settings",
	Long: `Show or edit ~/.easycue/settings.yaml.

A running daemon picks up changes to the service command on the next start.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(settings)
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalSettingsFile()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalSettingsFile()
		if err != nil {
			return err
		}
		if config.FileExists(path) && !settingsInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.EnsureGlobalDir(); err != nil {
			return fmt.Errorf("failed to create global directory: %w", err)
		}
		if err := config.SaveSettings(models.NewSettings()); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Printf("%s %s\n", styleSuccess.Render("Wrote"), styleValue.Render(path))
		return nil
	},
}

var settingsConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Edit settings interactively",
	Long: `Edit settings interactively.

This allows you to modify:
  - Service command
  - Stop timeout
  - Auto-start and notifications

Press Enter to keep the current value for any setting.`,
	RunE: runConfigure,
}

func init() {
	settingsInitCmd.Flags().BoolVar(&settingsInitForce, "force", false, "Overwrite an existing settings file")

	settingsCmd.AddCommand(settingsConfigureCmd)
	settingsCmd.AddCommand(settingsInitCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsShowCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if !configureSettings(bufio.NewReader(os.Stdin), os.Stdout, settings) {
		fmt.Println("\nNo changes made.")
		return nil
	}

	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}
	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Println("\nSettings updated.")
	return nil
}

// configureSettings prompts for each editable field and reports whether
// anything changed.
func configureSettings(reader *bufio.Reader, out io.Writer, settings *models.Settings) bool {
	changed := false

	current := strings.Join(settings.Service.Command, " ")
	fmt.Fprintf(out, "Service command [%s]: ", current)
	if line := readLine(reader); line != "" && line != current {
		settings.Service.Command = strings.Fields(line)
		changed = true
	}

	fmt.Fprintf(out, "Stop timeout [%s]: ", settings.Service.StopTimeout)
	if line := readLine(reader); line != "" {
		d, err := time.ParseDuration(line)
		switch {
		case err != nil || d <= 0:
			fmt.Fprintln(out, styleWarning.Render("  Invalid duration, keeping current value."))
		case d != settings.Service.StopTimeout:
			settings.Service.StopTimeout = d
			changed = true
		}
	}

	fmt.Fprintln(out, "\nBehavior:")

	newAutoStart := promptYesNoWithCurrent(reader, out, "Start the service when the tray launches?", settings.Service.AutoStart)
	if newAutoStart != settings.Service.AutoStart {
		settings.Service.AutoStart = newAutoStart
		changed = true
	}

	newNotify := promptYesNoWithCurrent(reader, out, "Show desktop notifications?", settings.Notifications.Enabled)
	if newNotify != settings.Notifications.Enabled {
		settings.Notifications.Enabled = newNotify
		changed = true
	}

	return changed
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptYesNoWithCurrent prompts for a yes/no value showing the current value.
func promptYesNoWithCurrent(reader *bufio.Reader, out io.Writer, prompt string, current bool) bool {
	currentStr := "no"
	if current {
		currentStr = "yes"
	}

	fmt.Fprintf(out, "  %s [%s]: ", prompt, currentStr)
	response := strings.ToLower(readLine(reader))

	if response == "" {
		return current
	}
	return response == "y" || response == "yes"
}
