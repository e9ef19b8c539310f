package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/easycue/easycue/internal/config"
	"github.com/easycue/easycue/internal/control"
	"github.com/easycue/easycue/internal/models"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the easycued daemon",
	Long: `Manage the easycued tray daemon. Stopping the daemon also stops the
service it supervises.`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and service status",
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon and its service",
	RunE:  runDaemonStop,
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the daemon, resuming the service if it was running",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cycleDaemon(nil, true); err != nil {
			return err
		}
		return printDaemonLine()
	},
}

func init() {
	daemonCmd.AddCommand(daemonRestartCmd)
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		fmt.Println(styleHint.Render("Daemon already running."))
		printDaemonInfo(info)
		return nil
	}

	if err := startDaemon(); err != nil {
		return err
	}
	return printDaemonLine()
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Println(styleHint.Render("Daemon is not running."))
		return nil
	}

	if err := stopDaemon(info); err != nil {
		return err
	}
	fmt.Println(styleSuccess.Render("Daemon stopped."))
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Printf("  %s  %s\n", styleLabel.Render("Daemon:"), badgeStopped.Render("○ not running"))
		return nil
	}

	printDaemonInfo(info)

	err = withClient(func(ctx context.Context, client *control.Client) error {
		svc, err := client.GetStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Println()
		printServiceInfo(svc)
		return nil
	})
	if err != nil {
		fmt.Printf("\n  %s %v\n", styleWarning.Render("Service status unavailable:"), err)
	}
	return nil
}

// printDaemonLine prints the freshly registered daemon, if any.
func printDaemonLine() error {
	info, err := config.LoadDaemonInfo()
	if err != nil {
		return err
	}
	if info != nil {
		fmt.Println(styleSuccess.Render("Daemon started."))
		printDaemonInfo(info)
	}
	return nil
}

func printDaemonInfo(info *models.DaemonInfo) {
	rows := [][2]string{
		{"Daemon:", fmt.Sprintf("PID %d", info.PID)},
		{"Control:", info.Addr()},
		{"Uptime:", time.Since(info.StartedAt).Truncate(time.Second).String()},
	}
	if info.WebPort > 0 {
		rows = append(rows, [2]string{"Web:", fmt.Sprintf("127.0.0.1:%d", info.WebPort)})
	}
	for _, r := range rows {
		fmt.Printf("  %s %s\n", styleLabel.Render(fmt.Sprintf("%-8s", r[0])), styleValue.Render(r[1]))
	}
}
