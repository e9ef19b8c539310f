package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/easycue/easycue/internal/control"
	"github.com/easycue/easycue/internal/models"
)

var (
	statusJSON  bool
	noClipboard bool
)

var serviceCmd = &cobra.Command{
	Use:     "service",
	Aliases: []string{"svc"},
	Short:   "Control the background service",
	Long:    `Start, stop and inspect the background service supervised by easycued.`,
}

var serviceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := EnsureDaemon(); err != nil {
			return err
		}
		return runServiceCall((*control.Client).StartService)
	},
}

var serviceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServiceCall((*control.Client).StopService)
	},
}

var serviceToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Stop the service if running, start it otherwise",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := EnsureDaemon(); err != nil {
			return err
		}
		return runServiceCall((*control.Client).ToggleService)
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service status",
	RunE:  runServiceStatus,
}

var serviceCopyCmd = &cobra.Command{
	Use:   "copy-address",
	Short: "Copy the service address to the clipboard",
	RunE:  runServiceCopy,
}

func init() {
	serviceStatusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print status as JSON")
	serviceCopyCmd.Flags().BoolVar(&noClipboard, "no-clipboard", false, "Print the address without copying it")

	serviceCmd.AddCommand(serviceCopyCmd)
	serviceCmd.AddCommand(serviceStartCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
	serviceCmd.AddCommand(serviceStopCmd)
	serviceCmd.AddCommand(serviceToggleCmd)
}

func runServiceCall(call func(*control.Client, context.Context) (string, error)) error {
	return withClient(func(ctx context.Context, client *control.Client) error {
		msg, err := call(client, ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, styleError.Render("Error: ")+err.Error())
			return err
		}
		fmt.Println(styleSuccess.Render(msg))

		info, err := client.GetStatus(ctx)
		if err == nil {
			fmt.Printf("  %s %s\n", styleLabel.Render("Status:"), stateBadge(info.Status))
		}
		return nil
	})
}

func runServiceStatus(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *control.Client) error {
		info, err := client.GetStatus(ctx)
		if err != nil {
			return err
		}

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		printServiceInfo(info)
		return nil
	})
}

func printServiceInfo(info models.ServiceInfo) {
	fmt.Printf("  %s  %s\n", styleLabel.Render("Status:"), stateBadge(info.Status))
	if info.PID > 0 {
		fmt.Printf("  %s     %s\n", styleLabel.Render("PID:"), styleValue.Render(fmt.Sprint(info.PID)))
	}
	if !info.StartedAt.IsZero() {
		uptime := time.Since(info.StartedAt).Truncate(time.Second)
		fmt.Printf("  %s  %s\n", styleLabel.Render("Uptime:"), styleValue.Render(uptime.String()))
	}
	if info.RunID != "" {
		fmt.Printf("  %s  %s\n", styleLabel.Render("Run ID:"), styleHint.Render(info.RunID))
	}
	fmt.Printf("  %s %s\n", styleLabel.Render("Address:"), styleValue.Render(models.ServiceAddress))
}

func runServiceCopy(cmd *cobra.Command, args []string) error {
	addr := models.ServiceAddress
	err := withClient(func(ctx context.Context, client *control.Client) error {
		a, err := client.CopyAddress(ctx)
		if err != nil {
			return err
		}
		addr = a
		return nil
	})
	if err != nil {
		// The address is fixed, so it can still be copied with no daemon.
		fmt.Fprintln(os.Stderr, styleHint.Render("Daemon unreachable; using the default address."))
	}

	if noClipboard {
		fmt.Println(addr)
		return nil
	}
	if err := clipboard.WriteAll(addr); err != nil {
		return fmt.Errorf("failed to copy address: %w", err)
	}
	if isTTY() {
		fmt.Printf("%s %s\n", styleSuccess.Render("Copied"), styleValue.Render(addr))
	} else {
		fmt.Println(addr)
	}
	return nil
}
