package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easycue/easycue/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the interactive service monitor",
	Long: `Open a live view of the service status with keyboard controls
to start, stop and toggle it. Starts the daemon if it is not running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTTY() {
			return fmt.Errorf("watch needs an interactive terminal; use %s instead", styleCommand.Render("easycue service status"))
		}
		if err := EnsureDaemon(); err != nil {
			return err
		}

		conn, client, err := connectDaemon()
		if err != nil {
			return err
		}
		defer conn.Close()

		return tui.Run(client)
	},
}
