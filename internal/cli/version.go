package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/easycue/easycue/internal/buildinfo"
	"github.com/easycue/easycue/internal/updater"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("  %s %s %s\n",
			styleBrand.Render("easycue"),
			styleVersion.Render(buildinfo.Version),
			styleHint.Render("("+buildinfo.Codename+")"),
		)
		for _, r := range versionRows() {
			fmt.Printf("    %s %s\n", styleLabel.Render(fmt.Sprintf("%-7s", r[0])), styleValue.Render(r[1]))
		}

		if !versionCheck {
			return nil
		}
		fmt.Println()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := checkRelease(ctx, updater.NewClient())
		if err != nil {
			return err
		}
		if res.Available {
			fmt.Printf("  Run %s to install it.\n", styleCommand.Render("easycue update"))
		}
		return nil
	},
}

func versionRows() [][2]string {
	return [][2]string{
		{"Commit", buildinfo.CommitHash},
		{"Built", buildinfo.BuildDate},
		{"OS/Arch", runtime.GOOS + "/" + runtime.GOARCH},
		{"Go", runtime.Version()},
	}
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")
}
