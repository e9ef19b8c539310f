package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/easycue/easycue/internal/updater"
)

// updateTimeout bounds the whole check, download and install.
const updateTimeout = 10 * time.Minute

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Install the latest easycue and easycued release",
	Long: `Download the latest release from GitHub and replace easycue and, if it
can be found, easycued. A running daemon is stopped for the swap and
started again afterwards, and a running service is resumed. Downloads are
verified against the release checksums when they are published.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "Only report whether an update is available")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	client := updater.NewClient()
	res, err := checkRelease(ctx, client)
	if err != nil || !res.Available || updateCheckOnly {
		return err
	}

	self, err := os.Executable()
	if err == nil {
		self, err = filepath.EvalSymlinks(self)
	}
	if err != nil {
		return fmt.Errorf("failed to locate easycue: %w", err)
	}
	daemonPath, daemonErr := findDaemonBinary()
	if daemonErr != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styleWarning.Render("Skipping daemon:"), daemonErr)
	}

	targets := installTargets(self, daemonPath, runtime.GOOS, runtime.GOARCH)
	err = cycleDaemon(func() error {
		for _, t := range targets {
			fmt.Printf("Installing %s %s...\n", t.Binary, res.Latest)
			if err := client.Install(ctx, res.Release, t); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	fmt.Println(styleSuccess.Render("Updated to v" + res.Latest + "."))
	return nil
}

// checkRelease reports the latest release and records the check time.
func checkRelease(ctx context.Context, client *updater.Client) (*updater.Result, error) {
	fmt.Println(styleHint.Render("Checking for updates..."))
	res, err := client.CheckAndRecord(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}

	switch {
	case res.Release == nil:
		fmt.Println("No releases published yet.")
	case !res.Available:
		fmt.Println(styleSuccess.Render("Up to date") + styleHint.Render(" (v"+res.Current+")"))
	default:
		fmt.Printf("%s v%s → v%s\n", styleUpdate.Render("Update available:"), res.Current, res.Latest)
		fmt.Printf("  %s\n", styleHint.Render(res.Release.URL))
	}
	return res, nil
}

// installTargets lists the binaries to replace. The daemon goes first so
// the running CLI is swapped last; an empty daemonPath skips it.
func installTargets(self, daemonPath, goos, goarch string) []updater.Target {
	var targets []updater.Target
	if daemonPath != "" {
		targets = append(targets, updater.Target{Binary: updater.Daemon, Path: daemonPath, GOOS: goos, GOARCH: goarch})
	}
	return append(targets, updater.Target{Binary: updater.CLI, Path: self, GOOS: goos, GOARCH: goarch})
}

