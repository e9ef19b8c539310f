// Package main is the entry point for the easycued tray daemon.
package main

import (
	"os"

	"github.com/easycue/easycue/internal/daemon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
