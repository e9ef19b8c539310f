// Package main is the entry point for the easycue CLI.
package main

import (
	"os"

	"github.com/easycue/easycue/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
