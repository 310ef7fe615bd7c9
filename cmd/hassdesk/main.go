// Package main is the entry point for the hassdesk CLI/TUI.
package main

import (
	"os"

	"github.com/hassdesk/hassdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
