// Package main is the entry point for the hassdeskd tray daemon.
package main

import (
	"os"

	"github.com/hassdesk/hassdesk/internal/daemon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
