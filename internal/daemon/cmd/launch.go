package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/hassdesk/hassdesk/internal/buildinfo"
)

// linuxTerminals are tried in order; each entry is the binary and the flag
// that precedes the command to run.
var linuxTerminals = [][2]string{
	{"x-terminal-emulator", "-e"},
	{"gnome-terminal", "--"},
	{"konsole", "-e"},
	{"xfce4-terminal", "-x"},
	{"xterm", "-e"},
}

// launchSettings opens the settings form of the hassdesk CLI in a new
// terminal window.
func launchSettings(logger *zap.Logger) error {
	cliPath, err := findCLIBinary()
	if err != nil {
		return err
	}
	args, err := terminalArgs(runtime.GOOS, cliPath, os.Getenv("TERMINAL"), exec.LookPath)
	if err != nil {
		return err
	}

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	logger.Debug("Opened settings", zap.Strings("cmd", args))
	go func() { _ = cmd.Wait() }()
	return nil
}

// terminalArgs returns the command line that runs "cliPath settings" in a
// terminal window. preferred is the user's $TERMINAL, tried first on Linux.
func terminalArgs(goos, cliPath, preferred string, lookPath func(string) (string, error)) ([]string, error) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`tell application "Terminal" to do script "'%s' settings"`, strings.ReplaceAll(cliPath, `"`, `\"`))
		return []string{"osascript", "-e", script, "-e", `tell application "Terminal" to activate`}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		candidates := linuxTerminals
		if preferred != "" {
			candidates = append([][2]string{{preferred, "-e"}}, candidates...)
		}
		for _, term := range candidates {
			if path, err := lookPath(term[0]); err == nil {
				return []string{path, term[1], cliPath, "settings"}, nil
			}
		}
		return nil, errors.New("no terminal emulator found")
	}
	return nil, fmt.Errorf("opening settings is not supported on %s", goos)
}

// findCLIBinary locates the hassdesk binary.
func findCLIBinary() (string, error) {
	if path, err := exec.LookPath(buildinfo.AppName); err == nil {
		return path, nil
	}

	if execPath, err := os.Executable(); err == nil {
		cliPath := filepath.Join(filepath.Dir(execPath), buildinfo.AppName)
		if _, err := os.Stat(cliPath); err == nil {
			return cliPath, nil
		}
	}

	if _, err := os.Stat("./build/" + buildinfo.AppName); err == nil {
		return "./build/" + buildinfo.AppName, nil
	}

	return "", fmt.Errorf("%s not found. Install or build it first", buildinfo.AppName)
}
