package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hassdesk/hassdesk/internal/config"
	"github.com/hassdesk/hassdesk/internal/models"
	"github.com/hassdesk/hassdesk/internal/tui"
)

const requestTimeout = 5 * time.Second

var revealSecrets bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Edit settings interactively",
	Long: `Open the settings editor. Changes go to the running daemon and take
effect immediately; without a daemon they are written to the settings file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()
		return tui.Run(backend)
	},
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change one setting",
	Long: `Change one setting. Lists are comma-separated. When the access token is
set without a value it is read from the terminal without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

func init() {
	settingsListCmd.Flags().BoolVar(&revealSecrets, "reveal", false, "Show the access token")
	settingsGetCmd.Flags().BoolVar(&revealSecrets, "reveal", false, "Show the access token")

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	values, err := fetchSettings()
	if err != nil {
		return err
	}

	width := 0
	for _, k := range models.Keys {
		if len(k) > width {
			width = len(k)
		}
	}
	for _, k := range config.SortedKeys(values) {
		fmt.Printf("%s  %s\n",
			styleLabel.Render(fmt.Sprintf("%-*s", width, k)),
			styleValue.Render(formatValue(k, values[k], revealSecrets)))
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	values, err := fetchSettings(args[0])
	if err != nil {
		return err
	}
	fmt.Println(formatValue(args[0], values[args[0]], revealSecrets))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case key == models.KeyHomeAssistantToken:
		token, err := promptSecret("Access token: ")
		if err != nil {
			return err
		}
		value = token
	default:
		return fmt.Errorf("missing value for %s", key)
	}

	backend, closeBackend, err := openBackend()
	if err != nil {
		return err
	}
	defer closeBackend()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := backend.SetSetting(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	fmt.Println(styleSuccess.Render("Saved " + key + "."))
	return nil
}

func fetchSettings(keys ...string) (map[string]interface{}, error) {
	backend, closeBackend, err := openBackend()
	if err != nil {
		return nil, err
	}
	defer closeBackend()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	values, err := backend.GetSettings(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return values, nil
}

// formatValue renders a setting for display. The access token is masked
// unless reveal is set.
func formatValue(key string, value interface{}, reveal bool) string {
	switch v := value.(type) {
	case nil:
		return "(not set)"
	case string:
		if v == "" {
			return "(not set)"
		}
		if key == models.KeyHomeAssistantToken && !reveal {
			return maskSecret(v)
		}
		return v
	case []string:
		return strings.Join(v, ", ")
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(value)
}

// maskSecret keeps the last four characters of long secrets.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("•", 8)
	}
	return strings.Repeat("•", 8) + s[len(s)-4:]
}

func promptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; pass the token as an argument")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
