package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hassdesk/hassdesk/internal/config"
	"github.com/hassdesk/hassdesk/internal/models"
	"github.com/hassdesk/hassdesk/internal/rpc"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the tray daemon",
	Long:  `Manage the hassdesk tray daemon process.`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and connection status",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if running && info != nil {
		fmt.Printf("Daemon is already running (PID %d, port %d).\n", info.PID, info.Port)
		return nil
	}

	fmt.Print("Starting daemon...")
	if err := EnsureDaemon(); err != nil {
		fmt.Println()
		return err
	}

	_, info, err = config.IsDaemonRunning()
	if err != nil || info == nil {
		fmt.Println(" started.")
		return nil
	}

	fmt.Printf(" started (PID %d, port %d).\n", info.PID, info.Port)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	client, err := connectDaemon()
	if err != nil {
		if errors.Is(err, errDaemonNotRunning) {
			fmt.Println(styleHint.Render("Daemon is not running."))
			return nil
		}
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := client.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get daemon status: %w", err)
	}

	fmt.Println(formatStatus(st, time.Now()))
	return nil
}

// formatStatus renders GetStatus output for the terminal.
func formatStatus(st rpc.Status, now time.Time) string {
	label := func(s string) string { return styleLabel.Render(fmt.Sprintf("  %-12s", s)) }
	lines := []string{
		styleBrand.Render("Daemon is running."),
		label("Version") + styleValue.Render(st.Version),
		label("PID") + styleValue.Render(fmt.Sprint(st.PID)),
		label("Port") + styleValue.Render(fmt.Sprint(st.Port)),
	}
	if !st.StartedAt.IsZero() {
		lines = append(lines, label("Uptime")+styleValue.Render(now.Sub(st.StartedAt).Truncate(time.Second).String()))
	}

	lines = append(lines, "", label("Connection")+stateStyle(st.State).Render(string(st.State)))
	if st.URL != "" {
		lines = append(lines, label("URL")+styleValue.Render(st.URL))
	}
	if st.LocationName != "" {
		lines = append(lines, label("Location")+styleValue.Render(st.LocationName))
	}
	if st.HAVersion != "" {
		lines = append(lines, label("HA version")+styleValue.Render(st.HAVersion))
	}
	if st.LastError != "" {
		lines = append(lines, label("Last error")+styleError.Render(st.LastError))
	}
	lines = append(lines, label("Entities")+styleValue.Render(
		fmt.Sprintf("%d subscribed, %d visible, %d available", st.Subscribed, st.Visible, st.Available)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func stateStyle(state models.ConnectionState) lipgloss.Style {
	switch state {
	case models.ConnectionConnected:
		return badgeConnected
	case models.ConnectionConnecting, models.ConnectionReconnecting:
		return badgePending
	case models.ConnectionFailed:
		return badgeFailed
	}
	return badgeIdle
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running || info == nil {
		fmt.Println("Daemon is not running.")
		return nil
	}

	if err := requestShutdown(info); err != nil {
		// Fall back to a signal when the RPC is unavailable.
		process, err := os.FindProcess(info.PID)
		if err != nil {
			return fmt.Errorf("failed to find daemon process: %w", err)
		}
		if err := process.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("failed to send stop signal: %w", err)
		}
	}

	// Poll for shutdown (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := config.IsDaemonRunning()
		if err == nil && !stillRunning {
			fmt.Println("Daemon stopped.")
			return nil
		}
	}

	return fmt.Errorf("daemon did not stop within timeout")
}

func requestShutdown(info *models.DaemonInfo) error {
	client, err := rpc.Dial(info.Address())
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Shutdown(ctx)
}
