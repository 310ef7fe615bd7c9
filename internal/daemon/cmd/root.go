// Package cmd implements the hassdeskd daemon command.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hassdesk/hassdesk/internal/config"
	"github.com/hassdesk/hassdesk/internal/daemon/autostart"
	"github.com/hassdesk/hassdesk/internal/daemon/menu"
	"github.com/hassdesk/hassdesk/internal/daemon/server"
	"github.com/hassdesk/hassdesk/internal/daemon/session"
	"github.com/hassdesk/hassdesk/internal/daemon/tray"
	"github.com/hassdesk/hassdesk/internal/daemon/watcher"
	"github.com/hassdesk/hassdesk/internal/models"
)

var (
	foreground bool
	port       int
	noKeyring  bool
)

var rootCmd = &cobra.Command{
	Use:   "hassdeskd",
	Short: "Home Assistant tray daemon",
	Long: `hassdeskd keeps a connection to Home Assistant and shows the subscribed
entities in the system tray. The hassdesk CLI talks to it over a local gRPC port.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

// Execute runs the daemon command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hassdeskd: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.Flags().BoolVar(&foreground, "foreground", false, "Run without the system tray (for development)")
	rootCmd.Flags().IntVar(&port, "port", 0, "Port to listen on (0 for dynamic allocation)")
	rootCmd.Flags().BoolVar(&noKeyring, "no-keyring", false, "Keep the access token in memory instead of the OS keyring")
}

func run() error {
	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}

	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running on port %d (PID %d)", info.Port, info.PID)
	}

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open settings: %w", err)
	}

	level := zap.NewAtomicLevel()
	if lvl, err := config.ParseLogLevel(store.LogLevel()); err == nil {
		level.SetLevel(lvl)
	}
	logPath, err := config.DaemonLogFile()
	if err != nil {
		return err
	}
	logger, closeLog, err := config.NewLogger(level, logPath)
	if err != nil {
		return err
	}
	defer closeLog()
	store.WithLogger(logger)

	d := newDaemon(store, logger, &level)
	if foreground {
		logger.Info("Running in foreground mode (no system tray)")
		return d.runForeground()
	}
	logger.Info("Running in background mode (with system tray)")
	d.runWithTray()
	return nil
}

func openStore() (*config.Store, error) {
	if !noKeyring {
		return config.OpenStore()
	}
	path, err := config.GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	env, err := config.LoadEnvOverrides()
	if err != nil {
		return nil, err
	}
	return config.NewStore(path, config.NewMemorySecrets()).WithEnv(env), nil
}

// daemon holds what start creates and stop tears down.
type daemon struct {
	store  *config.Store
	logger *zap.Logger
	level  *zap.AtomicLevel

	session     *session.Session
	server      *server.Server
	watcher     *watcher.Watcher
	cancel      context.CancelFunc
	sessionDone chan struct{}
}

func newDaemon(store *config.Store, logger *zap.Logger, level *zap.AtomicLevel) *daemon {
	return &daemon{store: store, logger: logger, level: level}
}

// runForeground runs the daemon without a system tray, blocking on signals.
func (d *daemon) runForeground() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh, err := d.start(ctx, logPresenter{logger: d.logger}, stop)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		d.logger.Info("Shutting down")
	case err := <-errCh:
		d.logger.Error("Server error", zap.Error(err))
	}
	d.stop()
	return nil
}

// runWithTray runs the daemon with a system tray icon on the main goroutine.
// systray.Run must occupy the main goroutine on macOS.
func (d *daemon) runWithTray() {
	var started bool

	onStart := func() {
		errCh, err := d.start(context.Background(), tray.Presenter{}, tray.Quit)
		if err != nil {
			d.logger.Error("Failed to start daemon", zap.Error(err))
			tray.Quit()
			return
		}
		started = true

		go func() {
			if err := <-errCh; err != nil {
				d.logger.Error("Server error", zap.Error(err))
				tray.Quit()
			}
		}()

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			d.logger.Info("Received signal, shutting down", zap.Stringer("signal", sig))
			tray.Quit()
		}()
	}

	onExit := func() {
		if started {
			d.stop()
		}
	}

	// The tray routes clicks to the session, which start creates. Clicks
	// cannot arrive before onStart has returned.
	tray.Run(trayController{d}, d.logger, onStart, onExit)
}

// start creates the session, the gRPC server and the settings watcher.
// The returned channel receives the server's Serve error.
func (d *daemon) start(parent context.Context, presenter session.Presenter, quit func()) (<-chan error, error) {
	opts := session.Options{
		Store:        d.store,
		Dialer:       session.HassDialer(d.logger),
		Presenter:    presenter,
		Logger:       d.logger,
		Level:        d.level,
		OpenURL:      browser.OpenURL,
		OpenSettings: func() error { return launchSettings(d.logger) },
		Quit:         quit,
	}
	if m, err := autostart.New(); err != nil {
		d.logger.Warn("Autostart unavailable", zap.Error(err))
	} else {
		opts.Autostart = m.Set
	}
	d.session = session.New(opts)

	srv, err := server.New(port, server.Options{
		Settings: d.store,
		Session:  d.session,
		Logger:   d.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	d.server = srv

	if err := config.SaveDaemonInfo(models.NewDaemonInfo("127.0.0.1", srv.Port(), os.Getpid())); err != nil {
		srv.Stop()
		return nil, fmt.Errorf("failed to write daemon info: %w", err)
	}
	d.logger.Info("Daemon started", zap.Int("port", srv.Port()), zap.Int("pid", os.Getpid()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.sessionDone = make(chan struct{})
	go func() {
		defer close(d.sessionDone)
		if err := d.session.Run(ctx); err != nil {
			d.logger.Error("Session stopped", zap.Error(err))
		}
	}()

	d.watchSettings(ctx)
	return errCh, nil
}

// watchSettings reloads the store when settings.yaml is edited by hand.
func (d *daemon) watchSettings(ctx context.Context) {
	w, err := watcher.New(d.logger)
	if err != nil {
		d.logger.Warn("Settings watcher unavailable", zap.Error(err))
		return
	}
	if err := w.WatchFile(d.store.Path()); err != nil {
		d.logger.Warn("Failed to watch settings file", zap.String("path", d.store.Path()), zap.Error(err))
		w.Stop()
		return
	}
	w.Start()
	d.watcher = w

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-w.Events():
				if err := d.store.Reload(); err != nil {
					d.logger.Warn("Failed to reload settings", zap.String("path", ev.Path), zap.Error(err))
					continue
				}
				d.logger.Debug("Settings file changed", zap.String("path", ev.Path))
				d.session.SettingsChanged()
			}
		}
	}()
}

func (d *daemon) stop() {
	if d.cancel != nil {
		d.cancel()
		<-d.sessionDone
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.server != nil {
		d.server.Stop()
	}
	if err := config.RemoveDaemonInfo(); err != nil {
		d.logger.Warn("Failed to remove daemon info", zap.Error(err))
	}
	d.logger.Info("Daemon stopped")
}

// trayController defers to the session once start has created it.
type trayController struct {
	d *daemon
}

func (t trayController) Activate(entry menu.Entry) {
	if t.d.session != nil {
		t.d.session.Activate(entry)
	}
}

// logPresenter stands in for the tray in foreground mode.
type logPresenter struct {
	logger *zap.Logger
}

func (p logPresenter) Render(view menu.View) {
	labels := make([]string, 0, len(view.Entries))
	for _, e := range view.Entries {
		if e.Kind == menu.KindSeparator {
			continue
		}
		labels = append(labels, e.Kind.String()+": "+e.Label)
	}
	p.logger.Info("Menu",
		zap.String("state", string(view.Status.State)),
		zap.Strings("entries", labels),
	)
}
