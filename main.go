package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"media-explorer/internal/api"
	"media-explorer/internal/handlers"
	"media-explorer/internal/logging"
	"media-explorer/internal/metrics"
	"media-explorer/internal/session"
	"media-explorer/internal/settings"
	"media-explorer/internal/shell"
	"media-explorer/internal/startup"

	"golang.org/x/term"
)

const (
	logFileName     = "explorer.log"
	collectInterval = 15 * time.Second
)

func main() {
	startTime := time.Now()
	startup.PrintBanner()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	if err := startup.EnsureSettingsDir(config); err != nil {
		startup.LogFatal("Startup error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize settings store
	settingsStart := time.Now()
	store, closeStore := openSettings(ctx, config.SettingsPath)
	defer closeStore()
	startup.LogSettingsInit(config.SettingsPath, time.Since(settingsStart))

	metrics.InitializeMetrics("viewer")
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)

	client, err := api.New(api.Options{
		BaseURL:     config.ServerURL,
		Timeout:     config.RequestTimeout,
		RequestRate: config.RequestRate,
	})
	if err != nil {
		startup.LogFatal("Invalid server configuration: %v", err)
	}

	// Connect to the indexing service
	sessionStart := time.Now()
	sess := session.New(client, settings.NewPreferences(store), session.ConfigFrom(config))
	if err := sess.Start(ctx); err != nil {
		startup.LogFatal("Failed to connect to %s: %v", config.ServerURL, err)
	}
	startup.LogSessionInit(config.ServerURL, len(sess.Directories()), time.Since(sessionStart))

	collector := metrics.NewCollector(sess, collectInterval)
	collector.Start()

	var srv *http.Server
	if config.MetricsEnabled {
		srv = startMetricsServer(config, sess)
	}

	startup.LogServerStarted(startup.ServerConfig{
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	reason := runShell(ctx, sess, filepath.Join(config.SettingsDir, logFileName))
	shutdown(reason, sess, collector, srv)
}

// openSettings opens the sqlite settings store, falling back to memory so a
// broken settings file never keeps the explorer from starting.
func openSettings(ctx context.Context, path string) (settings.Store, func()) {
	store, err := settings.OpenSQLite(ctx, path)
	if err != nil {
		logging.Warn("Settings store unavailable, preferences will not persist: %v", err)
		return settings.NewMemoryStore(), func() {}
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logging.Warn("Failed to close settings store: %v", err)
		}
	}
}

func startMetricsServer(config *startup.Config, sess *session.Session) *http.Server {
	h := handlers.New(sess, config.ServerURL)
	router := h.Router()
	startup.LogHTTPRoutes(router)

	srv := &http.Server{
		Addr:              ":" + config.MetricsPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

// runShell runs the interactive shell until the user quits or a signal
// arrives, and returns the reason. Log output goes to logPath while the
// shell owns the terminal.
func runShell(ctx context.Context, sess *session.Session, logPath string) string {
	fd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(fd)

	if interactive {
		if logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
			logging.Warn("Cannot open %s, logs will mix with the shell: %v", logPath, err)
		} else {
			logging.Info("Logging to %s while the shell runs", logPath)
			logging.SetOutput(logFile)
			defer func() {
				logging.SetOutput(os.Stderr)
				_ = logFile.Close()
			}()
		}

		state, err := term.MakeRaw(fd)
		if err != nil {
			logging.Warn("Cannot switch the terminal to raw mode: %v", err)
		} else {
			defer func() { _ = term.Restore(fd, state) }()
		}
	}

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	sh := shell.New(ctx, sess, rw)
	if interactive {
		if width, height, err := term.GetSize(fd); err == nil {
			_ = sh.SetSize(width, height)
		}
	}

	if err := sh.Run(ctx); err != nil {
		logging.Error("Shell error: %v", err)
		return "shell error"
	}
	if ctx.Err() != nil {
		return "signal"
	}
	return "user quit"
}

func shutdown(reason string, sess *session.Session, collector *metrics.Collector, srv *http.Server) {
	startup.LogShutdownInitiated(reason)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if srv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := srv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing session")
	sess.Close()
	startup.LogShutdownStepComplete("Session closed")

	startup.LogShutdownComplete()
}
