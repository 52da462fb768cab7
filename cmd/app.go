package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabe/consultant/internal/auth"
	"github.com/gabe/consultant/internal/client"
	"github.com/gabe/consultant/internal/config"
	"github.com/gabe/consultant/internal/display"
	"github.com/gabe/consultant/internal/metrics"
	"github.com/gabe/consultant/internal/notify"
	"github.com/gabe/consultant/internal/upload"
	"github.com/spf13/cobra"
)

// app bundles what a command needs to talk to the backend
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	logFile  io.Closer
	store    *auth.Store
	session  *auth.Session
	client   *client.Client
	metrics  *metrics.Metrics
	notifier *notify.Manager
	format   display.Format
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return config.ExpandPath(configPath), nil
	}
	return config.DefaultPath()
}

func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config: %w", err)
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger writes to the configured log file so log lines never corrupt
// the terminal UI. It falls back to stderr when the file cannot be opened.
func newLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer) {
	level := cfg.Level
	if logLevel != "" {
		level = logLevel
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	path := config.ExpandPath(cfg.File)
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err == nil {
				return slog.New(slog.NewTextHandler(f, opts)), f
			}
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), io.NopCloser(nil)
}

// newApp loads config, credentials and the API client
func newApp(ctx context.Context) (*app, error) {
	format, err := display.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logFile := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	store, err := auth.NewStore(config.ExpandPath(cfg.Auth.CredentialsFile))
	if err != nil {
		logFile.Close()
		return nil, err
	}

	session := auth.NewSession(cfg.Auth.Token)
	if err := session.Follow(ctx, store, logger); err != nil {
		logger.Warn("failed to load credentials", "path", store.Path(), "error", err)
	}

	m := metrics.New()
	history := notify.NewHistory(logger, 0)
	var notifiers []notify.Notifier
	notifiers = append(notifiers, history)
	if cfg.Notifications.Terminal {
		notifiers = append(notifiers, notify.NewTerminalNotifier(true))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		logFile:  logFile,
		store:    store,
		session:  session,
		client:   client.New(cfg.API, session, nil, client.WithMetrics(m), client.WithLogger(logger)),
		metrics:  m,
		notifier: notify.NewManager(notifiers...),
		format:   format,
	}, nil
}

func (a *app) Close() {
	a.notifier.Close()
	a.logFile.Close()
}

func (a *app) uploadLimits() upload.Limits {
	return upload.Limits{
		MaxFileSize: a.cfg.Upload.MaxFileSize,
		MaxPDFPages: a.cfg.Upload.MaxPDFPages,
	}
}

// withApp runs fn with an app whose background work ends with the command
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.session.LoggedIn() {
		a.logger.Debug("no credentials, sending requests without a token")
	}
	return fn(ctx, a)
}
