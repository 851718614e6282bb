package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/projmon/internal/config"
	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/contact"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/notify"
	"github.com/rpggio/projmon/internal/domain/reconcile"
	"github.com/rpggio/projmon/internal/mail"
	"github.com/rpggio/projmon/internal/metrics"
	"github.com/rpggio/projmon/internal/postgres"
	"github.com/rpggio/projmon/internal/sqlite"
)

// app holds the opened stores and shared services for one command.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	snapDB   *sqlite.DB
	platform *postgres.DB
	sender   notify.Sender

	snapshots *sqlite.SnapshotRepository
	ledger    *sqlite.NoticeLedger
	apiKeys   *sqlite.APIKeyRepository
	audit     *activity.Service

	closers []func()
}

type appOptions struct {
	// stdio forces the stdio transport, which keeps stdout free of logs.
	stdio bool
	// logToStdout sends logs to stdout unless the transport is stdio.
	logToStdout bool
	// needSource connects to the platform database.
	needSource bool
}

func openApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.stdio {
		cfg.Transport.Mode = "stdio"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.needSource {
		if err := cfg.RequireSource(); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg, metrics: metrics.New()}
	a.logger = a.newLogger(opts.logToStdout && cfg.Transport.Mode != "stdio")

	if err := ensureDBDir(cfg.Snapshot.Path); err != nil {
		a.Close()
		return nil, fmt.Errorf("prepare snapshot path: %w", err)
	}
	db, err := sqlite.New(cfg.Snapshot.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.snapDB = db
	a.closers = append(a.closers, func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		a.Close()
		return nil, err
	}

	a.snapshots = sqlite.NewSnapshotRepository(db)
	a.ledger = sqlite.NewNoticeLedger(db)
	a.apiKeys = sqlite.NewAPIKeyRepository(db)
	a.audit = activity.NewService(sqlite.NewActivityRepository(db), a.logger)

	if opts.needSource {
		platform, err := postgres.Connect(ctx, cfg.Source.URL, a.logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.platform = platform
		a.closers = append(a.closers, platform.Close)
	}

	sender, err := mail.New(cfg.Mail.Sender(), a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sender = sender

	return a, nil
}

func (a *app) newLogger(toStdout bool) *slog.Logger {
	logWriter := os.Stderr
	if toStdout {
		logWriter = os.Stdout
	}
	writer, closer := logOutput(logWriter, os.Getenv("PROJMON_LOG_PATH"))
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: parseLogLevel(a.cfg.Log.Level),
	}))
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) reconciler() *reconcile.Reconciler {
	return reconcile.New(reconcile.Config{
		Source:   a.platform,
		Store:    a.snapshots,
		Activity: a.platform,
		Resolver: contact.NewResolver(a.platform, a.platform, a.logger),
		Effects:  lifecycle.NewEffects(a.platform, a.audit, a.ledger, a.platform, a.logger),
		Audit:    a.audit,
		Policy:   a.cfg.Policy.LifecyclePolicy(),
		DenseIDs: a.cfg.Policy.DenseIDs,
		Recorder: a.metrics,
		Logger:   a.logger,
	})
}

func (a *app) dispatcher() *notify.Dispatcher {
	return notify.NewDispatcher(a.snapshots, a.sender, notify.Options{
		From:       a.cfg.Mail.From,
		ProjectURL: a.cfg.Mail.ProjectURL,
	}, a.metrics, a.logger)
}

func (a *app) contacts() *contact.Service {
	return contact.NewService(a.snapshots, a.platform, a.audit, a.sender, contact.Options{
		From: a.cfg.Mail.From,
	}, a.logger)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
