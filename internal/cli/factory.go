// Package cli wires configuration into a runnable Scanner and implements the
// commands of the sharewalk binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/sharewalk"
	"github.com/aretw0/sharewalk/internal/config"
	"github.com/aretw0/sharewalk/pkg/adapters/badger"
	"github.com/aretw0/sharewalk/pkg/adapters/drive"
	"github.com/aretw0/sharewalk/pkg/adapters/file"
	"github.com/aretw0/sharewalk/pkg/adapters/redis"
	"github.com/aretw0/sharewalk/pkg/adapters/sheets"
	"github.com/aretw0/sharewalk/pkg/adapters/sqlite"
	"github.com/aretw0/sharewalk/pkg/observability"
	"github.com/aretw0/sharewalk/pkg/persistence/middleware"
	"github.com/aretw0/sharewalk/pkg/ports"
	"github.com/aretw0/sharewalk/pkg/session"
)

// Tree bundles a tree provider with its sharing source.
type Tree interface {
	ports.TreeProvider
	ports.SharingSource
}

// App is a fully wired Scanner plus the resources it holds.
type App struct {
	Config  config.Config
	Scanner *sharewalk.Scanner
	Metrics *observability.Metrics
	Logger  *slog.Logger

	closers []io.Closer
}

// Close releases every store the App opened.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	tree  Tree
	clock sharewalk.Clock
}

// WithTree replaces the Drive provider. Used by tests and embedders.
func WithTree(tree Tree) BuildOption {
	return func(o *buildOptions) {
		o.tree = tree
	}
}

// WithClock replaces the system clock.
func WithClock(clock sharewalk.Clock) BuildOption {
	return func(o *buildOptions) {
		o.clock = clock
	}
}

// Build opens the configured backends and assembles the Scanner.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...BuildOption) (_ *App, err error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	app := &App{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}
	defer func() {
		// Release whatever was opened before the failure.
		if err != nil {
			_ = app.Close()
		}
	}()

	tree := bo.tree
	if tree == nil {
		if cfg.Drive.CredentialsFile == "" {
			return nil, errors.New("drive.credentials_file is required")
		}
		tree, err = drive.New(ctx, cfg.Drive.CredentialsFile,
			drive.WithRootID(cfg.Drive.RootID),
			drive.WithRateLimit(cfg.Drive.RateLimit, cfg.Drive.Burst),
			drive.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
	}

	var sqliteStore *sqlite.Store
	openSQLite := func(path string) (*sqlite.Store, error) {
		if sqliteStore != nil {
			return sqliteStore, nil
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, s)
		sqliteStore = s
		return s, nil
	}

	// Checkpoint and output share one database when both use sqlite.
	if cfg.Checkpoint.Backend == config.BackendSQLite && cfg.Output.Backend == config.BackendSQLite &&
		filepath.Clean(cfg.Checkpoint.Path) != filepath.Clean(cfg.Output.Path) {
		return nil, errors.New("checkpoint.path and output.path must match when both use sqlite")
	}

	var (
		store     ports.CheckpointStore
		redisConn *redis.Store
	)
	switch cfg.Checkpoint.Backend {
	case config.BackendFile:
		store = file.New(cfg.Checkpoint.Path)
	case config.BackendRedis:
		rc := cfg.Checkpoint.Redis
		redisConn = redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		app.closers = append(app.closers, redisConn)
		store = redisConn
	case config.BackendBadger:
		bcfg := badger.DefaultConfig(cfg.Checkpoint.Path)
		bcfg.Logger = logger
		b, err := badger.Open(bcfg)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, b)
		store = b
	case config.BackendSQLite:
		s, err := openSQLite(cfg.Checkpoint.Path)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Checkpoint.Backend)
	}

	if enc := cfg.Checkpoint.Encryption; enc.Key != "" {
		mw, err := encryption(enc)
		if err != nil {
			return nil, err
		}
		store = middleware.Chain(store, mw)
	}

	var output ports.OutputStore
	switch cfg.Output.Backend {
	case config.BackendSQLite:
		s, err := openSQLite(cfg.Output.Path)
		if err != nil {
			return nil, err
		}
		output = s
	case config.BackendSheets:
		if cfg.Drive.CredentialsFile == "" {
			return nil, errors.New("drive.credentials_file is required for the sheets output")
		}
		output, err = sheets.New(ctx, cfg.Drive.CredentialsFile, cfg.Output.SpreadsheetID, sheets.WithLogger(logger))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown output backend %q", cfg.Output.Backend)
	}

	scannerOpts := []sharewalk.Option{
		sharewalk.WithLogger(logger),
		sharewalk.WithCheckpointKey(cfg.Checkpoint.Key),
		sharewalk.WithLifecycleHooks(observability.Chain(app.Metrics.Hooks(), debugHooks(logger))),
	}
	if bo.clock != nil {
		scannerOpts = append(scannerOpts, sharewalk.WithClock(bo.clock))
	}
	if cfg.Lock.Enabled && redisConn != nil {
		locker := redis.NewLocker(redisConn.Client(), cfg.Checkpoint.Redis.Prefix)
		scannerOpts = append(scannerOpts, sharewalk.WithGuard(session.NewManager(
			session.WithLocker(locker),
			session.WithLockTTL(cfg.Lock.TTL),
			session.WithLogger(logger),
		)))
	}

	app.Scanner, err = sharewalk.New(tree, tree, store, output, scannerOpts...)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func encryption(cfg config.EncryptionConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("checkpoint.encryption.key: %w", err)
	}
	ec := middleware.EncryptionConfig{ActiveKey: active}
	for i, s := range cfg.FallbackKeys {
		k, err := middleware.ParseKey(s)
		if err != nil {
			return nil, fmt.Errorf("checkpoint.encryption.fallback_keys[%d]: %w", i, err)
		}
		ec.FallbackKeys = append(ec.FallbackKeys, k)
	}
	return middleware.NewEncryption(ec)
}
