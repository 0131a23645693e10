package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/HerbHall/videocatalog/internal/config"
	"github.com/HerbHall/videocatalog/internal/logging"
	"github.com/HerbHall/videocatalog/internal/metrics"
	"github.com/HerbHall/videocatalog/internal/services"
	"github.com/HerbHall/videocatalog/internal/store"
	"github.com/HerbHall/videocatalog/internal/version"
)

// app holds the components shared by the serve and seed commands.
type app struct {
	settings config.Settings
	logger   *zap.Logger
	metrics  *metrics.Metrics
	store    *store.SQLiteStore // nil for the memory driver
	repo     services.CategoryRepository
	service  *services.CategoryService
}

// loadSettings reads configuration from configPath and environment.
func loadSettings(configPath string) (config.Settings, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Settings{}, err
	}
	return cfg.Settings()
}

// newApp builds the logger, metrics, storage and category service for s.
// A nil logger builds one from s.Log.
func newApp(ctx context.Context, s config.Settings, logger *zap.Logger) (*app, error) {
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:   s.Log.Level,
			Format:  s.Log.Format,
			Version: version.Short(),
		})
		if err != nil {
			return nil, err
		}
	}

	m, err := metrics.New(nil)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	a := &app{settings: s, logger: logger, metrics: m}

	var repo services.CategoryRepository
	switch s.Storage.Driver {
	case config.DriverMemory:
		repo = services.NewInMemoryCategoryRepository()
	case config.DriverSQLite:
		if dir := filepath.Dir(s.Storage.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		a.store, err = store.New(s.Storage.Path)
		if err != nil {
			return nil, err
		}
		if err := m.RegisterDB(a.store.DB(), "catalog"); err != nil {
			a.store.Close()
			return nil, fmt.Errorf("register db metrics: %w", err)
		}
		repo, err = services.NewSQLiteCategoryRepository(ctx, a.store)
		if err != nil {
			a.store.Close()
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.Storage.Driver)
	}

	a.repo = metrics.InstrumentRepository(repo, "categories", m)
	a.service = services.NewCategoryService(a.repo, logger)

	logger.Info("catalog storage ready",
		zap.String("driver", s.Storage.Driver),
		zap.String("path", a.storagePath()),
	)
	return a, nil
}

func (a *app) storagePath() string {
	if a.store == nil {
		return ""
	}
	return a.store.Path()
}

// ready reports whether storage can serve queries.
func (a *app) ready(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.DB().PingContext(ctx)
}

// close flushes the WAL and releases the database.
func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Checkpoint(context.Background()); err != nil {
		a.logger.Warn("WAL checkpoint on close failed", zap.Error(err))
	}
	return a.store.Close()
}
