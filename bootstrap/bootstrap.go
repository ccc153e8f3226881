// Package bootstrap wires configuration, the item store, the field cache,
// metrics, and the field catalog into a running application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/artpar/contentcore/adapters/bolt"
	"github.com/artpar/contentcore/adapters/cache"
	"github.com/artpar/contentcore/adapters/memory"
	"github.com/artpar/contentcore/adapters/metrics"
	"github.com/artpar/contentcore/adapters/sqlite"
	"github.com/artpar/contentcore/app"
	"github.com/artpar/contentcore/config"
	"github.com/artpar/contentcore/core/schema"
	"github.com/artpar/contentcore/core/validation"
	"github.com/artpar/contentcore/domain/filter"
	"github.com/artpar/contentcore/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Store      ports.ItemStore
	FieldCache *cache.FieldCache
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	HTTPServer *http.Server

	mu  sync.RWMutex
	cfg *config.Config
}

// New opens the configured store, wraps it with metrics and the field
// cache, and seeds the catalog. With the cache enabled, Store is the cache,
// so every write through the app drops stale Field entries.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	logger.Info().Str("driver", cfg.Store.Driver).Msg("initializing contentcore")

	a := &App{Logger: logger, cfg: cfg}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewWithRegistry(a.Registry)

	store, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Store = metrics.InstrumentStore(store, cfg.Store.Driver, a.Metrics)

	if cfg.Cache.FieldCacheSize > 0 {
		fc, err := cache.NewFieldCache(a.Store, cfg.Cache.FieldCacheSize, a.Metrics)
		if err != nil {
			a.Store.Close()
			return nil, err
		}
		a.FieldCache = fc
		a.Store = fc
	}

	if _, err := a.Seed(ctx); err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}

	return a, nil
}

// OpenStore opens the item store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (ports.ItemStore, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return memory.NewItemStore(memory.WithLogger(logger)), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Str("dsn", cfg.DSN).Msg("sqlite store ready")
		return sqlite.NewItemStore(db, logger), nil

	case config.DriverBolt:
		store, err := bolt.Open(cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.DSN).Msg("bolt store ready")
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Selector returns the field cache when enabled, else the store.
func (a *App) Selector() ports.ItemSelector {
	if a.FieldCache != nil {
		return a.FieldCache
	}
	return a.Store
}

// Catalog assembles the built-in catalog and the configured catalog path.
func (a *App) Catalog() (schema.Catalog, error) {
	cfg := a.Config().Catalog

	var parts []schema.Catalog
	if cfg.SeedBuiltin {
		parts = append(parts, schema.Builtin())
	}
	if cfg.Path != "" {
		c, err := schema.Load(cfg.Path)
		if err != nil {
			return schema.Catalog{}, err
		}
		parts = append(parts, c)
	}
	merged := schema.Merge(parts...)
	if err := schema.Check(merged); err != nil {
		return schema.Catalog{}, err
	}
	return merged, nil
}

// Seed writes the catalog into the store and drops cached fields.
func (a *App) Seed(ctx context.Context) (schema.SeedResult, error) {
	c, err := a.Catalog()
	if err != nil {
		return schema.SeedResult{}, err
	}
	if len(c.Fields) == 0 {
		return schema.SeedResult{}, nil
	}

	res, err := schema.Seed(ctx, a.Store, c)
	if err != nil {
		return res, err
	}
	if a.FieldCache != nil {
		a.FieldCache.Purge()
	}
	a.Logger.Info().
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Msg("catalog seeded")
	return res, nil
}

// NewValidator builds a validator over fieldIDs loaded through the field
// cache, configured from the validation section.
func (a *App) NewValidator(ctx context.Context, fieldIDs []string) (*validation.Validator, error) {
	cfg := a.Config().Validation
	return validation.NewLoaded(ctx, a.Selector(), validation.Options{
		FieldIDs:            fieldIDs,
		Logger:              a.Logger,
		Recorder:            a.Metrics,
		LenientRepeaterKeys: cfg.LenientRepeaterKeys,
		MaxDepth:            cfg.MaxDepth,
	})
}

// Definitions loads an archetype and its fields, ready to create item
// handlers over the app's store.
func (a *App) Definitions(ctx context.Context, archetypeID string) (*app.Definitions, error) {
	cfg := a.Config().Validation
	return app.LoadDefinitions(ctx, a.Store, a.Selector(), archetypeID, validation.Options{
		Logger:              a.Logger,
		Recorder:            a.Metrics,
		LenientRepeaterKeys: cfg.LenientRepeaterKeys,
		MaxDepth:            cfg.MaxDepth,
	})
}

// FilterHandler returns a filter handler reporting to the app's metrics.
func (a *App) FilterHandler(fs filter.Filters) *filter.Handler {
	h := filter.NewHandler(fs, a.Logger)
	h.Observe(a.Metrics.ObserveFilter)
	return h
}

// Watch applies reloadable settings from holder: the log level, validation
// settings, and a reseed when the catalog changes.
func (a *App) Watch(ctx context.Context, holder *config.Holder) {
	holder.OnReload(a.Metrics.RecordConfigReload)
	holder.OnChange(func(next *config.Config) {
		a.mu.Lock()
		prev := a.cfg
		merged := *next
		merged.Store = prev.Store
		merged.Cache = prev.Cache
		merged.Logging.Format = prev.Logging.Format
		merged.Metrics = prev.Metrics
		a.cfg = &merged
		a.mu.Unlock()

		if next.Logging.Level != prev.Logging.Level {
			SetLevel(next.Logging.Level)
		}
		if next.Catalog != prev.Catalog {
			if _, err := a.Seed(ctx); err != nil {
				a.Logger.Error().Err(err).Msg("reseed after config change failed")
			}
		}
	})
}

// Run serves the operational endpoints on the metrics address and blocks
// until SIGINT, SIGTERM, or ctx ends.
func (a *App) Run(ctx context.Context) error {
	cfg := a.Config().Metrics
	a.HTTPServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		a.Logger.Info().Msg("context done, shutting down")
	}

	return a.Shutdown()
}

// Shutdown stops the HTTP server and closes the store.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("store close error")
			return err
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}
