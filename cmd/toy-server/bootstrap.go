package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/infra/storage"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/config"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/metrics"
)

// workshop is everything the commands share once wired.
type workshop struct {
	cfg      *config.Config
	logger   *logger.Logger
	store    *storage.Store // nil when storage is disabled
	eventLog *events.EventLog
	engine   *engine.Engine
	metrics  *metrics.Collector
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(level, os.Stdout, os.Stderr), nil
}

// wire opens storage, loads content and builds the engine. seed 0 picks one
// from the clock.
func wire(cfg *config.Config, log *logger.Logger, seed int64) (*workshop, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	w := &workshop{cfg: cfg, logger: log, metrics: metrics.NewCollector()}

	var persister events.EventPersister
	if cfg.Storage.Enabled {
		log.Info(fmt.Sprintf("Opening %s storage...", cfg.Storage.Driver))
		store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Source())
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		store.SetPoolSize(cfg.Tuning.DBMaxOpenConns, cfg.Tuning.DBMaxIdleConns)
		w.store = store
		persister = store
	}

	log.Info("Bootstrapping EventLog...")
	w.eventLog = events.NewEventLog(persister)
	w.eventLog.OnPersistError(func(e events.GameEvent, err error) {
		w.metrics.RecordPersistError()
		log.Warn("Failed to persist " + string(e.Type) + " " + e.ID + ": " + err.Error())
	})

	log.Info("Loading catalog " + cfg.Content.CatalogPath + "...")
	content, err := cfg.Content.Build(rng)
	if err != nil {
		w.Close()
		return nil, err
	}
	settings, err := cfg.Game.EngineSettings()
	if err != nil {
		w.Close()
		return nil, err
	}

	opts := []engine.Option{engine.WithRand(rng), engine.WithMetrics(w.metrics)}
	if w.store != nil {
		opts = append(opts, engine.WithArchive(w.store))
	}
	w.engine, err = engine.NewEngine(w.eventLog, log, settings, content, opts...)
	if err != nil {
		w.Close()
		return nil, err
	}
	log.Info(fmt.Sprintf("Engine ready: %d pieces, %d sets, %d scripted levels, seed %d",
		content.Catalog.Len(), content.Catalog.SetCount(), content.Requests.LevelCount(), seed))
	return w, nil
}

// Close waits for pending writes and releases storage.
func (w *workshop) Close() {
	if w.eventLog != nil {
		w.eventLog.Flush()
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.logger.Warn("Failed to close storage: " + err.Error())
		}
	}
}
