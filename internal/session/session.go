// Package session assembles a world from configuration: storage backend,
// store, metrics and engine, and tears them down in order.
package session

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shuidong/block-game/internal/config"
	"github.com/shuidong/block-game/internal/engine"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/metrics"
	"github.com/shuidong/block-game/internal/storage"
	"github.com/shuidong/block-game/internal/world"
)

type Session struct {
	Config  *config.Config
	Backend storage.Backend
	Store   *world.Store
	Engine  *engine.Engine
	Metrics *metrics.Metrics

	log *logging.Logger
}

// Open builds every component of cfg. reg may be nil to skip metrics.
// The engine is created but not started.
func Open(cfg *config.Config, reg prometheus.Registerer) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.GetLoggerManager().SetLevel(level)
	cfg.Apply()

	terrain, err := world.ParseTerrain(cfg.World.Terrain)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	backend, err := storage.Open(cfg.Storage.Backend, cfg.StorageRoot(), cfg.World.SaveName, terrain)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	store, err := world.NewStore(world.Options{
		Dims:           world.Dimensions{ChunkSize: cfg.World.ChunkSize, WorldHeight: cfg.World.WorldHeight},
		Terrain:        terrain,
		Generator:      world.NewGenerator(cfg.World.Seed),
		Persister:      backend,
		SmoothLighting: cfg.World.SmoothLighting,
		Metrics:        m,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	s := &Session{
		Config:  cfg,
		Backend: backend,
		Store:   store,
		Metrics: m,
		Engine: engine.New(engine.Options{
			Store:     store,
			Streaming: cfg.Streaming,
			Metrics:   m,
			TickSeed:  cfg.World.Seed,
		}),
		log: logging.Component("session"),
	}
	s.log.Info("Opened world %q (%s, seed %d) on %s storage",
		cfg.World.SaveName, terrain, cfg.World.Seed, cfg.Storage.Backend)
	return s, nil
}

// Close stops the engine, flushes modified columns and closes storage.
func (s *Session) Close() error {
	err := s.Engine.Stop()
	if closeErr := s.Backend.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close storage: %w", closeErr))
	}
	if err != nil {
		s.log.Error("Session closed with errors: %v", err)
		return err
	}
	s.log.Info("Session closed")
	return nil
}
