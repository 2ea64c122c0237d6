package session

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuidong/block-game/internal/config"
	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/registry"
	"github.com/shuidong/block-game/internal/storage"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.World.SaveRoot = t.TempDir()
	cfg.World.Terrain = "flat"
	cfg.World.ChunkSize = 8
	cfg.World.WorldHeight = 2
	cfg.Streaming.LoadRadius = 2
	cfg.Streaming.ColumnsPerTick = 25
	cfg.Storage.Backend = backend
	cfg.LogLevel = "ERROR"
	t.Cleanup(func() { config.Default().Apply() })
	return cfg
}

func TestEditsSurviveReopen(t *testing.T) {
	for _, backend := range []string{storage.KindFile, storage.KindBadger, storage.KindSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)

			s, err := Open(cfg, prometheus.NewRegistry())
			require.NoError(t, err)
			s.Engine.LoadStep()
			require.True(t, s.Store.Loaded(coord.Column{}))
			s.Store.SetBlock(2, 9, 5, registry.BlockSand)
			require.NoError(t, s.Close())

			s, err = Open(cfg, nil)
			require.NoError(t, err)
			defer s.Close()
			cols, err := s.Backend.Columns()
			require.NoError(t, err)
			assert.Contains(t, cols, coord.Column{})

			s.Engine.LoadStep()
			assert.Equal(t, registry.BlockSand, s.Store.GetBlock(2, 9, 5, registry.BlockAir))
		})
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t, "tape")
	_, err := Open(cfg, nil)
	assert.ErrorContains(t, err, "unknown storage backend")

	cfg = testConfig(t, storage.KindFile)
	cfg.LogLevel = "LOUD"
	_, err = Open(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig(t, storage.KindFile)
	cfg.World.Terrain = "lava"
	_, err = Open(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig(t, storage.KindFile)
	cfg.World.ChunkSize = 2
	_, err = Open(cfg, nil)
	assert.Error(t, err)
}

func TestOpenAppliesStreamingRadius(t *testing.T) {
	cfg := testConfig(t, storage.KindFile)
	cfg.Streaming.LoadRadius = 3
	s, err := Open(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 3, s.Engine.LoadRadius())
	assert.Equal(t, 3, config.GetRenderDistance())
}
