package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuidong/block-game/internal/config"
	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/meshing"
	"github.com/shuidong/block-game/internal/metrics"
	"github.com/shuidong/block-game/internal/registry"
	"github.com/shuidong/block-game/internal/storage"
	"github.com/shuidong/block-game/internal/world"
)

var testDims = world.Dimensions{ChunkSize: 8, WorldHeight: 2}

type fakeTarget struct {
	columns map[coord.Column]int
	updates []coord.Chunk
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{columns: make(map[coord.Column]int)}
}

func (f *fakeTarget) CreateColumn(pos coord.Column, meshes []*meshing.MeshBuildInfo) {
	f.columns[pos] = len(meshes)
}

func (f *fakeTarget) DestroyColumn(pos coord.Column) {
	delete(f.columns, pos)
}

func (f *fakeTarget) UpdateChunk(pos coord.Chunk, mesh *meshing.MeshBuildInfo) bool {
	if _, ok := f.columns[pos.Column()]; !ok {
		return false
	}
	f.updates = append(f.updates, pos)
	return true
}

func newTestEngine(t *testing.T, persist world.Persister) *Engine {
	t.Helper()
	config.SetRenderDistance(2)
	config.SetUnloadMargin(1)
	t.Cleanup(func() {
		config.SetRenderDistance(8)
		config.SetUnloadMargin(2)
	})

	store, err := world.NewStore(world.Options{
		Dims:      testDims,
		Terrain:   world.TerrainFlat,
		Generator: world.NewGenerator(3),
		Persister: persist,
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)

	streaming := config.Default().Streaming
	streaming.ColumnsPerTick = 4
	streaming.LoaderInterval = time.Millisecond
	streaming.RenderInterval = time.Millisecond
	streaming.SaveInterval = 5 * time.Millisecond
	streaming.TickInterval = time.Hour
	streaming.RenderWorkers = 2

	return New(Options{Store: store, Streaming: streaming, Logger: logging.Discard(), TickSeed: 1})
}

// settle runs load and render steps until nothing is left to do.
func settle(t *testing.T, e *Engine) {
	t.Helper()
	for range 100 {
		loaded := e.LoadStep()
		rendered := e.RenderStep()
		if loaded == 0 && rendered == 0 {
			return
		}
	}
	t.Fatal("streaming did not settle")
}

func TestLoadStepStreamsAroundViewer(t *testing.T) {
	e := newTestEngine(t, nil)
	settle(t, e)

	target := newFakeTarget()
	stats := e.Drain(target, 0)
	assert.Equal(t, 25, stats.Created)
	assert.Zero(t, stats.Destroyed)
	assert.Len(t, target.columns, 25)

	for _, pos := range coord.RectAround(coord.Column{}, 2).Columns() {
		assert.Contains(t, target.columns, pos)
		assert.Equal(t, testDims.WorldHeight, target.columns[pos])
	}
	// halo columns are loaded but never instantiated
	assert.Equal(t, 49, e.Store().LoadedCount())
}

func TestMovingViewerUnloadsOldColumns(t *testing.T) {
	e := newTestEngine(t, nil)
	settle(t, e)
	target := newFakeTarget()
	e.Drain(target, 0)

	e.SetViewer(1000, -1000)
	assert.Equal(t, coord.Column{X: 125, Z: -125}, e.ViewerColumn())
	settle(t, e)

	stats := e.Drain(target, 0)
	assert.Equal(t, 25, stats.Destroyed)
	assert.Equal(t, 25, stats.Created)
	assert.NotContains(t, target.columns, coord.Column{})
	assert.Contains(t, target.columns, coord.Column{X: 125, Z: -125})
	assert.False(t, e.Store().Loaded(coord.Column{}))
}

func TestViewerColumnFloorsNegativeCoordinates(t *testing.T) {
	e := newTestEngine(t, nil)
	e.SetViewer(-0.5, 7.9)
	assert.Equal(t, coord.Column{X: -1, Z: 0}, e.ViewerColumn())
	e.SetViewer(-8, -8.01)
	assert.Equal(t, coord.Column{X: -1, Z: -2}, e.ViewerColumn())
}

func TestRenderStepBuildsInlineWithoutPool(t *testing.T) {
	e := newTestEngine(t, nil)
	settle(t, e)
	target := newFakeTarget()
	e.Drain(target, 0)

	e.Store().SetBlock(3, 4, 3, registry.BlockStone)
	assert.Equal(t, 1, e.RenderStep())

	stats := e.Drain(target, 0)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, []coord.Chunk{{X: 0, Y: 0, Z: 0}}, target.updates)
}

func TestDrainRespectsBudget(t *testing.T) {
	e := newTestEngine(t, nil)
	settle(t, e)
	target := newFakeTarget()

	stats := e.Drain(target, 3)
	assert.Equal(t, 3, stats.Total())
	assert.Equal(t, 22, e.Store().QueueDepths().Instantiate)

	e.Drain(target, 0)
	assert.Len(t, target.columns, 25)
}

func TestDrainHoldsUpdatesUntilInstantiatesAreDone(t *testing.T) {
	e := newTestEngine(t, nil)
	settle(t, e)
	target := newFakeTarget()
	e.Drain(target, 20)

	e.Store().SetBlock(3, 4, 3, registry.BlockStone)
	e.RenderStep()

	stats := e.Drain(target, 5)
	assert.Equal(t, 5, stats.Created)
	assert.Zero(t, stats.Updated)
	assert.Equal(t, 1, e.Store().QueueDepths().Update)

	stats = e.Drain(target, 0)
	assert.Equal(t, 1, stats.Updated)
}

func TestDrainDiscardsUpdatesForUnknownColumns(t *testing.T) {
	e := newTestEngine(t, nil)
	settle(t, e)
	e.Drain(newFakeTarget(), 0)

	e.Store().SetBlock(3, 4, 3, registry.BlockStone)
	e.RenderStep()

	stats := e.Drain(newFakeTarget(), 0)
	assert.Equal(t, 1, stats.Discarded)
	assert.Zero(t, stats.Updated)
	// the column is still rendered, so the chunk is queued for another build
	assert.Equal(t, 1, e.Store().QueueDepths().Render)
}

func TestDrainDropsUpdatesForEvictedColumns(t *testing.T) {
	e := newTestEngine(t, nil)
	settle(t, e)
	e.Drain(newFakeTarget(), 0)

	e.Store().SetBlock(3, 4, 3, registry.BlockStone)
	e.RenderStep()
	far := coord.Column{X: 500, Z: 500}
	e.Store().UnloadColumnsOutsideRange(far, far)

	stats := e.Drain(newFakeTarget(), 0)
	assert.Equal(t, 1, stats.Discarded)
	assert.Equal(t, 25, stats.Destroyed)
	assert.Zero(t, e.Store().QueueDepths().Render)
}

func TestRequestedEditsApplyOnLoadStep(t *testing.T) {
	e := newTestEngine(t, nil)
	settle(t, e)
	target := newFakeTarget()
	e.Drain(target, 0)

	e.RequestSetBlock(3, 4, 3, registry.BlockStone)
	e.Drain(target, 0)
	assert.Equal(t, registry.BlockGrass, e.Store().GetBlock(3, 4, 3, registry.BlockAir))
	assert.Zero(t, e.Store().QueueDepths().Render)

	e.LoadStep()
	assert.Equal(t, registry.BlockStone, e.Store().GetBlock(3, 4, 3, registry.BlockAir))
	assert.Zero(t, e.ApplyEdits())

	e.RenderStep()
	e.Drain(target, 0)
	assert.Equal(t, []coord.Chunk{{}}, target.updates)
}

func TestStopAppliesPendingEdits(t *testing.T) {
	e := newTestEngine(t, nil)
	settle(t, e)
	e.RequestSetBlock(3, 4, 3, registry.BlockSand)
	e.RequestSetBlock(3, 4, 3, registry.BlockDirt)
	require.NoError(t, e.Stop())
	assert.Equal(t, registry.BlockDirt, e.Store().GetBlock(3, 4, 3, registry.BlockAir))
}

func TestStaleBuildsAreDropped(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := coord.Chunk{X: 1, Y: 0, Z: 2}

	first := e.nextSeq(pos)
	second := e.nextSeq(pos)
	assert.Greater(t, second, first)

	assert.False(t, e.forget(pos, first))
	assert.True(t, e.forget(pos, second))
	assert.False(t, e.forget(pos, second))
}

func TestLoadStepPublishesQueueDepths(t *testing.T) {
	e := newTestEngine(t, nil)
	reg := prometheus.NewRegistry()
	e.metrics = metrics.New(reg)

	e.LoadStep()

	families, err := reg.Gather()
	require.NoError(t, err)
	depths := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "blockgame_queue_depth" {
			continue
		}
		for _, m := range mf.GetMetric() {
			depths[m.GetLabel()[0].GetValue()] = m.GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(4), depths[metrics.QueueInstantiate])
	assert.Zero(t, depths[metrics.QueueDestroy])
}

func TestStartStopFlushesEdits(t *testing.T) {
	files, err := storage.NewFileStore(t.TempDir(), world.TerrainFlat, logging.Discard())
	require.NoError(t, err)

	e := newTestEngine(t, files)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	require.Error(t, e.Start(ctx))

	origin := coord.Column{}
	require.Eventually(t, func() bool {
		return e.Store().Rendered(origin)
	}, 5*time.Second, 5*time.Millisecond)

	target := newFakeTarget()
	e.Store().SetBlock(3, 4, 3, registry.BlockStone)
	require.Eventually(t, func() bool {
		e.Drain(target, 0)
		return len(target.updates) > 0
	}, 5*time.Second, 5*time.Millisecond)
	assert.Contains(t, target.updates, coord.Chunk{X: 0, Y: 0, Z: 0})

	require.NoError(t, e.Stop())

	col, err := files.LoadColumn(origin, testDims)
	require.NoError(t, err)
	assert.Equal(t, registry.BlockStone, col.Block(3, 4, 3))
}
