// Package engine drives a world store from background workers and hands
// the results to a single consumer through Drain.
package engine

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shuidong/block-game/internal/config"
	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/meshing"
	"github.com/shuidong/block-game/internal/metrics"
	"github.com/shuidong/block-game/internal/registry"
	"github.com/shuidong/block-game/internal/world"
)

// RenderTarget is the presentation side fed by Drain. All calls happen on the goroutine calling Drain.
type RenderTarget interface {
	CreateColumn(pos coord.Column, meshes []*meshing.MeshBuildInfo)
	DestroyColumn(pos coord.Column)
	// UpdateChunk returns false when the chunk's column is unknown to the target.
	UpdateChunk(pos coord.Chunk, mesh *meshing.MeshBuildInfo) bool
}

// DrainStats counts what one Drain call applied.
type DrainStats struct {
	Created   int
	Destroyed int
	Updated   int
	Discarded int
}

func (d DrainStats) Total() int {
	return d.Created + d.Destroyed + d.Updated + d.Discarded
}

type Options struct {
	Store     *world.Store
	Streaming config.StreamingConfig
	Logger    *logging.Logger
	Metrics   *metrics.Metrics
	// TickSeed seeds the random block ticks.
	TickSeed int64
}

// Engine owns the loader, render, save and tick workers of one store.
type Engine struct {
	store   *world.Store
	cfg     config.StreamingConfig
	log     *logging.Logger
	metrics *metrics.Metrics
	rng     *rand.Rand

	viewerX atomic.Uint64
	viewerZ atomic.Uint64

	pool    *meshing.WorkerPool
	results chan meshing.MeshResult

	// latest submitted build per chunk; older results are dropped
	seqMu    sync.Mutex
	seq      uint64
	inFlight map[coord.Chunk]uint64

	// block edits requested by the consumer, applied by the loader
	editMu sync.Mutex
	edits  []blockEdit

	cancel context.CancelFunc
	group  *errgroup.Group
}

type blockEdit struct {
	x, y, z int
	id      registry.BlockID
}

func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logging.Component("engine")
	}
	e := &Engine{
		store:    opts.Store,
		cfg:      opts.Streaming,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		rng:      rand.New(rand.NewSource(opts.TickSeed)),
		inFlight: make(map[coord.Chunk]uint64),
	}
	e.SetViewer(0, 0)
	return e
}

func (e *Engine) Store() *world.Store { return e.store }

// SetViewer moves the point columns are streamed around, in world units.
func (e *Engine) SetViewer(x, z float64) {
	e.viewerX.Store(math.Float64bits(x))
	e.viewerZ.Store(math.Float64bits(z))
}

// ViewerColumn is the column under the viewer.
func (e *Engine) ViewerColumn() coord.Column {
	x := math.Float64frombits(e.viewerX.Load())
	z := math.Float64frombits(e.viewerZ.Load())
	return coord.WorldToColumn(int(math.Floor(x)), int(math.Floor(z)), e.store.Dims().ChunkSize)
}

// LoadRadius is the radius in columns instantiated around the viewer.
func (e *Engine) LoadRadius() int { return config.GetChunkLoadRadius() }

// Start launches the workers. They run until ctx is done or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	if e.group != nil {
		return errors.New("engine already started")
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.group, ctx = errgroup.WithContext(ctx)

	workers := max(e.cfg.RenderWorkers, 1)
	e.pool = meshing.NewWorkerPool(workers, workers*16)
	e.results = make(chan meshing.MeshResult, workers*16)

	e.group.Go(func() error { return every(ctx, e.cfg.LoaderInterval, func() { e.LoadStep() }) })
	e.group.Go(func() error { return every(ctx, e.cfg.RenderInterval, func() { e.RenderStep() }) })
	e.group.Go(func() error { return e.collect(ctx) })
	e.group.Go(func() error { return every(ctx, e.cfg.SaveInterval, func() { e.SaveStep() }) })
	e.group.Go(func() error { return every(ctx, e.cfg.TickInterval, func() { e.TickStep() }) })

	e.log.Info("Engine started with %d render workers", workers)
	return nil
}

// Stop halts the workers, applies pending edits and writes every modified column.
func (e *Engine) Stop() error {
	if e.group == nil {
		e.ApplyEdits()
		return e.store.SaveAll()
	}
	e.cancel()
	err := e.group.Wait()
	e.pool.Shutdown()
	e.group = nil

	e.ApplyEdits()
	e.SaveStep()
	if saveErr := e.store.SaveAll(); saveErr != nil {
		err = errors.Join(err, saveErr)
	}
	e.log.Info("Engine stopped")
	return err
}

// every runs fn, then sleeps d, until ctx is done.
func every(ctx context.Context, d time.Duration, fn func()) error {
	if d <= 0 {
		d = 10 * time.Millisecond
	}
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		fn()
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// LoadStep applies queued edits, unloads columns past the evict radius and
// instantiates the next batch inside the load radius around the viewer.
func (e *Engine) LoadStep() int {
	center := e.ViewerColumn()
	keep := coord.RectAround(center, config.GetChunkEvictRadius())
	load := coord.RectAround(center, config.GetChunkLoadRadius())

	e.ApplyEdits()
	e.store.UnloadColumnsOutsideRange(keep.Min, keep.Max)
	n := e.store.LoadNextColumnsInRange(load.Min, load.Max, max(e.cfg.ColumnsPerTick, 1))
	e.publishDepths()
	return n
}

// RequestSetBlock queues a block change for the loader worker. It returns
// immediately, so the consumer never relights or runs block hooks itself.
func (e *Engine) RequestSetBlock(x, y, z int, id registry.BlockID) {
	e.editMu.Lock()
	e.edits = append(e.edits, blockEdit{x, y, z, id})
	e.editMu.Unlock()
}

// ApplyEdits writes the queued edits to the store in request order.
func (e *Engine) ApplyEdits() int {
	e.editMu.Lock()
	edits := e.edits
	e.edits = nil
	e.editMu.Unlock()

	for _, ed := range edits {
		e.store.SetBlock(ed.x, ed.y, ed.z, ed.id)
	}
	if len(edits) > 0 {
		e.log.Trace("Applied %d block edits", len(edits))
	}
	return len(edits)
}

// RenderStep hands every pending render task to the mesh pool, building
// inline when the pool is absent or full.
func (e *Engine) RenderStep() int {
	n := 0
	for task := e.store.NextRenderTask(); task != nil; task = e.store.NextRenderTask() {
		n++
		if e.pool != nil {
			job := meshing.MeshJob{Coord: task.Pos, Seq: e.nextSeq(task.Pos), Build: e.store.RenderChunk, ResultChan: e.results}
			if e.pool.SubmitJob(job) {
				continue
			}
			e.forget(task.Pos, job.Seq)
		}
		e.store.PerformRenderTask(task)
	}
	return n
}

func (e *Engine) nextSeq(pos coord.Chunk) uint64 {
	e.seqMu.Lock()
	defer e.seqMu.Unlock()
	e.seq++
	e.inFlight[pos] = e.seq
	return e.seq
}

// forget clears pos if seq is its latest build and reports whether it was.
func (e *Engine) forget(pos coord.Chunk, seq uint64) bool {
	e.seqMu.Lock()
	defer e.seqMu.Unlock()
	if e.inFlight[pos] != seq {
		return false
	}
	delete(e.inFlight, pos)
	return true
}

func (e *Engine) collect(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-e.results:
			if e.forget(res.Coord, res.Seq) {
				e.store.CompleteRender(res.Coord, res.Mesh)
			}
		}
	}
}

// SaveStep drains the save queue.
func (e *Engine) SaveStep() int {
	n := 0
	for task := e.store.NextSaveTask(); task != nil; task = e.store.NextSaveTask() {
		if err := e.store.PerformSaveTask(task); err == nil {
			n++
		}
	}
	return n
}

// TickStep runs one round of random block ticks.
func (e *Engine) TickStep() int {
	return e.store.RandomTick(e.rng, e.cfg.TicksPerColumn)
}

func (e *Engine) publishDepths() {
	if e.metrics == nil {
		return
	}
	d := e.store.QueueDepths()
	e.metrics.SetQueueDepth(metrics.QueueInstantiate, d.Instantiate)
	e.metrics.SetQueueDepth(metrics.QueueDestroy, d.Destroy)
	e.metrics.SetQueueDepth(metrics.QueueRender, d.Render)
	e.metrics.SetQueueDepth(metrics.QueueUpdate, d.Update)
	e.metrics.SetQueueDepth(metrics.QueueSave, d.Save)
}

// Drain applies up to budget pending tasks to target: destroys first, then
// instantiates, then mesh updates. Updates wait while instantiates are still
// pending so a column always exists before its chunks are replaced. A
// budget <= 0 drains everything.
func (e *Engine) Drain(target RenderTarget, budget int) DrainStats {
	var stats DrainStats
	left := func() bool { return budget <= 0 || stats.Total() < budget }

	for left() {
		task := e.store.NextDestroyTask()
		if task == nil {
			break
		}
		target.DestroyColumn(task.Pos)
		stats.Destroyed++
	}
	for left() {
		task := e.store.NextInstantiateTask()
		if task == nil {
			break
		}
		target.CreateColumn(task.Pos, task.Meshes)
		stats.Created++
	}
	if !left() {
		return stats
	}
	for left() {
		task := e.store.NextUpdateTask()
		if task == nil {
			break
		}
		if target.UpdateChunk(task.Pos, task.Mesh) {
			stats.Updated++
			continue
		}
		stats.Discarded++
		// the column's instantiate may still be on its way with an older mesh
		if e.store.Rendered(task.Pos.Column()) {
			e.store.MarkModified(task.Pos)
		}
	}
	return stats
}
