package meshing

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/shuidong/block-game/internal/coord"
)

// MeshJob represents a meshing job request
type MeshJob struct {
	Coord coord.Chunk
	// Seq orders builds of the same chunk; it is copied to the result
	Seq   uint64
	Build func(coord.Chunk) *MeshBuildInfo
	// Result channel - will be sent the result when done
	ResultChan chan<- MeshResult
}

// MeshResult contains the result of a meshing operation
type MeshResult struct {
	Coord    coord.Chunk
	Seq      uint64
	Mesh     *MeshBuildInfo
	Duration time.Duration
}

// WorkerPool runs mesh builds on a bounded pond pool.
type WorkerPool struct {
	pool      pond.Pool
	maxQueued uint64
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewWorkerPool creates a new mesh worker pool
func NewWorkerPool(workers int, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		pool:      pond.NewPool(max(workers, 1)),
		maxQueued: uint64(max(queueSize, 1)),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SubmitJob submits a mesh generation job to the pool
// Returns true if job was submitted successfully, false if queue is full
func (p *WorkerPool) SubmitJob(job MeshJob) bool {
	if p.ctx.Err() != nil || p.pool.WaitingTasks() >= p.maxQueued {
		return false
	}
	p.pool.Submit(func() {
		start := time.Now()
		mesh := job.Build(job.Coord)
		result := MeshResult{Coord: job.Coord, Seq: job.Seq, Mesh: mesh, Duration: time.Since(start)}

		select {
		case job.ResultChan <- result:
		case <-p.ctx.Done():
		}
	})
	return true
}

// Shutdown stops accepting jobs, unblocks pending result sends and waits for running builds.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.pool.StopAndWait()
}

// GetQueueLength returns the current number of jobs in the queue
func (p *WorkerPool) GetQueueLength() int {
	return int(p.pool.WaitingTasks())
}
