// Command voxeld streams a world around a fixed or wandering viewer without
// a window: columns are generated, lit, meshed, ticked and saved exactly as
// for the viewer, and the pipeline is exposed as Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/xlab/closer"

	"github.com/shuidong/block-game/internal/config"
	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/engine"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/meshing"
	"github.com/shuidong/block-game/internal/metrics"
	"github.com/shuidong/block-game/internal/session"
	"github.com/shuidong/block-game/internal/worldmap"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to the YAML config (default: $"+config.EnvPath+")")
		viewX      = flag.Float64("x", 0, "viewer x in blocks")
		viewZ      = flag.Float64("z", 0, "viewer z in blocks")
		wander     = flag.Float64("wander", 0, "walk the viewer along +x at this many blocks per second")
		statsEvery = flag.Duration("stats", 5*time.Second, "interval between status lines")
		mapOut     = flag.String("map", "", "write a PNG of every stored column to this path and exit")
		mapScale   = flag.Int("map_scale", 2, "pixels per block of the exported map")
	)
	flag.Parse()

	log := logging.Component("voxeld")

	cfg, err := config.Load(*configPath)
	if err != nil {
		closer.Fatalln(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := session.Open(cfg, reg)
	if err != nil {
		closer.Fatalln(err)
	}
	closer.Bind(func() {
		if err := s.Close(); err != nil {
			log.Error("Shutdown: %v", err)
		}
	})

	if *mapOut != "" {
		if err := exportStored(s, *mapOut, *mapScale); err != nil {
			log.Error("Map export failed: %v", err)
		}
		closer.Close()
		return
	}

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: metrics.Handler(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server: %v", err)
			}
		}()
		closer.Bind(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Metrics server shutdown: %v", err)
			}
		})
		log.Info("Serving metrics on %s/metrics", cfg.Metrics.Listen)
	}

	s.Engine.SetViewer(*viewX, *viewZ)
	if err := s.Engine.Start(context.Background()); err != nil {
		closer.Fatalln(err)
	}

	go consume(s.Engine, *viewX, *viewZ, *wander, *statsEvery, log)
	closer.Hold()
}

// counter stands in for a renderer: it tracks which columns exist and the
// faces they hold.
type counter struct {
	faces   map[coord.Column][]int
	updates int
}

func (c *counter) CreateColumn(pos coord.Column, meshes []*meshing.MeshBuildInfo) {
	faces := make([]int, len(meshes))
	for i, m := range meshes {
		faces[i] = m.FaceCount()
	}
	c.faces[pos] = faces
}

func (c *counter) DestroyColumn(pos coord.Column) {
	delete(c.faces, pos)
}

func (c *counter) UpdateChunk(pos coord.Chunk, mesh *meshing.MeshBuildInfo) bool {
	col, ok := c.faces[pos.Column()]
	if !ok || pos.Y < 0 || pos.Y >= len(col) {
		return false
	}
	col[pos.Y] = mesh.FaceCount()
	c.updates++
	return true
}

func (c *counter) total() int {
	n := 0
	for _, col := range c.faces {
		for _, f := range col {
			n += f
		}
	}
	return n
}

// consume drains the engine like a render thread would and logs progress.
func consume(e *engine.Engine, x, z, wander float64, every time.Duration, log *logging.Logger) {
	target := &counter{faces: make(map[coord.Column][]int)}
	start := time.Now()
	lastStats := start
	frame := time.NewTicker(16 * time.Millisecond)
	defer frame.Stop()

	for range frame.C {
		if wander > 0 {
			e.SetViewer(x+wander*time.Since(start).Seconds(), z)
		}
		e.Drain(target, 256)

		if time.Since(lastStats) < every {
			continue
		}
		lastStats = time.Now()
		store := e.Store()
		depths := store.QueueDepths()
		log.Info("viewer %v | %d rendered, %d loaded | %s faces | %s updates | queued %d (inst %d, render %d, save %d)",
			e.ViewerColumn(), len(target.faces), store.LoadedCount(),
			humanize.Comma(int64(target.total())), humanize.Comma(int64(target.updates)),
			depths.Total(), depths.Instantiate, depths.Render, depths.Save)
	}
}

// exportStored renders every column the backend holds.
func exportStored(s *session.Session, path string, scale int) error {
	cols, err := s.Backend.Columns()
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return errors.New("no stored columns")
	}
	r := worldmap.Bounds(cols)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dims := s.Store.Dims()
	src := worldmap.FromPersister(s.Backend, dims)
	if err := worldmap.Export(f, src, r, dims, max(scale, 1)); err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}
	w := (r.Max.X - r.Min.X + 1) * dims.ChunkSize * max(scale, 1)
	h := (r.Max.Z - r.Min.Z + 1) * dims.ChunkSize * max(scale, 1)
	fmt.Printf("%s: %d columns, %dx%d px, %s\n", path, len(cols), w, h, humanize.Bytes(uint64(info.Size())))
	return nil
}
