package world

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/meshing"
	"github.com/shuidong/block-game/internal/metrics"
	"github.com/shuidong/block-game/internal/profiling"
	"github.com/shuidong/block-game/internal/registry"
)

// Options configures a Store.
type Options struct {
	Dims           Dimensions
	Terrain        TerrainType
	Generator      TerrainGenerator
	Persister      Persister
	SmoothLighting bool
	Logger         *logging.Logger
	Metrics        *metrics.Metrics
}

// Store owns every loaded column. One mutex guards the column map, the
// rendered set and all column arrays; each task queue has its own lock and
// queue operations never run while the store lock is held.
type Store struct {
	dims    Dimensions
	terrain TerrainType
	gen     TerrainGenerator
	persist Persister
	meshOpt meshing.Options
	log     *logging.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	columns  map[coord.Column]*Column
	last     *Column
	rendered map[coord.Column]struct{}
	touched  map[coord.Chunk]struct{}
	modified map[coord.Column]struct{}

	instantiate *taskQueue[coord.Column, *ColumnInstantiateTask]
	destroy     *taskQueue[coord.Column, *ColumnDestroyTask]
	render      *taskQueue[coord.Chunk, *ChunkRenderTask]
	update      *taskQueue[coord.Chunk, *ChunkUpdateTask]
	save        *taskQueue[coord.Column, *ColumnSaveTask]
}

func NewStore(opts Options) (*Store, error) {
	if opts.Dims == (Dimensions{}) {
		opts.Dims = DefaultDimensions
	}
	if err := opts.Dims.Validate(); err != nil {
		return nil, fmt.Errorf("world dimensions: %w", err)
	}
	if opts.Generator == nil {
		opts.Generator = NewGenerator(0)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Component("world")
	}
	return &Store{
		dims:    opts.Dims,
		terrain: opts.Terrain,
		gen:     opts.Generator,
		persist: opts.Persister,
		meshOpt: meshing.Options{ChunkSize: opts.Dims.ChunkSize, SmoothLighting: opts.SmoothLighting},
		log:     opts.Logger,
		metrics: opts.Metrics,

		columns:  make(map[coord.Column]*Column),
		rendered: make(map[coord.Column]struct{}),
		touched:  make(map[coord.Chunk]struct{}),
		modified: make(map[coord.Column]struct{}),

		instantiate: newTaskQueue(func(t *ColumnInstantiateTask) coord.Column { return t.Pos }),
		destroy:     newTaskQueue(func(t *ColumnDestroyTask) coord.Column { return t.Pos }),
		render:      newTaskQueue(func(t *ChunkRenderTask) coord.Chunk { return t.Pos }),
		update:      newTaskQueue[coord.Chunk, *ChunkUpdateTask](nil),
		save:        newTaskQueue(func(t *ColumnSaveTask) coord.Column { return t.Pos }),
	}, nil
}

func (s *Store) Dims() Dimensions    { return s.dims }
func (s *Store) Terrain() TerrainType { return s.terrain }

// access is the lock-free view of the store used while s.mu is held. It
// serves block hooks, flood fills and the mesh builder.
type access struct {
	s *Store
	// persistLight marks columns modified when their light changes
	persistLight bool
}

func (s *Store) columnLocked(pos coord.Column) *Column {
	if s.last != nil && s.last.Pos == pos {
		return s.last
	}
	col := s.columns[pos]
	if col != nil {
		s.last = col
	}
	return col
}

func (s *Store) resolve(x, y, z int) (col *Column, lx, lz int, ok bool) {
	if y < 0 || y >= s.dims.Height() {
		return nil, 0, 0, false
	}
	size := s.dims.ChunkSize
	col = s.columnLocked(coord.WorldToColumn(x, z, size))
	if col == nil {
		return nil, 0, 0, false
	}
	return col, coord.Mod(x, size), coord.Mod(z, size), true
}

// touch records every chunk whose mesh reads cell (x, y, z).
func (s *Store) touch(x, y, z int) {
	size := s.dims.ChunkSize
	around := func(v int) []int {
		c, m := coord.FloorDiv(v, size), coord.Mod(v, size)
		switch m {
		case 0:
			return []int{c, c - 1}
		case size - 1:
			return []int{c, c + 1}
		}
		return []int{c}
	}
	ys := around(y)
	for _, cx := range around(x) {
		for _, cz := range around(z) {
			for _, cy := range ys {
				if cy >= 0 && cy < s.dims.WorldHeight {
					s.touched[coord.Chunk{X: cx, Y: cy, Z: cz}] = struct{}{}
				}
			}
		}
	}
}

func (a access) GetBlock(x, y, z int, def registry.BlockID) registry.BlockID {
	col, lx, lz, ok := a.s.resolve(x, y, z)
	if !ok {
		return def
	}
	return col.Block(lx, y, lz)
}

func (a access) SetBlock(x, y, z int, id registry.BlockID) {
	a.s.setBlockLocked(x, y, z, id)
}

func (a access) BlockAt(chunk coord.Chunk, x, y, z int, def registry.BlockID) registry.BlockID {
	ox, oy, oz := chunk.Origin(a.s.dims.ChunkSize)
	return a.GetBlock(ox+x, oy+y, oz+z, def)
}

func (a access) LightAt(chunk coord.Chunk, x, y, z int, def uint8) uint8 {
	ox, oy, oz := chunk.Origin(a.s.dims.ChunkSize)
	if l, ok := a.lightAt(ox+x, oy+y, oz+z); ok {
		return l
	}
	return def
}

func (a access) volumeHeight() int { return a.s.dims.Height() }

func (a access) opaqueAt(x, y, z int) (bool, bool) {
	col, lx, lz, ok := a.s.resolve(x, y, z)
	if !ok {
		return false, false
	}
	return registry.IsOpaque(col.Block(lx, y, lz)), true
}

func (a access) lightAt(x, y, z int) (uint8, bool) {
	col, lx, lz, ok := a.s.resolve(x, y, z)
	if !ok {
		return 0, false
	}
	return col.Light(lx, y, lz), true
}

func (a access) setLightAt(x, y, z int, level uint8) {
	col, lx, lz, ok := a.s.resolve(x, y, z)
	if !ok {
		return
	}
	col.SetLight(lx, y, lz, level)
	a.s.touch(x, y, z)
	if a.persistLight {
		col.modified = true
		a.s.modified[col.Pos] = struct{}{}
	}
}

// GetBlock returns the block at a world position, or def when its column is not loaded.
func (s *Store) GetBlock(x, y, z int, def registry.BlockID) registry.BlockID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return access{s: s}.GetBlock(x, y, z, def)
}

func (s *Store) GetLight(x, y, z int, def uint8) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := (access{s: s}).lightAt(x, y, z); ok {
		return l
	}
	return def
}

// BlockAt reads relative to a chunk origin.
func (s *Store) BlockAt(chunk coord.Chunk, x, y, z int, def registry.BlockID) registry.BlockID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return access{s: s}.BlockAt(chunk, x, y, z, def)
}

func (s *Store) LightAt(chunk coord.Chunk, x, y, z int, def uint8) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return access{s: s}.LightAt(chunk, x, y, z, def)
}

// SetBlock replaces a block and relights around it. Writes to unloaded
// columns are dropped. Indestructible blocks are not protected here; callers
// check registry.CanBreak.
func (s *Store) SetBlock(x, y, z int, id registry.BlockID) {
	s.mu.Lock()
	s.setBlockLocked(x, y, z, id)
	render, save := s.takeChangesLocked()
	s.mu.Unlock()
	s.schedule(render, save)
}

// SetLight writes a light level without propagating it.
func (s *Store) SetLight(x, y, z int, level uint8) {
	s.mu.Lock()
	access{s: s, persistLight: true}.setLightAt(x, y, z, level)
	render, save := s.takeChangesLocked()
	s.mu.Unlock()
	s.schedule(render, save)
}

func (s *Store) setBlockLocked(x, y, z int, id registry.BlockID) {
	col, lx, lz, ok := s.resolve(x, y, z)
	if !ok {
		return
	}
	old := col.Block(lx, y, lz)
	if old == id {
		return
	}
	w := access{s: s, persistLight: true}
	if hook := registry.Get(old).OnBreak; hook != nil {
		hook(w, x, y, z, id)
	}
	old = col.Block(lx, y, lz)
	col.SetBlock(lx, y, lz, id)
	col.modified = true
	s.modified[col.Pos] = struct{}{}
	s.touch(x, y, z)

	if hook := registry.Get(id).OnPlace; hook != nil {
		hook(w, x, y, z, old)
	}
	// OnPlace may have replaced the block again
	now := col.Block(lx, y, lz)
	if wasOpaque, isOpaque := registry.IsOpaque(old), registry.IsOpaque(now); wasOpaque != isOpaque {
		s.relightLocked(x, y, z, isOpaque)
	}
}

func (s *Store) relightLocked(x, y, z int, nowOpaque bool) {
	defer profiling.Track("world.relight")()
	s.metrics.LightUpdate()

	w := access{s: s, persistLight: true}
	sky := s.canSeeSkyLocked(x, y, z)
	if nowOpaque {
		seeds := []cell{{x, y, z}}
		if sky {
			for by := y - 1; by >= 0; by-- {
				if opaque, _ := w.opaqueAt(x, by, z); opaque {
					break
				}
				seeds = append(seeds, cell{x, by, z})
			}
		}
		floodDark(w, seeds)
		return
	}

	if sky {
		for by := y; by >= 0; by-- {
			if opaque, _ := w.opaqueAt(x, by, z); opaque {
				break
			}
			floodLight(w, cell{x, by, z}, MaxLight, true)
		}
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				c := cell{x + dx, y + dy, z + dz}
				if l, ok := w.lightAt(c.x, c.y, c.z); ok && l > 0 {
					floodLight(w, c, int(l), true)
				}
			}
		}
	}
}

// CanSeeSky reports whether nothing opaque lies above (x, y, z). Unloaded
// columns and cells below the world never see the sky.
func (s *Store) CanSeeSky(x, y, z int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSeeSkyLocked(x, y, z)
}

func (s *Store) canSeeSkyLocked(x, y, z int) bool {
	if y < 0 {
		return false
	}
	col, lx, lz, ok := s.resolve(x, min(y, s.dims.Height()-1), z)
	if !ok {
		return false
	}
	if y >= col.maxHeight {
		return true
	}
	for ty := y + 1; ty <= col.maxHeight; ty++ {
		if registry.IsOpaque(col.Block(lx, ty, lz)) {
			return false
		}
	}
	return true
}

// FloodFillLight spreads level outward from a world position.
func (s *Store) FloodFillLight(x, y, z, level int, isSource bool) {
	s.mu.Lock()
	floodLight(access{s: s, persistLight: true}, cell{x, y, z}, min(level, MaxLight), isSource)
	render, save := s.takeChangesLocked()
	s.mu.Unlock()
	s.schedule(render, save)
}

// FloodFillDark removes the light that (x, y, z) may have fed and refloods from its surroundings.
func (s *Store) FloodFillDark(x, y, z int) {
	s.mu.Lock()
	floodDark(access{s: s, persistLight: true}, []cell{{x, y, z}})
	render, save := s.takeChangesLocked()
	s.mu.Unlock()
	s.schedule(render, save)
}

// takeChangesLocked drains the change sets: chunks of rendered columns to
// re-mesh and modified columns to save.
func (s *Store) takeChangesLocked() (render []coord.Chunk, save []coord.Column) {
	for c := range s.touched {
		if _, ok := s.rendered[c.Column()]; ok {
			render = append(render, c)
		}
	}
	clear(s.touched)
	if s.persist != nil {
		for c := range s.modified {
			if _, ok := s.columns[c]; ok {
				save = append(save, c)
			}
		}
	}
	clear(s.modified)
	slices.SortFunc(render, compareChunks)
	slices.SortFunc(save, compareColumns)
	return render, save
}

func (s *Store) schedule(render []coord.Chunk, save []coord.Column) {
	for _, c := range render {
		s.render.Push(&ChunkRenderTask{Pos: c})
	}
	for _, c := range save {
		s.save.Push(&ColumnSaveTask{Pos: c})
	}
}

// MarkModified queues a re-mesh of the chunk and a save of its column.
// Duplicates of a pending task are dropped.
func (s *Store) MarkModified(pos coord.Chunk) {
	s.render.Push(&ChunkRenderTask{Pos: pos})
	s.save.Push(&ColumnSaveTask{Pos: pos.Column()})
}

func (s *Store) NextInstantiateTask() *ColumnInstantiateTask {
	t, _ := s.instantiate.Pop()
	return t
}

func (s *Store) NextDestroyTask() *ColumnDestroyTask {
	t, _ := s.destroy.Pop()
	return t
}

func (s *Store) NextRenderTask() *ChunkRenderTask {
	t, _ := s.render.Pop()
	return t
}

func (s *Store) NextUpdateTask() *ChunkUpdateTask {
	t, _ := s.update.Pop()
	return t
}

func (s *Store) NextSaveTask() *ColumnSaveTask {
	t, _ := s.save.Pop()
	return t
}

func (s *Store) QueueDepths() QueueDepths {
	return QueueDepths{
		Instantiate: s.instantiate.Len(),
		Destroy:     s.destroy.Len(),
		Render:      s.render.Len(),
		Update:      s.update.Len(),
		Save:        s.save.Len(),
	}
}

// RenderChunk builds the mesh of one chunk. Chunks of absent columns and
// chunks above the column's highest block yield an empty mesh.
func (s *Store) RenderChunk(pos coord.Chunk) *meshing.MeshBuildInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderChunkLocked(pos)
}

func (s *Store) renderChunkLocked(pos coord.Chunk) *meshing.MeshBuildInfo {
	col := s.columnLocked(pos.Column())
	if col == nil || pos.Y < 0 || pos.Y >= s.dims.WorldHeight || pos.Y*s.dims.ChunkSize > col.maxHeight {
		return meshing.NewMeshBuildInfo().Build()
	}
	start := time.Now()
	mesh := meshing.BuildChunk(access{s: s}, pos, s.meshOpt)
	s.metrics.ChunkMeshed(time.Since(start))
	return mesh
}

// RenderColumn builds every chunk mesh of a column, bottom first.
func (s *Store) RenderColumn(pos coord.Column) []*meshing.MeshBuildInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderColumnLocked(pos)
}

func (s *Store) renderColumnLocked(pos coord.Column) []*meshing.MeshBuildInfo {
	meshes := make([]*meshing.MeshBuildInfo, s.dims.WorldHeight)
	for y := range meshes {
		meshes[y] = s.renderChunkLocked(pos.Chunk(y))
	}
	return meshes
}

// PerformRenderTask rebuilds the task's chunk and queues the result as an
// update. Tasks for columns that are no longer rendered are dropped.
func (s *Store) PerformRenderTask(task *ChunkRenderTask) {
	if task == nil || !s.Rendered(task.Pos.Column()) {
		return
	}
	s.CompleteRender(task.Pos, s.RenderChunk(task.Pos))
}

// CompleteRender queues a mesh built elsewhere for the consumer.
func (s *Store) CompleteRender(pos coord.Chunk, mesh *meshing.MeshBuildInfo) bool {
	if mesh == nil || !s.Rendered(pos.Column()) {
		return false
	}
	return s.update.Push(&ChunkUpdateTask{Pos: pos, Mesh: mesh})
}

// PerformSaveTask writes the task's column when it is still loaded and modified.
func (s *Store) PerformSaveTask(task *ColumnSaveTask) error {
	if task == nil || s.persist == nil {
		return nil
	}
	s.mu.Lock()
	col := s.columns[task.Pos]
	if col == nil || !col.modified {
		s.mu.Unlock()
		return nil
	}
	snapshot := col.Clone()
	col.modified = false
	s.mu.Unlock()

	if err := s.saveColumn(snapshot); err != nil {
		s.mu.Lock()
		if s.columns[task.Pos] == col {
			col.modified = true
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) saveColumn(col *Column) error {
	if err := s.persist.SaveColumn(col); err != nil {
		s.metrics.StorageError("save")
		s.log.Error("Failed to save column %v: %v", col.Pos, err)
		return fmt.Errorf("save column %v: %w", col.Pos, err)
	}
	s.metrics.ColumnSaved()
	return nil
}

// SaveAll writes every modified column.
func (s *Store) SaveAll() error {
	if s.persist == nil {
		return nil
	}
	s.mu.Lock()
	var pending []*Column
	for _, col := range s.columns {
		if col.modified {
			pending = append(pending, col.Clone())
			col.modified = false
		}
	}
	s.mu.Unlock()

	slices.SortFunc(pending, func(a, b *Column) int { return compareColumns(a.Pos, b.Pos) })
	var errs []error
	for _, col := range pending {
		if err := s.saveColumn(col); err != nil {
			errs = append(errs, err)
		}
	}
	if len(pending) > 0 {
		s.log.Info("Saved %d columns", len(pending))
	}
	return errors.Join(errs...)
}

// RandomTick runs the tick hook of perColumn random cells in every loaded
// column and returns how many hooks ran.
func (s *Store) RandomTick(rng *rand.Rand, perColumn int) int {
	s.mu.Lock()
	positions := make([]coord.Column, 0, len(s.columns))
	for pos := range s.columns {
		positions = append(positions, pos)
	}
	slices.SortFunc(positions, compareColumns)

	w := access{s: s, persistLight: true}
	size := s.dims.ChunkSize
	ticks := 0
	for _, pos := range positions {
		col := s.columns[pos]
		ox, oz := pos.Origin(size)
		for range perColumn {
			if col.maxHeight < 0 {
				break
			}
			lx, ly, lz := rng.Intn(size), rng.Intn(col.maxHeight+1), rng.Intn(size)
			if tick := registry.Get(col.Block(lx, ly, lz)).Tick; tick != nil {
				tick(w, ox+lx, ly, oz+lz, rng)
				ticks++
			}
		}
	}
	render, save := s.takeChangesLocked()
	s.mu.Unlock()

	s.schedule(render, save)
	s.metrics.BlockTicks(ticks)
	return ticks
}

func (s *Store) Loaded(pos coord.Column) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.columns[pos]
	return ok
}

func (s *Store) LoadedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.columns)
}

// Rendered reports whether an instantiate task was issued for the column and no destroy since.
func (s *Store) Rendered(pos coord.Column) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rendered[pos]
	return ok
}

// Column returns a copy of a loaded column, or nil.
func (s *Store) Column(pos coord.Column) *Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col := s.columns[pos]; col != nil {
		return col.Clone()
	}
	return nil
}

// Insert registers a column built outside the store, replacing any loaded one.
func (s *Store) Insert(col *Column) error {
	if col.dims != s.dims {
		return fmt.Errorf("column %v has dimensions %+v, store uses %+v", col.Pos, col.dims, s.dims)
	}
	s.mu.Lock()
	s.insertLocked(col)
	render, save := s.takeChangesLocked()
	s.mu.Unlock()
	s.schedule(render, save)
	return nil
}

func compareColumns(a, b coord.Column) int {
	return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Z, b.Z))
}

func compareChunks(a, b coord.Chunk) int {
	return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Z, b.Z), cmp.Compare(a.Y, b.Y))
}
