package world

import (
	"errors"
	"slices"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/profiling"
)

// LoadNextColumnsInRange instantiates up to count columns inside [min, max]
// that have not been rendered yet, nearest to the rectangle centre first.
// The 3x3 halo around each one is loaded or generated so light and faces
// at its border are resolved. It returns the number of columns instantiated.
func (s *Store) LoadNextColumnsInRange(min, max coord.Column, count int) int {
	if count <= 0 {
		return 0
	}
	defer profiling.Track("world.LoadNextColumnsInRange")()

	rect := coord.Rect{Min: min, Max: max}
	center := rect.Center()

	s.mu.Lock()
	var targets []coord.Column
	for _, pos := range rect.Columns() {
		if _, done := s.rendered[pos]; !done {
			targets = append(targets, pos)
		}
	}
	s.mu.Unlock()

	slices.SortStableFunc(targets, func(a, b coord.Column) int {
		return a.DistanceSq(center) - b.DistanceSq(center)
	})
	if len(targets) > count {
		targets = targets[:count]
	}

	instantiated := 0
	for _, pos := range targets {
		if s.loadColumn(pos) {
			instantiated++
		}
	}
	return instantiated
}

func (s *Store) loadColumn(pos coord.Column) bool {
	s.mu.Lock()
	var missing []coord.Column
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			p := pos.Add(dx, dz)
			if _, ok := s.columns[p]; !ok {
				missing = append(missing, p)
			}
		}
	}
	s.mu.Unlock()

	fresh := make([]*Column, 0, len(missing))
	for _, p := range missing {
		fresh = append(fresh, s.obtain(p))
	}

	s.mu.Lock()
	for _, col := range fresh {
		if _, ok := s.columns[col.Pos]; !ok {
			s.insertLocked(col)
		}
	}
	render, save := s.takeChangesLocked()
	var task *ColumnInstantiateTask
	if _, done := s.rendered[pos]; !done {
		task = &ColumnInstantiateTask{Pos: pos, Meshes: s.renderColumnLocked(pos)}
		s.rendered[pos] = struct{}{}
	}
	loaded := len(s.columns)
	s.mu.Unlock()

	s.metrics.SetLoadedColumns(loaded)
	s.schedule(render, save)
	if task == nil {
		return false
	}
	s.instantiate.Push(task)
	return true
}

// obtain reads a column from the persister, falling back to the generator.
func (s *Store) obtain(pos coord.Column) *Column {
	if s.persist != nil {
		col, err := s.persist.LoadColumn(pos, s.dims)
		switch {
		case err == nil && col.Pos == pos && col.dims == s.dims:
			s.metrics.ColumnLoaded()
			// saved light may include what neighbours fed it before they changed
			col.initLight()
			return col
		case err == nil:
			s.metrics.StorageError("load")
			s.log.Error("Stored column %v does not match requested %v, regenerating", col.Pos, pos)
		case errors.Is(err, ErrColumnNotFound):
		default:
			s.metrics.StorageError("load")
			s.log.Error("Failed to load column %v, regenerating: %v", pos, err)
		}
	}
	col := s.gen.Generate(s.terrain, pos, s.dims)
	s.metrics.ColumnGenerated()
	s.log.Trace("Generated column %v", pos)
	return col
}

func (s *Store) insertLocked(col *Column) {
	if s.last != nil && s.last.Pos == col.Pos {
		s.last = nil
	}
	s.columns[col.Pos] = col
	s.stitchLocked(col)
}

// stitchLocked floods light across the borders between col and its loaded
// neighbours, in whichever direction is brighter by more than one step.
func (s *Store) stitchLocked(col *Column) {
	defer profiling.Track("world.stitch")()

	w := access{s: s}
	size, height := s.dims.ChunkSize, s.dims.Height()
	ox, oz := col.Pos.Origin(size)

	type border struct {
		dir coord.Column
		// inner cell of col and outer cell of the neighbour at offset i
		cells func(i int) (cell, cell)
	}
	borders := [4]border{
		{coord.Column{X: 1}, func(i int) (cell, cell) { return cell{ox + size - 1, 0, oz + i}, cell{ox + size, 0, oz + i} }},
		{coord.Column{X: -1}, func(i int) (cell, cell) { return cell{ox, 0, oz + i}, cell{ox - 1, 0, oz + i} }},
		{coord.Column{Z: 1}, func(i int) (cell, cell) { return cell{ox + i, 0, oz + size - 1}, cell{ox + i, 0, oz + size} }},
		{coord.Column{Z: -1}, func(i int) (cell, cell) { return cell{ox + i, 0, oz}, cell{ox + i, 0, oz - 1} }},
	}
	for _, b := range borders {
		if _, ok := s.columns[col.Pos.Add(b.dir.X, b.dir.Z)]; !ok {
			continue
		}
		for i := range size {
			in, out := b.cells(i)
			for y := range height {
				in.y, out.y = y, y
				li, _ := w.lightAt(in.x, in.y, in.z)
				lo, _ := w.lightAt(out.x, out.y, out.z)
				switch {
				case li > lo+1:
					floodLight(w, in, int(li), true)
				case lo > li+1:
					floodLight(w, out, int(lo), true)
				}
			}
		}
	}
}

// UnloadColumnsOutsideRange evicts every column outside [min, max]. Modified
// columns are saved first. A rendered column gets a destroy task unless its
// instantiate task is still pending, which is withdrawn instead.
func (s *Store) UnloadColumnsOutsideRange(min, max coord.Column) int {
	rect := coord.Rect{Min: min, Max: max}

	s.mu.Lock()
	var evicted, destroyed []coord.Column
	var dirty []*Column
	for pos, col := range s.columns {
		if rect.Contains(pos) {
			continue
		}
		delete(s.columns, pos)
		evicted = append(evicted, pos)
		if s.persist != nil && col.modified {
			dirty = append(dirty, col)
		}
		if _, ok := s.rendered[pos]; ok {
			delete(s.rendered, pos)
			destroyed = append(destroyed, pos)
		}
	}
	s.last = nil
	loaded := len(s.columns)
	s.mu.Unlock()

	if len(evicted) == 0 {
		return 0
	}
	slices.SortFunc(dirty, func(a, b *Column) int { return compareColumns(a.Pos, b.Pos) })
	for _, col := range dirty {
		col.modified = false
		_ = s.saveColumn(col)
	}
	slices.SortFunc(destroyed, compareColumns)
	for _, pos := range destroyed {
		if !s.instantiate.Remove(pos) {
			s.destroy.Push(&ColumnDestroyTask{Pos: pos})
		}
	}

	s.metrics.ColumnsEvicted(len(evicted))
	s.metrics.SetLoadedColumns(loaded)
	s.log.Debug("Unloaded %d columns (%d destroyed), %d remain", len(evicted), len(destroyed), loaded)
	return len(evicted)
}
