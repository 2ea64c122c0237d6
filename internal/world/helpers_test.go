package world

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/registry"
)

var testDims = Dimensions{ChunkSize: 8, WorldHeight: 2}

func newTestStore(t *testing.T, persist Persister) *Store {
	t.Helper()
	s, err := NewStore(Options{
		Dims:      testDims,
		Terrain:   TerrainFlat,
		Generator: NewGenerator(7),
		Persister: persist,
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)
	return s
}

// memPersister keeps clones of saved columns.
type memPersister struct {
	mu    sync.Mutex
	saved map[coord.Column]*Column
	loads int
	saves int
}

func newMemPersister() *memPersister {
	return &memPersister{saved: make(map[coord.Column]*Column)}
}

func (p *memPersister) SaveColumn(col *Column) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved[col.Pos] = col.Clone()
	p.saves++
	return nil
}

func (p *memPersister) LoadColumn(pos coord.Column, dims Dimensions) (*Column, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	col, ok := p.saved[pos]
	if !ok {
		return nil, ErrColumnNotFound
	}
	p.loads++
	return col.Clone(), nil
}

// requireLightInvariant recomputes sky light over the columns in [min, max]
// with a plain multi-source BFS and compares it with the store.
func requireLightInvariant(t *testing.T, s *Store, min, max coord.Column) {
	t.Helper()
	size, height := s.dims.ChunkSize, s.dims.Height()
	x0, z0 := min.Origin(size)
	x1, z1 := max.Add(1, 1).Origin(size)

	inside := func(c cell) bool {
		return c.x >= x0 && c.x < x1 && c.z >= z0 && c.z < z1 && c.y >= 0 && c.y < height
	}
	opaque := func(c cell) bool {
		return registry.IsOpaque(s.GetBlock(c.x, c.y, c.z, registry.BlockStone))
	}

	want := make(map[cell]int)
	var queue []cell
	for x := x0; x < x1; x++ {
		for z := z0; z < z1; z++ {
			for y := height - 1; y >= 0 && !opaque(cell{x, y, z}); y-- {
				want[cell{x, y, z}] = MaxLight
				queue = append(queue, cell{x, y, z})
			}
		}
	}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		l := want[c]
		if l <= 1 {
			continue
		}
		for _, d := range neighbours {
			n := c.add(d)
			if inside(n) && !opaque(n) && want[n] < l-1 {
				want[n] = l - 1
				queue = append(queue, n)
			}
		}
	}

	mismatches := 0
	for x := x0; x < x1; x++ {
		for z := z0; z < z1; z++ {
			for y := range height {
				got := int(s.GetLight(x, y, z, 255))
				if got != want[cell{x, y, z}] {
					if mismatches < 5 {
						t.Errorf("light at (%d,%d,%d) = %d, want %d", x, y, z, got, want[cell{x, y, z}])
					}
					mismatches++
				}
			}
		}
	}
	require.Zero(t, mismatches, "light field differs from reference")
}

func loadAround(t *testing.T, s *Store, center coord.Column) {
	t.Helper()
	require.Equal(t, 1, s.LoadNextColumnsInRange(center, center, 1))
}
