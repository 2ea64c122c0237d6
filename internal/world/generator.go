package world

import (
	"encoding/binary"
	"fmt"

	perlin "github.com/aquilax/go-perlin"
	"github.com/cespare/xxhash/v2"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/profiling"
	"github.com/shuidong/block-game/internal/registry"
)

// TerrainType selects the generation rules of a world. It is part of the save path.
type TerrainType uint8

const (
	TerrainMain TerrainType = iota
	TerrainCave
	TerrainFlat
)

var terrainNames = [...]string{
	TerrainMain: "main",
	TerrainCave: "cave",
	TerrainFlat: "flat",
}

func (t TerrainType) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return fmt.Sprintf("terrain(%d)", uint8(t))
}

func ParseTerrain(s string) (TerrainType, error) {
	for i, name := range terrainNames {
		if name == s {
			return TerrainType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown terrain type %q", s)
}

// TerrainGenerator builds a fully lit column. Implementations must be
// deterministic and safe for concurrent use.
type TerrainGenerator interface {
	Generate(t TerrainType, pos coord.Column, dims Dimensions) *Column
}

const (
	stoneBandDepth = 8
	caveThreshold  = 0.18

	bandSalt = 0x5EED0001
)

// Generator layers Perlin noise for continents, hills, detail, caves and
// climate. Stone bands are offset by a per-cell hash.
type Generator struct {
	seed       int64
	continents *perlin.Perlin
	hills      *perlin.Perlin
	detail     *perlin.Perlin
	caves      *perlin.Perlin
	moisture   *perlin.Perlin
	heat       *perlin.Perlin

	// FlatHeight is the surface of TerrainFlat; zero means a quarter of the column height.
	FlatHeight int
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed:       seed,
		continents: perlin.NewPerlin(2.0, 2.0, 3, seed),
		hills:      perlin.NewPerlin(2.0, 2.0, 3, seed+1),
		moisture:   perlin.NewPerlin(2.0, 2.0, 3, seed+2),
		heat:       perlin.NewPerlin(2.0, 2.0, 3, seed+3),
		detail:     perlin.NewPerlin(2.0, 2.0, 3, seed+4),
		caves:      perlin.NewPerlin(2.0, 2.0, 2, seed+5),
	}
}

func (g *Generator) Seed() int64 { return g.seed }

// SeaLevel is the highest y filled with water in open terrain.
func SeaLevel(dims Dimensions) int {
	return dims.Height() * 35 / 100
}

func unit(n float64) float64 {
	return max(0, min(1, (n+1)/2))
}

// Climate returns humidity and temperature in [0,1] for a world position.
func (g *Generator) Climate(wx, wz int) (humidity, temperature float64) {
	fx, fz := float64(wx), float64(wz)
	return unit(g.moisture.Noise2D(fx/211, fz/211)), unit(g.heat.Noise2D(fx/307, fz/307))
}

// SurfaceHeight is the y of the topmost ground block at a world position.
func (g *Generator) SurfaceHeight(t TerrainType, wx, wz int, dims Dimensions) int {
	h := dims.Height()
	if t == TerrainFlat {
		if g.FlatHeight > 0 {
			return max(1, min(g.FlatHeight, h-2))
		}
		return max(1, min(h/4, h-2))
	}
	fx, fz := float64(wx), float64(wz)
	continent := g.continents.Noise2D(fx/256, fz/256)
	hills := g.hills.Noise2D(fx/48, fz/48) * unit(continent)
	detail := g.detail.Noise2D(fx/12, fz/12)

	y := float64(h)*0.4 + continent*float64(h)*0.2 + hills*float64(h)*0.15 + detail*4
	return max(1, min(int(y), h-2))
}

func (g *Generator) cave(wx, y, wz int) bool {
	return g.caves.Noise3D(float64(wx)/16, float64(y)/12, float64(wz)/16) > caveThreshold
}

// bandJitter is a stable per-cell offset in [0,3) for stone band edges.
func bandJitter(wx, wz int, seed int64) int {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(wx))
	binary.LittleEndian.PutUint64(buf[8:], uint64(wz))
	binary.LittleEndian.PutUint64(buf[16:], uint64(seed))
	return int(xxhash.Sum64(buf[:]) % 3)
}

// Generate builds the column at pos and lights it.
func (g *Generator) Generate(t TerrainType, pos coord.Column, dims Dimensions) *Column {
	defer profiling.Track("world.Generate")()

	col := NewColumn(pos, dims)
	size := dims.ChunkSize
	ox, oz := pos.Origin(size)
	sea := SeaLevel(dims)
	for lx := range size {
		for lz := range size {
			wx, wz := ox+lx, oz+lz
			humidity, temperature := g.Climate(wx, wz)
			col.setClimate(lx, lz, float32(humidity), float32(temperature))

			surface := g.SurfaceHeight(t, wx, wz, dims)
			biome := BiomePlains
			if t != TerrainFlat {
				biome = BiomeFor(humidity, temperature, surface, sea)
			}
			g.fillLine(col, t, biome, lx, lz, surface, sea)
		}
	}
	col.RecomputeMaxHeight()
	col.initLight()
	return col
}

func (g *Generator) fillLine(col *Column, t TerrainType, biome *Biome, lx, lz, surface, sea int) {
	ox, oz := col.Pos.Origin(col.dims.ChunkSize)
	wx, wz := ox+lx, oz+lz
	jitter := bandJitter(wx, wz, g.seed+bandSalt)
	filler := biome.FillerDepth + jitter%2

	for y := 0; y <= surface; y++ {
		depth := surface - y
		var id registry.BlockID
		switch {
		case y == 0:
			id = registry.BlockBedrock
		case depth == 0:
			id = biome.TopBlock
		case depth <= filler:
			id = biome.FillerBlock
		default:
			id = registry.Stone((depth - filler + jitter) / stoneBandDepth)
		}
		if t == TerrainCave && y > 1 && depth > filler && g.cave(wx, y, wz) {
			id = registry.BlockAir
		}
		col.blocks[col.index(lx, y, lz)] = id
	}
	if t == TerrainFlat {
		return
	}
	for y := surface + 1; y <= sea; y++ {
		col.blocks[col.index(lx, y, lz)] = registry.Water(registry.WaterLevels - 1)
	}
}
