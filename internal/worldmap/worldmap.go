// Package worldmap draws a top-down map of loaded or stored columns.
package worldmap

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/registry"
	"github.com/shuidong/block-game/internal/world"
)

// Source returns the column at pos, or nil when it is not available.
type Source interface {
	Column(pos coord.Column) *world.Column
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(pos coord.Column) *world.Column

func (f SourceFunc) Column(pos coord.Column) *world.Column { return f(pos) }

// FromPersister reads columns straight from storage. Missing or unreadable
// columns are left blank.
func FromPersister(p world.Persister, dims world.Dimensions) Source {
	return SourceFunc(func(pos coord.Column) *world.Column {
		col, err := p.LoadColumn(pos, dims)
		if err != nil {
			return nil
		}
		return col
	})
}

var (
	blank     = color.RGBA{}
	bedrock   = color.RGBA{40, 40, 40, 255}
	stone     = color.RGBA{128, 128, 128, 255}
	dirt      = color.RGBA{134, 96, 67, 255}
	grass     = color.RGBA{96, 160, 64, 255}
	rockyDirt = color.RGBA{173, 133, 92, 255}
	sand      = color.RGBA{218, 206, 150, 255}
	water     = color.RGBA{52, 92, 196, 255}
)

// BlockColor is the map colour of a top block.
func BlockColor(id registry.BlockID) color.RGBA {
	if _, ok := registry.WaterLevel(id); ok {
		return water
	}
	switch id {
	case registry.BlockAir:
		return blank
	case registry.BlockBedrock:
		return bedrock
	case registry.BlockDirt:
		return dirt
	case registry.BlockGrass:
		return grass
	case registry.BlockRockyDirt:
		return rockyDirt
	case registry.BlockSand:
		return sand
	}
	return stone
}

// shade darkens c toward low terrain: the top of the column keeps full
// brightness, the floor drops to half.
func shade(c color.RGBA, y, height int) color.RGBA {
	f := 0.5 + 0.5*float64(y)/float64(max(height-1, 1))
	return color.RGBA{uint8(float64(c.R) * f), uint8(float64(c.G) * f), uint8(float64(c.B) * f), c.A}
}

// Surface returns the highest non-air block at local (x, z) and its height.
// ok is false for an empty line.
func Surface(col *world.Column, x, z int) (id registry.BlockID, y int, ok bool) {
	for y = col.MaxHeight(); y >= 0; y-- {
		if id = col.Block(x, y, z); id != registry.BlockAir {
			return id, y, true
		}
	}
	return registry.BlockAir, 0, false
}

// Render draws one pixel per cell for every column in r. Pixel (0, 0) is
// the lowest x and z of r.Min.
func Render(src Source, r coord.Rect, dims world.Dimensions) *image.RGBA {
	size, height := dims.ChunkSize, dims.Height()
	w := (r.Max.X - r.Min.X + 1) * size
	h := (r.Max.Z - r.Min.Z + 1) * size
	img := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	if r.Empty() {
		return img
	}

	for _, pos := range r.Columns() {
		col := src.Column(pos)
		if col == nil {
			continue
		}
		px, pz := (pos.X-r.Min.X)*size, (pos.Z-r.Min.Z)*size
		for z := range size {
			for x := range size {
				id, y, ok := Surface(col, x, z)
				if !ok {
					continue
				}
				img.SetRGBA(px+x, pz+z, shade(BlockColor(id), y, height))
			}
		}
	}
	return img
}

// Scale enlarges img by an integer factor without smoothing.
func Scale(img image.Image, factor int) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Export renders r, scales it and writes it to w as PNG.
func Export(w io.Writer, src Source, r coord.Rect, dims world.Dimensions, factor int) error {
	var img image.Image = Render(src, r, dims)
	if factor > 1 {
		img = Scale(img, factor)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode map: %w", err)
	}
	return nil
}

// Bounds returns the smallest rectangle covering every column in cols.
func Bounds(cols []coord.Column) coord.Rect {
	if len(cols) == 0 {
		return coord.Rect{Min: coord.Column{X: 1}, Max: coord.Column{}}
	}
	r := coord.Rect{Min: cols[0], Max: cols[0]}
	for _, c := range cols[1:] {
		r.Min.X, r.Min.Z = min(r.Min.X, c.X), min(r.Min.Z, c.Z)
		r.Max.X, r.Max.Z = max(r.Max.X, c.X), max(r.Max.Z, c.Z)
	}
	return r
}
