package world

import (
	"fmt"
	"slices"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/registry"
)

// Column is one vertical slab of the world. Local coordinates are x,z in
// [0, ChunkSize) and y in [0, Height). Out-of-range local indexes panic.
type Column struct {
	Pos  coord.Column
	dims Dimensions

	blocks    []registry.BlockID
	light     []uint8
	maxHeight int

	humidity    []float32
	temperature []float32

	modified bool
}

// NewColumn returns an all-air, unlit column.
func NewColumn(pos coord.Column, dims Dimensions) *Column {
	area := dims.ChunkSize * dims.ChunkSize
	return &Column{
		Pos:         pos,
		dims:        dims,
		blocks:      make([]registry.BlockID, dims.Volume()),
		light:       make([]uint8, dims.Volume()),
		maxHeight:   -1,
		humidity:    make([]float32, area),
		temperature: make([]float32, area),
	}
}

// ColumnData is the raw content of a column, as stored on disk.
type ColumnData struct {
	Blocks      []registry.BlockID
	Light       []uint8
	MaxHeight   int
	Humidity    []float32
	Temperature []float32
}

// NewColumnFromData rebuilds a column, validating every array against dims.
// The slices are owned by the column afterwards.
func NewColumnFromData(pos coord.Column, dims Dimensions, data ColumnData) (*Column, error) {
	area := dims.ChunkSize * dims.ChunkSize
	switch {
	case len(data.Blocks) != dims.Volume():
		return nil, fmt.Errorf("block array has %d cells, want %d", len(data.Blocks), dims.Volume())
	case len(data.Light) != dims.Volume():
		return nil, fmt.Errorf("light array has %d cells, want %d", len(data.Light), dims.Volume())
	case len(data.Humidity) != area || len(data.Temperature) != area:
		return nil, fmt.Errorf("climate arrays have %d/%d samples, want %d", len(data.Humidity), len(data.Temperature), area)
	case data.MaxHeight < -1 || data.MaxHeight >= dims.Height():
		return nil, fmt.Errorf("max height %d outside column", data.MaxHeight)
	}
	for i, l := range data.Light {
		if l > MaxLight {
			return nil, fmt.Errorf("light level %d at cell %d exceeds %d", l, i, MaxLight)
		}
	}
	return &Column{
		Pos:         pos,
		dims:        dims,
		blocks:      data.Blocks,
		light:       data.Light,
		maxHeight:   data.MaxHeight,
		humidity:    data.Humidity,
		temperature: data.Temperature,
	}, nil
}

// Data exposes the column's arrays without copying.
func (c *Column) Data() ColumnData {
	return ColumnData{
		Blocks:      c.blocks,
		Light:       c.light,
		MaxHeight:   c.maxHeight,
		Humidity:    c.humidity,
		Temperature: c.temperature,
	}
}

func (c *Column) Dims() Dimensions { return c.dims }

func (c *Column) index(x, y, z int) int {
	s := c.dims.ChunkSize
	if x < 0 || x >= s || z < 0 || z >= s || y < 0 || y >= c.dims.Height() {
		panic(fmt.Sprintf("world: local position (%d,%d,%d) outside column", x, y, z))
	}
	return (y*s+z)*s + x
}

func (c *Column) inside(x, y, z int) bool {
	s := c.dims.ChunkSize
	return x >= 0 && x < s && z >= 0 && z < s && y >= 0 && y < c.dims.Height()
}

func (c *Column) Block(x, y, z int) registry.BlockID {
	return c.blocks[c.index(x, y, z)]
}

// SetBlock writes a block without hooks or light updates and keeps MaxHeight current.
func (c *Column) SetBlock(x, y, z int, id registry.BlockID) {
	c.blocks[c.index(x, y, z)] = id
	switch {
	case id != registry.BlockAir && y > c.maxHeight:
		c.maxHeight = y
	case id == registry.BlockAir && y == c.maxHeight:
		c.RecomputeMaxHeight()
	}
}

func (c *Column) Light(x, y, z int) uint8 {
	return c.light[c.index(x, y, z)]
}

func (c *Column) SetLight(x, y, z int, level uint8) {
	c.light[c.index(x, y, z)] = min(level, MaxLight)
}

// MaxHeight is the highest y holding a non-air block, or -1.
func (c *Column) MaxHeight() int {
	return c.maxHeight
}

func (c *Column) RecomputeMaxHeight() {
	layer := c.dims.ChunkSize * c.dims.ChunkSize
	for y := c.dims.Height() - 1; y >= 0; y-- {
		for _, id := range c.blocks[y*layer : (y+1)*layer] {
			if id != registry.BlockAir {
				c.maxHeight = y
				return
			}
		}
	}
	c.maxHeight = -1
}

// Climate returns the humidity and temperature samples at (x, z).
func (c *Column) Climate(x, z int) (humidity, temperature float32) {
	i := c.index(x, 0, z)
	return c.humidity[i], c.temperature[i]
}

func (c *Column) setClimate(x, z int, humidity, temperature float32) {
	i := c.index(x, 0, z)
	c.humidity[i] = humidity
	c.temperature[i] = temperature
}

// Modified reports whether the column changed since it was loaded or last saved.
func (c *Column) Modified() bool {
	return c.modified
}

func (c *Column) Clone() *Column {
	cp := *c
	cp.blocks = slices.Clone(c.blocks)
	cp.light = slices.Clone(c.light)
	cp.humidity = slices.Clone(c.humidity)
	cp.temperature = slices.Clone(c.temperature)
	return &cp
}

// Equal compares position, shape and content, ignoring the modified flag.
func (c *Column) Equal(o *Column) bool {
	return c.Pos == o.Pos && c.dims == o.dims && c.maxHeight == o.maxHeight &&
		slices.Equal(c.blocks, o.blocks) && slices.Equal(c.light, o.light) &&
		slices.Equal(c.humidity, o.humidity) && slices.Equal(c.temperature, o.temperature)
}

// lightVolume implementation in local coordinates.

func (c *Column) volumeHeight() int { return c.dims.Height() }

func (c *Column) opaqueAt(x, y, z int) (bool, bool) {
	if !c.inside(x, y, z) {
		return false, false
	}
	return registry.IsOpaque(c.Block(x, y, z)), true
}

func (c *Column) lightAt(x, y, z int) (uint8, bool) {
	if !c.inside(x, y, z) {
		return 0, false
	}
	return c.Light(x, y, z), true
}

func (c *Column) setLightAt(x, y, z int, level uint8) {
	c.SetLight(x, y, z, level)
}

// initLight beams sky light down every vertical line, then floods sideways from the beams.
func (c *Column) initLight() {
	s, h := c.dims.ChunkSize, c.dims.Height()
	clear(c.light)
	for x := range s {
		for z := range s {
			for y := h - 1; y >= 0 && !registry.IsOpaque(c.Block(x, y, z)); y-- {
				c.SetLight(x, y, z, MaxLight)
			}
		}
	}
	for x := range s {
		for z := range s {
			for y := h - 1; y >= 0 && c.Light(x, y, z) == MaxLight; y-- {
				if needsSpread(c, cell{x, y, z}) {
					floodLight(c, cell{x, y, z}, MaxLight, true)
				}
			}
		}
	}
}
