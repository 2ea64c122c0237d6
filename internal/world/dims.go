package world

import "fmt"

// MaxLight is the brightest light level. Sky-exposed cells hold it.
const MaxLight = 15

// Dimensions fixes the shape of every column in a world.
type Dimensions struct {
	ChunkSize   int
	WorldHeight int
}

var DefaultDimensions = Dimensions{ChunkSize: 16, WorldHeight: 10}

// Height is the number of cells in a column vertically.
func (d Dimensions) Height() int {
	return d.ChunkSize * d.WorldHeight
}

// Volume is the number of cells in a column.
func (d Dimensions) Volume() int {
	return d.ChunkSize * d.ChunkSize * d.Height()
}

func (d Dimensions) Validate() error {
	if d.ChunkSize < 4 || d.ChunkSize > 32 {
		return fmt.Errorf("chunk size %d outside 4..32", d.ChunkSize)
	}
	if d.WorldHeight < 1 || d.WorldHeight > 32 {
		return fmt.Errorf("world height %d outside 1..32", d.WorldHeight)
	}
	return nil
}
