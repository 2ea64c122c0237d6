package world

import "github.com/shuidong/block-game/internal/registry"

// Biome picks the surface blocks of a vertical line.
type Biome struct {
	ID          int
	Name        string
	TopBlock    registry.BlockID
	FillerBlock registry.BlockID
	FillerDepth int // filler layers under the top block
}

var (
	BiomePlains = &Biome{
		ID:          1,
		Name:        "Plains",
		TopBlock:    registry.BlockGrass,
		FillerBlock: registry.BlockDirt,
		FillerDepth: 3,
	}
	BiomeDesert = &Biome{
		ID:          2,
		Name:        "Desert",
		TopBlock:    registry.BlockSand,
		FillerBlock: registry.BlockSand,
		FillerDepth: 4,
	}
	BiomeRocky = &Biome{
		ID:          3,
		Name:        "Rocky",
		TopBlock:    registry.BlockRockyDirt,
		FillerBlock: registry.BlockRockyDirt,
		FillerDepth: 2,
	}
	BiomeShore = &Biome{
		ID:          4,
		Name:        "Shore",
		TopBlock:    registry.BlockSand,
		FillerBlock: registry.BlockSand,
		FillerDepth: 3,
	}
)

var Biomes = []*Biome{BiomePlains, BiomeDesert, BiomeRocky, BiomeShore}

// BiomeFor chooses a biome from the climate samples of a line and its surface height.
// Lines at or just above sea level are shore regardless of climate.
func BiomeFor(humidity, temperature float64, surface, seaLevel int) *Biome {
	switch {
	case surface <= seaLevel+1:
		return BiomeShore
	case temperature > 0.6 && humidity < 0.4:
		return BiomeDesert
	case humidity < 0.3:
		return BiomeRocky
	default:
		return BiomePlains
	}
}
