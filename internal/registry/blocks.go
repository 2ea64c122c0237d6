package registry

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// BlockID identifies a block type. Ids are stable and written to disk.
type BlockID uint16

const (
	BlockAir     BlockID = 0
	BlockBedrock BlockID = 1
	// stone occupies StoneBands consecutive ids, one per depth band
	BlockStone     BlockID = 2
	BlockDirt      BlockID = 7
	BlockGrass     BlockID = 8
	BlockRockyDirt BlockID = 9
	BlockSand      BlockID = 10
	// water occupies WaterLevels consecutive ids, lowest fill first
	BlockWater BlockID = 11
	BlockSlab  BlockID = 21

	StoneBands  = 5
	WaterLevels = 10

	// MaxBlockID bounds the definition table.
	MaxBlockID = 255
)

// Stone returns the stone id for a depth band, clamped to the known bands.
func Stone(band int) BlockID {
	band = max(0, min(band, StoneBands-1))
	return BlockStone + BlockID(band)
}

// Water returns the water id for a fill level in [0, WaterLevels).
func Water(level int) BlockID {
	level = max(0, min(level, WaterLevels-1))
	return BlockWater + BlockID(level)
}

// WaterLevel reports the fill level of a water id.
func WaterLevel(id BlockID) (int, bool) {
	if id < BlockWater || id >= BlockWater+WaterLevels {
		return 0, false
	}
	return int(id - BlockWater), true
}

// WorldAccess is the view of the world handed to block hooks.
type WorldAccess interface {
	GetBlock(x, y, z int, def BlockID) BlockID
	SetBlock(x, y, z int, id BlockID)
}

// AABB is an axis-aligned box in block-local space, where the unit cube is [0,1]^3.
type AABB struct {
	Min, Max mgl32.Vec3
}

var (
	FullCube   = AABB{Max: mgl32.Vec3{1, 1, 1}}
	BottomHalf = AABB{Max: mgl32.Vec3{1, 0.5, 1}}
)

// BlockDefinition defines the properties of a block type
type BlockDefinition struct {
	ID             BlockID
	Name           string
	Opaque         bool
	Clear          bool
	Indestructible bool
	Collidable     bool
	Floodable      bool
	Bounds         AABB
	Render         RenderInfo

	// OnBreak runs before the block is replaced by next; OnPlace runs after it replaced prev.
	OnBreak func(w WorldAccess, x, y, z int, next BlockID)
	OnPlace func(w WorldAccess, x, y, z int, prev BlockID)
	Tick    func(w WorldAccess, x, y, z int, rng *rand.Rand)
}

var (
	Blocks     [MaxBlockID + 1]*BlockDefinition
	BlockNames = make(map[string]BlockID)

	unknownBlock = &BlockDefinition{
		Name:       "unknown",
		Opaque:     true,
		Collidable: true,
		Bounds:     FullCube,
	}
)

func init() {
	registerBlocks()
}

// Get returns the definition for id. Unknown ids resolve to a shared opaque placeholder.
func Get(id BlockID) *BlockDefinition {
	if int(id) < len(Blocks) {
		if def := Blocks[id]; def != nil {
			return def
		}
	}
	return unknownBlock
}

// IsOpaque is shorthand for Get(id).Opaque.
func IsOpaque(id BlockID) bool {
	return Get(id).Opaque
}

// CanBreak reports whether a player action may remove the block.
func CanBreak(id BlockID) bool {
	return !Get(id).Indestructible
}

// Lookup finds a block by name.
func Lookup(name string) (BlockID, bool) {
	id, ok := BlockNames[name]
	return id, ok
}

func registerBlock(def *BlockDefinition) {
	if Blocks[def.ID] != nil {
		panic(fmt.Sprintf("registry: duplicate block id %d (%s)", def.ID, def.Name))
	}
	if def.Bounds == (AABB{}) && def.Collidable {
		def.Bounds = FullCube
	}
	Blocks[def.ID] = def
	BlockNames[def.Name] = def.ID
}

func solid(id BlockID, name string, render RenderInfo) *BlockDefinition {
	return &BlockDefinition{
		ID:         id,
		Name:       name,
		Opaque:     true,
		Collidable: true,
		Render:     render,
	}
}

func registerBlocks() {
	registerBlock(&BlockDefinition{
		ID:        BlockAir,
		Name:      "air",
		Clear:     true,
		Floodable: true,
	})

	bedrock := solid(BlockBedrock, "bedrock", FullBlock(Textures(5), White))
	bedrock.Indestructible = true
	registerBlock(bedrock)

	for band := range StoneBands {
		shade := 1 - float32(band)*0.1
		registerBlock(solid(Stone(band), fmt.Sprintf("stone_%d", band),
			FullBlock(Textures(0), mgl32.Vec3{shade, shade, shade})))
	}

	registerBlock(solid(BlockDirt, "dirt", FullBlock(Textures(1), White)))

	grass := solid(BlockGrass, "grass", FullBlock(SidedTextures(2, 1, 3), White))
	grass.Tick = grassTick
	registerBlock(grass)

	registerBlock(solid(BlockRockyDirt, "rocky_dirt",
		FullBlock(Textures(6), mgl32.Vec3{173.0 / 255, 133.0 / 255, 92.0 / 255})))
	registerBlock(solid(BlockSand, "sand", FullBlock(Textures(4), White)))

	registerBlock(&BlockDefinition{
		ID:         BlockSlab,
		Name:       "stone_slab",
		Collidable: true,
		Bounds:     BottomHalf,
		Render:     PartialBlock(Textures(0), White),
	})

	for level := range WaterLevels {
		amount := float32(level+1) / WaterLevels
		registerBlock(&BlockDefinition{
			ID:     Water(level),
			Name:   fmt.Sprintf("water_%d", level+1),
			Render: Fluid(Textures(7), White, amount),
			Tick:   waterTick(level),
		})
	}
}

// grassTick spreads grass to nearby lit dirt and turns covered grass back into dirt.
func grassTick(w WorldAccess, x, y, z int, rng *rand.Rand) {
	if IsOpaque(w.GetBlock(x, y+1, z, BlockAir)) {
		w.SetBlock(x, y, z, BlockDirt)
		return
	}

	tx := x + rng.Intn(3) - 1
	tz := z + rng.Intn(3) - 1
	for ty := y - 1; ty <= y+1; ty++ {
		if w.GetBlock(tx, ty, tz, BlockAir) == BlockDirt && !IsOpaque(w.GetBlock(tx, ty+1, tz, BlockAir)) {
			w.SetBlock(tx, ty, tz, BlockGrass)
			return
		}
	}
}

// waterTick floods floodable neighbours: downward at full level, sideways one level lower.
func waterTick(level int) func(w WorldAccess, x, y, z int, rng *rand.Rand) {
	return func(w WorldAccess, x, y, z int, _ *rand.Rand) {
		tryFlood(w, x, y-1, z, Water(WaterLevels-1))
		if level == 0 {
			return
		}
		side := Water(level - 1)
		tryFlood(w, x-1, y, z, side)
		tryFlood(w, x+1, y, z, side)
		tryFlood(w, x, y, z-1, side)
		tryFlood(w, x, y, z+1, side)
	}
}

func tryFlood(w WorldAccess, x, y, z int, id BlockID) {
	if Get(w.GetBlock(x, y, z, BlockStone)).Floodable {
		w.SetBlock(x, y, z, id)
	}
}
