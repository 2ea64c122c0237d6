package registry

import "github.com/go-gl/mathgl/mgl32"

// BlockFace identifies a face of a block. Order matches TextureLayout.
type BlockFace int

const (
	FaceTop BlockFace = iota
	FaceBottom
	FaceEast
	FaceNorth
	FaceWest
	FaceSouth
)

// Faces lists every face in TextureLayout order.
var Faces = [6]BlockFace{FaceTop, FaceBottom, FaceEast, FaceNorth, FaceWest, FaceSouth}

// AtlasSize is the number of tiles per row and column of the texture atlas.
const AtlasSize = 4

// TextureLayout holds an atlas tile index per face.
type TextureLayout [6]uint8

// Textures uses one atlas tile for every face.
func Textures(all uint8) TextureLayout {
	return TextureLayout{all, all, all, all, all, all}
}

// SidedTextures uses separate tiles for the sides, bottom and top.
func SidedTextures(side, bottom, top uint8) TextureLayout {
	return TextureLayout{top, bottom, side, side, side, side}
}

// Tile returns the atlas tile index for a face.
func (t TextureLayout) Tile(f BlockFace) uint8 {
	return t[f]
}

// TileLocation returns the (column, row) of an atlas tile.
func TileLocation(tile uint8) (u, v int) {
	return int(tile) % AtlasSize, int(tile) / AtlasSize
}

// RenderKind selects the mesh strategy for a block.
type RenderKind uint8

const (
	RenderNone RenderKind = iota
	RenderFullBlock
	RenderFluid
	// RenderPartialBlock draws the block's Bounds instead of the unit cube.
	RenderPartialBlock
)

// RenderInfo describes how the mesh builder draws a block.
type RenderInfo struct {
	Kind     RenderKind
	Textures TextureLayout
	Color    mgl32.Vec3
	// Amount is the fill fraction of a fluid cell.
	Amount float32
}

var White = mgl32.Vec3{1, 1, 1}

func FullBlock(tex TextureLayout, color mgl32.Vec3) RenderInfo {
	return RenderInfo{Kind: RenderFullBlock, Textures: tex, Color: color}
}

func Fluid(tex TextureLayout, color mgl32.Vec3, amount float32) RenderInfo {
	return RenderInfo{Kind: RenderFluid, Textures: tex, Color: color, Amount: amount}
}

func PartialBlock(tex TextureLayout, color mgl32.Vec3) RenderInfo {
	return RenderInfo{Kind: RenderPartialBlock, Textures: tex, Color: color}
}
