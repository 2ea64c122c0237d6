package graphics

import (
	"image"
	"image/color"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/draw"

	"github.com/shuidong/block-game/internal/registry"
)

// TileSize is the edge length of one atlas tile in pixels.
const TileSize = 16

// tileColors is the base colour of every atlas tile the registry refers to.
var tileColors = map[uint8]color.RGBA{
	0: {125, 125, 125, 255}, // stone
	1: {134, 96, 67, 255},   // dirt
	2: {110, 120, 70, 255},  // grass side
	3: {96, 160, 64, 255},   // grass top
	4: {218, 206, 150, 255}, // sand
	5: {50, 50, 50, 255},    // bedrock
	6: {150, 140, 130, 255}, // rocky dirt
	7: {52, 92, 196, 170},   // water
}

// AtlasImage paints the block atlas: a flat base colour per tile with a
// fixed speckle so faces read as textured.
func AtlasImage() *image.RGBA {
	n := registry.AtlasSize * TileSize
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for tile, base := range tileColors {
		u, v := registry.TileLocation(tile)
		r := image.Rect(u*TileSize, v*TileSize, (u+1)*TileSize, (v+1)*TileSize)
		draw.Draw(img, r, image.NewUniform(base), image.Point{}, draw.Src)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if speckle(x, y) {
					img.SetRGBA(x, y, darken(base, 0.85))
				}
			}
		}
	}
	return img
}

func speckle(x, y int) bool {
	h := uint32(x)*374761393 + uint32(y)*668265263
	h = (h ^ h>>13) * 1274126177
	return h>>28 < 4
}

func darken(c color.RGBA, f float32) color.RGBA {
	return color.RGBA{uint8(float32(c.R) * f), uint8(float32(c.G) * f), uint8(float32(c.B) * f), c.A}
}

// UploadTexture copies img into a new nearest-filtered 2D texture.
func UploadTexture(img image.Image) (uint32, int, int) {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA,
		int32(rgba.Rect.Size().X),
		int32(rgba.Rect.Size().Y),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(rgba.Pix),
	)

	gl.BindTexture(gl.TEXTURE_2D, 0)

	return texture, rgba.Rect.Size().X, rgba.Rect.Size().Y
}
