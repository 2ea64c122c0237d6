package graphics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/shuidong/block-game/internal/meshing"
	"github.com/shuidong/block-game/internal/registry"
)

func TestCameraFrontFollowsYaw(t *testing.T) {
	cam := NewCamera(800, 600)
	assert.InDelta(t, 800.0/600.0, cam.AspectRatio, 1e-6)

	// default yaw looks down -z
	front := cam.Front()
	assert.InDelta(t, 0, front.X(), 1e-5)
	assert.InDelta(t, -1, front.Z(), 1e-5)

	cam.Yaw = 0
	assert.InDelta(t, 1, cam.Front().X(), 1e-5)
	assert.InDelta(t, 1, cam.Right().Z(), 1e-5)
}

func TestCameraRotateClampsPitch(t *testing.T) {
	cam := NewCamera(1, 1)
	cam.Rotate(0, 200)
	assert.Equal(t, float32(89), cam.Pitch)
	cam.Rotate(0, -500)
	assert.Equal(t, float32(-89), cam.Pitch)
}

func TestCameraMoveStaysLevel(t *testing.T) {
	cam := NewCamera(1, 1)
	cam.Pitch = 60
	cam.Move(2, 0, 0)
	assert.InDelta(t, 0, cam.Position.Y(), 1e-5)
	assert.InDelta(t, -2, cam.Position.Z(), 1e-5)

	cam.Move(0, 0, 3)
	assert.InDelta(t, 3, cam.Position.Y(), 1e-5)
}

func TestFrustumCulling(t *testing.T) {
	cam := NewCamera(1, 1)
	cam.Position = mgl32.Vec3{0, 0, 0}
	cam.FarPlane = 100
	f := NewFrustum(cam.GetProjectionMatrix().Mul4(cam.GetViewMatrix()))

	box := mgl32.Vec3{1, 1, 1}
	ahead := mgl32.Vec3{0, 0, -20}
	behind := mgl32.Vec3{0, 0, 20}
	far := mgl32.Vec3{0, 0, -200}
	assert.True(t, f.Intersects(ahead, ahead.Add(box)))
	assert.False(t, f.Intersects(behind, behind.Add(box)))
	assert.False(t, f.Intersects(far, far.Add(box)))
}

func TestAtlasImagePaintsTiles(t *testing.T) {
	img := AtlasImage()
	assert.Equal(t, registry.AtlasSize*TileSize, img.Bounds().Dx())

	u, v := registry.TileLocation(4)
	base := tileColors[4]
	seen := false
	for y := v * TileSize; y < (v+1)*TileSize; y++ {
		for x := u * TileSize; x < (u+1)*TileSize; x++ {
			c := img.RGBAAt(x, y)
			assert.True(t, c == base || c == darken(base, 0.85))
			seen = seen || c == base
		}
	}
	assert.True(t, seen)

	// unused tiles stay transparent
	u, v = registry.TileLocation(registry.AtlasSize*registry.AtlasSize - 1)
	assert.Zero(t, img.RGBAAt(u*TileSize, v*TileSize).A)
}

func TestInterleave(t *testing.T) {
	s := &meshing.SingleMeshBuildInfo{
		Vertices: []mgl32.Vec3{{1, 2, 3}, {4, 5, 6}},
		UVs:      []mgl32.Vec2{{0.25, 0.5}, {0.75, 1}},
		Colors:   []mgl32.Vec4{{1, 0.5, 0.25, 1}, {0, 0, 0, 0.5}},
	}
	out := interleave(s)
	assert.Len(t, out, 2*floatsPerVertex)
	assert.Equal(t, []float32{1, 2, 3, 0.25, 0.5, 1, 0.5, 0.25, 1}, out[:floatsPerVertex])
	assert.Equal(t, []float32{4, 5, 6, 0.75, 1, 0, 0, 0, 0.5}, out[floatsPerVertex:])
}
