package meshing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLight is the brightest light level.
const MaxLight = 15

// LightColors maps a light level to the vertex tint it produces.
var LightColors [MaxLight + 1]mgl32.Vec3

func init() {
	for i := range LightColors {
		v := float32(0.5 * math.Pow(0.85, float64(MaxLight-i)))
		LightColors[i] = mgl32.Vec3{v, v, v}
	}
}

// SingleMeshBuildInfo accumulates the buffers of one material pass.
// Positions are local to the chunk origin.
type SingleMeshBuildInfo struct {
	Vertices  []mgl32.Vec3
	Indices   []uint32
	UVs       []mgl32.Vec2
	Colors    []mgl32.Vec4
	FaceCount int

	built bool
}

// MeshBuildInfo is the output of a chunk mesh build: an opaque and a transparent pass.
type MeshBuildInfo struct {
	Opaque      SingleMeshBuildInfo
	Transparent SingleMeshBuildInfo
}

// NewMeshBuildInfo returns an empty, unbuilt mesh.
func NewMeshBuildInfo() *MeshBuildInfo {
	return &MeshBuildInfo{}
}

// Build finalizes both passes. Later face pushes panic.
func (m *MeshBuildInfo) Build() *MeshBuildInfo {
	m.Opaque.build()
	m.Transparent.build()
	return m
}

// Empty reports whether neither pass holds a face.
func (m *MeshBuildInfo) Empty() bool {
	return m.Opaque.FaceCount == 0 && m.Transparent.FaceCount == 0
}

// FaceCount sums the faces of both passes.
func (m *MeshBuildInfo) FaceCount() int {
	return m.Opaque.FaceCount + m.Transparent.FaceCount
}

// Built reports whether Build has been called.
func (m *MeshBuildInfo) Built() bool {
	return m.Opaque.built && m.Transparent.built
}

func (s *SingleMeshBuildInfo) build() {
	s.Vertices = clip(s.Vertices)
	s.Indices = clip(s.Indices)
	s.UVs = clip(s.UVs)
	s.Colors = clip(s.Colors)
	s.built = true
}

func clip[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s[:len(s):len(s)]
}

// pushFace appends one quad. verts must already be in winding order; flip rotates the diagonal.
func (s *SingleMeshBuildInfo) pushFace(verts [4]mgl32.Vec3, tile uint8, corners [4]uint8, flip bool, color mgl32.Vec3) {
	if s.built {
		panic("meshing: push into a built mesh")
	}

	s.Vertices = append(s.Vertices, verts[:]...)

	for _, l := range corners {
		c := LightColors[min(l, MaxLight)]
		s.Colors = append(s.Colors, mgl32.Vec4{color[0] * c[0], color[1] * c[1], color[2] * c[2], 1})
	}

	f := uint32(0)
	if flip {
		f = 1
	}
	base := uint32(s.FaceCount * 4)
	for _, k := range [6]uint32{0, 1, 2, 0, 2, 3} {
		s.Indices = append(s.Indices, base+(k+f)%4)
	}

	u, v := tileOrigin(tile)
	s.UVs = append(s.UVs,
		mgl32.Vec2{u + tileUnit, v},
		mgl32.Vec2{u + tileUnit, v + tileUnit},
		mgl32.Vec2{u, v + tileUnit},
		mgl32.Vec2{u, v},
	)

	s.FaceCount++
}
