package graphics

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/meshing"
	"github.com/shuidong/block-game/internal/profiling"
	"github.com/shuidong/block-game/internal/world"
)

// floatsPerVertex is position (3), uv (2) and colour (4).
const floatsPerVertex = 9

type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

type chunkMesh struct {
	opaque      gpuMesh
	transparent gpuMesh
	faces       int
}

// ChunkRenderer keeps one GPU mesh per chunk of every created column and
// draws them. Every method must run on the GL thread.
type ChunkRenderer struct {
	dims    world.Dimensions
	shader  *Shader
	atlas   uint32
	columns map[coord.Column][]*chunkMesh

	FogColor mgl32.Vec3
}

func NewChunkRenderer(dims world.Dimensions) (*ChunkRenderer, error) {
	shader, err := NewShader(chunkVertexSource, chunkFragmentSource)
	if err != nil {
		return nil, err
	}
	atlas, _, _ := UploadTexture(AtlasImage())
	return &ChunkRenderer{
		dims:     dims,
		shader:   shader,
		atlas:    atlas,
		columns:  make(map[coord.Column][]*chunkMesh),
		FogColor: mgl32.Vec3{0.62, 0.76, 0.92},
	}, nil
}

func (r *ChunkRenderer) CreateColumn(pos coord.Column, meshes []*meshing.MeshBuildInfo) {
	r.DestroyColumn(pos)
	col := make([]*chunkMesh, r.dims.WorldHeight)
	for y := range col {
		if y < len(meshes) {
			col[y] = uploadChunk(meshes[y])
		}
	}
	r.columns[pos] = col
}

func (r *ChunkRenderer) DestroyColumn(pos coord.Column) {
	for _, m := range r.columns[pos] {
		m.delete()
	}
	delete(r.columns, pos)
}

func (r *ChunkRenderer) UpdateChunk(pos coord.Chunk, mesh *meshing.MeshBuildInfo) bool {
	col, ok := r.columns[pos.Column()]
	if !ok || pos.Y < 0 || pos.Y >= len(col) {
		return false
	}
	col[pos.Y].delete()
	col[pos.Y] = uploadChunk(mesh)
	return true
}

// Columns is the number of columns currently on the GPU.
func (r *ChunkRenderer) Columns() int { return len(r.columns) }

// Faces sums the faces of every uploaded chunk.
func (r *ChunkRenderer) Faces() int {
	n := 0
	for _, col := range r.columns {
		for _, m := range col {
			if m != nil {
				n += m.faces
			}
		}
	}
	return n
}

// Draw renders every chunk inside the camera frustum, opaque pass first.
// It returns the number of chunks drawn.
func (r *ChunkRenderer) Draw(cam *Camera) int {
	defer profiling.Track("graphics.ChunkRenderer.Draw")()

	proj := cam.GetProjectionMatrix()
	view := cam.GetViewMatrix()
	frustum := NewFrustum(proj.Mul4(view))

	r.shader.Use()
	r.shader.SetMatrix4("projection", &proj[0])
	r.shader.SetMatrix4("view", &view[0])
	r.shader.SetInt("atlas", 0)
	r.shader.SetVector3("fogColor", r.FogColor.X(), r.FogColor.Y(), r.FogColor.Z())
	r.shader.SetFloat("fogEnd", cam.FarPlane)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.atlas)

	size := float32(r.dims.ChunkSize)
	type visible struct {
		origin mgl32.Vec3
		mesh   *chunkMesh
	}
	var queue []visible
	for pos, col := range r.columns {
		for y, m := range col {
			if m == nil || m.faces == 0 {
				continue
			}
			ox, oy, oz := pos.Chunk(y).Origin(r.dims.ChunkSize)
			origin := mgl32.Vec3{float32(ox), float32(oy), float32(oz)}
			if frustum.Intersects(origin, origin.Add(mgl32.Vec3{size, size, size})) {
				queue = append(queue, visible{origin, m})
			}
		}
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	for _, v := range queue {
		r.shader.SetVector3("chunkOrigin", v.origin.X(), v.origin.Y(), v.origin.Z())
		v.mesh.opaque.draw()
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	for _, v := range queue {
		r.shader.SetVector3("chunkOrigin", v.origin.X(), v.origin.Y(), v.origin.Z())
		v.mesh.transparent.draw()
	}
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return len(queue)
}

// Dispose frees every GPU resource of the renderer.
func (r *ChunkRenderer) Dispose() {
	for pos := range r.columns {
		r.DestroyColumn(pos)
	}
	if r.atlas != 0 {
		gl.DeleteTextures(1, &r.atlas)
		r.atlas = 0
	}
	r.shader.Delete()
}

// interleave packs one pass into position, uv, colour vertices.
func interleave(s *meshing.SingleMeshBuildInfo) []float32 {
	out := make([]float32, 0, len(s.Vertices)*floatsPerVertex)
	for i, v := range s.Vertices {
		uv := s.UVs[i]
		c := s.Colors[i]
		out = append(out, v.X(), v.Y(), v.Z(), uv.X(), uv.Y(), c.X(), c.Y(), c.Z(), c.W())
	}
	return out
}

func uploadChunk(mesh *meshing.MeshBuildInfo) *chunkMesh {
	if mesh == nil {
		return &chunkMesh{}
	}
	return &chunkMesh{
		opaque:      upload(&mesh.Opaque),
		transparent: upload(&mesh.Transparent),
		faces:       mesh.FaceCount(),
	}
}

func upload(s *meshing.SingleMeshBuildInfo) gpuMesh {
	if len(s.Indices) == 0 {
		return gpuMesh{}
	}
	verts := interleave(s)

	var m gpuMesh
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(s.Indices)*4, gl.Ptr(s.Indices), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, stride, 5*4)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	m.indexCount = int32(len(s.Indices))
	return m
}

func (m *gpuMesh) draw() {
	if m.indexCount == 0 {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func (m *gpuMesh) release() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
	}
	*m = gpuMesh{}
}

func (m *chunkMesh) delete() {
	if m == nil {
		return
	}
	m.opaque.release()
	m.transparent.release()
}
