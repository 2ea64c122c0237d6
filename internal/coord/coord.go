package coord

// Column identifies a vertical stack of chunks by its horizontal chunk index.
type Column struct {
	X, Z int
}

// Chunk identifies one cube of a column. Y is the chunk index inside the column.
type Chunk struct {
	X, Y, Z int
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod returns a non-negative remainder for positive b.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// WorldToColumn returns the column containing world position (x, z).
func WorldToColumn(x, z, size int) Column {
	return Column{X: FloorDiv(x, size), Z: FloorDiv(z, size)}
}

// WorldToChunk returns the chunk containing world position (x, y, z).
func WorldToChunk(x, y, z, size int) Chunk {
	return Chunk{X: FloorDiv(x, size), Y: FloorDiv(y, size), Z: FloorDiv(z, size)}
}

// Origin returns the world position of the column's (0, 0) corner.
func (c Column) Origin(size int) (x, z int) {
	return c.X * size, c.Z * size
}

// Chunk returns the chunk at index y inside this column.
func (c Column) Chunk(y int) Chunk {
	return Chunk{X: c.X, Y: y, Z: c.Z}
}

// Add offsets the column by (dx, dz).
func (c Column) Add(dx, dz int) Column {
	return Column{X: c.X + dx, Z: c.Z + dz}
}

// DistanceSq returns the squared distance between two columns.
func (c Column) DistanceSq(o Column) int {
	dx := c.X - o.X
	dz := c.Z - o.Z
	return dx*dx + dz*dz
}

// Column returns the column owning this chunk.
func (c Chunk) Column() Column {
	return Column{X: c.X, Z: c.Z}
}

// Add offsets the chunk by (dx, dy, dz).
func (c Chunk) Add(dx, dy, dz int) Chunk {
	return Chunk{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Origin returns the world position of the chunk's (0, 0, 0) corner.
func (c Chunk) Origin(size int) (x, y, z int) {
	return c.X * size, c.Y * size, c.Z * size
}
