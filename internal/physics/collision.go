package physics

// GroundLevel returns the y just above the highest solid block at or below
// fromY in the line (x, z), or -1 when the line is empty down to y = 0.
func GroundLevel(src BlockSource, x, z, fromY int) int {
	for y := fromY; y >= 0; y-- {
		if Solid(src.GetBlock(x, y, z, 0)) {
			return y + 1
		}
	}
	return -1
}
