package coord

// Rect is an inclusive rectangle of columns.
type Rect struct {
	Min, Max Column
}

// RectAround returns the square of columns within radius of center.
func RectAround(center Column, radius int) Rect {
	return Rect{
		Min: Column{X: center.X - radius, Z: center.Z - radius},
		Max: Column{X: center.X + radius, Z: center.Z + radius},
	}
}

func (r Rect) Contains(c Column) bool {
	return c.X >= r.Min.X && c.X <= r.Max.X && c.Z >= r.Min.Z && c.Z <= r.Max.Z
}

// Center returns the middle column, rounded toward Min.
func (r Rect) Center() Column {
	return Column{X: FloorDiv(r.Min.X+r.Max.X, 2), Z: FloorDiv(r.Min.Z+r.Max.Z, 2)}
}

// Expand grows the rectangle by n columns on every side.
func (r Rect) Expand(n int) Rect {
	return Rect{
		Min: Column{X: r.Min.X - n, Z: r.Min.Z - n},
		Max: Column{X: r.Max.X + n, Z: r.Max.Z + n},
	}
}

// Empty reports whether the rectangle holds no columns.
func (r Rect) Empty() bool {
	return r.Max.X < r.Min.X || r.Max.Z < r.Min.Z
}

// Columns lists every column in x-major order.
func (r Rect) Columns() []Column {
	if r.Empty() {
		return nil
	}
	out := make([]Column, 0, (r.Max.X-r.Min.X+1)*(r.Max.Z-r.Min.Z+1))
	for x := r.Min.X; x <= r.Max.X; x++ {
		for z := r.Min.Z; z <= r.Max.Z; z++ {
			out = append(out, Column{X: x, Z: z})
		}
	}
	return out
}
