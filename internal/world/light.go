package world

type cell struct {
	x, y, z int
}

var neighbours = [6]cell{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

func (c cell) add(d cell) cell {
	return cell{c.x + d.x, c.y + d.y, c.z + d.z}
}

// lightVolume is the block and light grid that flood fills run over. Cells
// outside the volume report loaded == false and are never written.
type lightVolume interface {
	volumeHeight() int
	opaqueAt(x, y, z int) (opaque, loaded bool)
	lightAt(x, y, z int) (level uint8, loaded bool)
	setLightAt(x, y, z int, level uint8)
}

type lightStep struct {
	at     cell
	level  int
	source bool
}

// floodLight spreads level outward from start, decaying by one per step.
// A non-source cell is only raised, never lowered; opaque cells are forced to 0.
func floodLight(v lightVolume, start cell, level int, isSource bool) {
	queue := []lightStep{{start, level, isSource}}
	for len(queue) > 0 {
		step := queue[0]
		queue = queue[1:]
		if step.level <= 0 {
			continue
		}
		c := step.at
		opaque, ok := v.opaqueAt(c.x, c.y, c.z)
		if !ok {
			continue
		}
		cur, _ := v.lightAt(c.x, c.y, c.z)
		if opaque {
			if cur != 0 {
				v.setLightAt(c.x, c.y, c.z, 0)
			}
			continue
		}
		if !step.source && int(cur) >= step.level {
			continue
		}
		if int(cur) != step.level {
			v.setLightAt(c.x, c.y, c.z, uint8(step.level))
		}
		if step.level == 1 {
			continue
		}
		for _, d := range neighbours {
			queue = append(queue, lightStep{c.add(d), step.level - 1, false})
		}
	}
}

type darkStep struct {
	at    cell
	level uint8
}

// floodDark removes the light the seeds may have fed. Cells lit less than the
// cell that reached them are cleared; brighter ones are fed elsewhere and
// reflood as sources once darkening is done.
func floodDark(v lightVolume, seeds []cell) {
	queue := make([]darkStep, 0, len(seeds))
	for _, c := range seeds {
		l, ok := v.lightAt(c.x, c.y, c.z)
		if !ok {
			continue
		}
		if l != 0 {
			v.setLightAt(c.x, c.y, c.z, 0)
		}
		queue = append(queue, darkStep{c, l})
	}

	var endpoints []cell
	for len(queue) > 0 {
		step := queue[0]
		queue = queue[1:]
		for _, d := range neighbours {
			n := step.at.add(d)
			l, ok := v.lightAt(n.x, n.y, n.z)
			if !ok || l == 0 {
				continue
			}
			if l < step.level {
				v.setLightAt(n.x, n.y, n.z, 0)
				queue = append(queue, darkStep{n, l})
			} else {
				endpoints = append(endpoints, n)
			}
		}
	}

	for _, e := range endpoints {
		if l, _ := v.lightAt(e.x, e.y, e.z); l > 0 {
			floodLight(v, e, int(l), true)
		}
	}
}

// needsSpread reports whether a lit cell has a transparent neighbour that it
// could still brighten.
func needsSpread(v lightVolume, c cell) bool {
	l, _ := v.lightAt(c.x, c.y, c.z)
	for _, d := range neighbours {
		n := c.add(d)
		opaque, ok := v.opaqueAt(n.x, n.y, n.z)
		if !ok || opaque {
			continue
		}
		if nl, _ := v.lightAt(n.x, n.y, n.z); int(nl) < int(l)-1 {
			return true
		}
	}
	return false
}
