package segmentation

// Contour extraction by marching squares over the label grid, at an
// isovalue strictly between the background value 0 and the foreground
// indicator 1. Contours therefore trace the edge between any non-zero
// label and background, which is how the sweep separates candidate
// regions regardless of their label values.
//
// Contour points are produced in (row, column) order; the sweep flips
// them into (x, y) when constructing polygons.

// contourPoint is a sub-pixel contour vertex in (row, column) order.
type contourPoint struct {
	Row float64
	Col float64
}

// contour is an ordered boundary trace. Closed is false for chains that
// terminate at the image border.
type contour struct {
	Points []contourPoint
	Closed bool
}

// gridEdge identifies an edge of the pixel grid: the segment between grid
// points (X, Y) and (X+1, Y) when Vert is false, or (X, Y) and (X, Y+1)
// when Vert is true. Contour vertices live on grid edges, so chaining by
// edge identity avoids any floating-point matching.
type gridEdge struct {
	X, Y int
	Vert bool
}

// findContours extracts all iso-contours of the foreground indicator
// (label > 0 maps to 1, background to 0) at the given level in (0, 1).
func findContours(labels []int, width, height int, level float64) []contour {
	if width < 2 || height < 2 {
		return nil
	}

	in := func(x, y int) bool { return labels[y*width+x] > 0 }

	// Each cut edge connects to at most two partner edges, one per
	// adjacent cell.
	links := make(map[gridEdge][]gridEdge)
	var order []gridEdge // first-seen order, keeps traces reproducible
	connect := func(a, b gridEdge) {
		if _, ok := links[a]; !ok {
			order = append(order, a)
		}
		if _, ok := links[b]; !ok {
			order = append(order, b)
		}
		links[a] = append(links[a], b)
		links[b] = append(links[b], a)
	}

	for y := 0; y < height-1; y++ {
		for x := 0; x < width-1; x++ {
			c0 := in(x, y)
			c1 := in(x+1, y)
			c2 := in(x+1, y+1)
			c3 := in(x, y+1)

			top := gridEdge{X: x, Y: y, Vert: false}
			bottom := gridEdge{X: x, Y: y + 1, Vert: false}
			left := gridEdge{X: x, Y: y, Vert: true}
			right := gridEdge{X: x + 1, Y: y, Vert: true}

			var cut []gridEdge
			if c0 != c1 {
				cut = append(cut, top)
			}
			if c1 != c2 {
				cut = append(cut, right)
			}
			if c3 != c2 {
				cut = append(cut, bottom)
			}
			if c0 != c3 {
				cut = append(cut, left)
			}

			switch len(cut) {
			case 2:
				connect(cut[0], cut[1])
			case 4:
				// Saddle cell. The cell center averages the four binary
				// corners to 0.5, which is below any level >= 0.5, so the
				// two diagonal foreground corners stay disconnected.
				if level >= 0.5 {
					if c0 { // c0 and c2 foreground
						connect(left, top)
						connect(right, bottom)
					} else { // c1 and c3 foreground
						connect(top, right)
						connect(bottom, left)
					}
				} else {
					if c0 {
						connect(top, right)
						connect(bottom, left)
					} else {
						connect(left, top)
						connect(right, bottom)
					}
				}
			}
		}
	}

	point := func(e gridEdge) contourPoint {
		// The crossing sits at fraction level along the edge, measured
		// from the background end.
		var v0 int
		if e.Vert {
			v0 = labels[e.Y*width+e.X]
			t := level
			if v0 > 0 {
				t = 1 - level
			}
			return contourPoint{Row: float64(e.Y) + t, Col: float64(e.X)}
		}
		v0 = labels[e.Y*width+e.X]
		t := level
		if v0 > 0 {
			t = 1 - level
		}
		return contourPoint{Row: float64(e.Y), Col: float64(e.X) + t}
	}

	visited := make(map[gridEdge]bool)
	var contours []contour

	// walk follows the chain from start in the direction of first,
	// stopping when it returns to start (closed) or hits a dead end.
	walk := func(start, first gridEdge) ([]gridEdge, bool) {
		path := []gridEdge{start}
		prev, cur := start, first
		for {
			path = append(path, cur)
			var next gridEdge
			found := false
			for _, n := range links[cur] {
				if n != prev {
					next = n
					found = true
					break
				}
			}
			if !found {
				return path, false
			}
			if next == start {
				return path, true
			}
			prev, cur = cur, next
		}
	}

	for _, e := range order {
		ns := links[e]
		if visited[e] || len(ns) == 0 {
			continue
		}
		path, closed := walk(e, ns[0])
		if !closed && len(ns) > 1 {
			// Open chain: extend from the other side of the seed edge so
			// the trace spans border to border.
			back, _ := walk(e, ns[1])
			reversed := make([]gridEdge, 0, len(back)-1+len(path))
			for i := len(back) - 1; i > 0; i-- {
				reversed = append(reversed, back[i])
			}
			path = append(reversed, path...)
		}
		pts := make([]contourPoint, len(path))
		for i, pe := range path {
			visited[pe] = true
			pts[i] = point(pe)
		}
		contours = append(contours, contour{Points: pts, Closed: closed})
	}
	return contours
}
