package geometry

// polygonSet is the decoded PolygonVertexIndex stream: one control point
// index per polygon-vertex plus the polygon ranges over that stream.
type polygonSet struct {
	controlPoints []int32
	polygons      []polygon
}

// polygon is a [start,end) range of polygon-vertices. source is the ordinal
// of the polygon in the raw stream; it diverges from the slice position once
// a degenerate polygon has been dropped, and per-polygon layers index by it.
type polygon struct {
	start, end int
	source     int
}

// decodePolygons decodes the negative-terminated index array: a value v < 0
// at the end of a polygon encodes control point index ^v (= -(v+1)). Polygons
// with fewer than three vertices carry no surface and are dropped.
func decodePolygons(indices []int32) polygonSet {
	set := polygonSet{controlPoints: make([]int32, 0, len(indices))}

	start, source := 0, 0
	for i, raw := range indices {
		cp := raw
		if cp < 0 {
			cp = ^cp
		}
		set.controlPoints = append(set.controlPoints, cp)
		if raw < 0 {
			if i+1-start >= 3 {
				set.polygons = append(set.polygons, polygon{start: start, end: i + 1, source: source})
			}
			start = i + 1
			source++
		}
	}
	return set
}

// triangleCount is sum(len(polygon)-2) over the set.
func (s polygonSet) triangleCount() int {
	n := 0
	for _, p := range s.polygons {
		n += p.end - p.start - 2
	}
	return n
}

// triangulate fans every polygon from its first vertex and returns triangles
// as polygon-vertex indices into the decoded stream. Deterministic and exact
// for convex polygons; concave n-gons degrade without failing.
func (s polygonSet) triangulate(flipWinding bool) []uint32 {
	out := make([]uint32, 0, s.triangleCount()*3)
	for _, p := range s.polygons {
		for i := p.start + 1; i+1 < p.end; i++ {
			if flipWinding {
				out = append(out, uint32(p.start), uint32(i+1), uint32(i))
			} else {
				out = append(out, uint32(p.start), uint32(i), uint32(i+1))
			}
		}
	}
	return out
}

// polygonOf maps a polygon-vertex index back to its position in the kept
// polygon list. The list is ordered, so callers sweeping pv in order pass the
// previous result as a cursor to keep the lookup O(1) amortized.
func (s polygonSet) polygonOf(pv int, cursor int) int {
	for cursor+1 < len(s.polygons) && pv >= s.polygons[cursor].end {
		cursor++
	}
	return cursor
}
