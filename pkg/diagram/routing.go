package diagram

import "math"

// waypointDragEps: horizontal spans shorter than this leave the ratio
// untouched to avoid a division blow-up.
const waypointDragEps = 0.1

// Route returns the edge's realized path. A fully connected edge yields the
// 4-point orthogonal polyline
//
//	P0 -> (mx, P0.Y) -> (mx, P1.Y) -> P1
//
// with mx = P0.X + ratio*(P1.X-P0.X). While either end is unbound the path
// is the straight 2-point line. Degenerate cases (coincident endpoints,
// collapsed vertical segment) still return a valid path.
func (e *Edge) Route() []Point {
	p0 := e.StartPoint()
	p1 := e.EndPoint()

	if !e.Connected() {
		return []Point{p0, p1}
	}

	mx := p0.X + e.WaypointRatio*(p1.X-p0.X)
	return []Point{
		p0,
		{mx, p0.Y},
		{mx, p1.Y},
		p1,
	}
}

// WaypointPos returns the drag handle for the vertical segment: its x from
// the ratio, its y fixed at the midpoint of the endpoint ys.
func (e *Edge) WaypointPos() Point {
	p0 := e.StartPoint()
	p1 := e.EndPoint()
	return Point{
		X: p0.X + e.WaypointRatio*(p1.X-p0.X),
		Y: (p0.Y + p1.Y) / 2,
	}
}

// DragWaypoint moves the vertical segment to newX, clamping the ratio to
// [0,1]. A near-zero horizontal span leaves the ratio unchanged.
func (e *Edge) DragWaypoint(newX float64) {
	p0 := e.StartPoint()
	p1 := e.EndPoint()
	dx := p1.X - p0.X
	if math.Abs(dx) < waypointDragEps {
		return
	}
	ratio := (newX - p0.X) / dx
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	e.WaypointRatio = ratio
}

// ArrowAngle returns the arrow-head direction in radians, taken from the
// last two distinct points of the realized path so the head always points
// along the final rendered segment.
func ArrowAngle(path []Point) float64 {
	if len(path) < 2 {
		return 0
	}
	tip := path[len(path)-1]
	for i := len(path) - 2; i >= 0; i-- {
		p := path[i]
		if p.DistanceTo(tip) > directionEps {
			return math.Atan2(tip.Y-p.Y, tip.X-p.X)
		}
	}
	return 0
}

// LongestSegment returns the index of the longest segment in path, used to
// pick where the edge label sits.
func LongestSegment(path []Point) int {
	best, bestLen := 0, -1.0
	for i := 0; i+1 < len(path); i++ {
		if l := path[i].DistanceTo(path[i+1]); l > bestLen {
			best, bestLen = i, l
		}
	}
	return best
}
