package diagram

import "testing"

// buildPair places two 200x100 nodes side by side with a gap and connects
// them left to right.
func buildPair(t *testing.T) (*Diagram, *Node, *Node, *Edge) {
	t.Helper()
	d := New()
	a := d.AddNode("A", Point{0, 0})
	b := d.AddNode("B", Point{300, 0})
	e := d.Connect(a, b)
	if e == nil {
		t.Fatal("Connect returned nil")
	}
	return d, a, b, e
}

func TestRouteOrthogonal(t *testing.T) {
	_, _, _, e := buildPair(t)

	path := e.Route()
	if len(path) != 4 {
		t.Fatalf("path has %d points, want 4", len(path))
	}

	want := []Point{{200, 50}, {250, 50}, {250, 50}, {300, 50}}
	for i, p := range want {
		if !pointsEqual(path[i], p) {
			t.Errorf("path[%d] = (%v, %v), want (%v, %v)",
				i, path[i].X, path[i].Y, p.X, p.Y)
		}
	}
}

func TestRouteRatioSweep(t *testing.T) {
	_, _, _, e := buildPair(t)

	prev := -1.0
	for ratio := 0.0; ratio <= 1.0; ratio += 0.1 {
		e.WaypointRatio = ratio
		path := e.Route()
		mx := path[1].X
		if mx < prev {
			t.Fatalf("ratio %v: vertical segment moved backwards (%v < %v)", ratio, mx, prev)
		}
		if path[1].X != path[2].X {
			t.Errorf("ratio %v: vertical segment not vertical", ratio)
		}
		prev = mx
	}

	e.WaypointRatio = 0
	if mx := e.Route()[1].X; !almostEqual(mx, 200) {
		t.Errorf("ratio 0: mx = %v, want start x 200", mx)
	}
	e.WaypointRatio = 1
	if mx := e.Route()[1].X; !almostEqual(mx, 300) {
		t.Errorf("ratio 1: mx = %v, want end x 300", mx)
	}
}

func TestRouteDeterministic(t *testing.T) {
	_, _, _, e := buildPair(t)

	first := e.Route()
	for i := 0; i < 5; i++ {
		again := e.Route()
		for j := range first {
			if !pointsEqual(first[j], again[j]) {
				t.Fatalf("run %d: path[%d] changed", i, j)
			}
		}
	}
}

func TestRoutePendingStraightLine(t *testing.T) {
	d := New()
	a := d.AddNode("A", Point{0, 0})
	e := d.StartEdge(a, Point{500, 500})

	path := e.Route()
	if len(path) != 2 {
		t.Fatalf("pending edge path has %d points, want 2", len(path))
	}
	if !pointsEqual(path[1], (Point{500, 500})) {
		t.Errorf("free end = (%v, %v), want (500, 500)", path[1].X, path[1].Y)
	}

	e.MoveFreeEnd(Point{600, 100})
	if p := e.Route()[1]; !pointsEqual(p, (Point{600, 100})) {
		t.Errorf("after move, free end = (%v, %v)", p.X, p.Y)
	}
}

func TestDragWaypoint(t *testing.T) {
	_, _, _, e := buildPair(t)

	e.DragWaypoint(225)
	if !almostEqual(e.WaypointRatio, 0.25) {
		t.Errorf("ratio = %v, want 0.25", e.WaypointRatio)
	}

	// Clamped on both sides.
	e.DragWaypoint(100)
	if e.WaypointRatio != 0 {
		t.Errorf("ratio = %v, want clamp to 0", e.WaypointRatio)
	}
	e.DragWaypoint(900)
	if e.WaypointRatio != 1 {
		t.Errorf("ratio = %v, want clamp to 1", e.WaypointRatio)
	}
}

func TestDragWaypointDegenerateSpan(t *testing.T) {
	d := New()
	a := d.AddNode("A", Point{0, 0})
	b := d.AddNode("B", Point{0, 300})
	e := d.Connect(a, b)

	// Endpoints are vertically stacked, horizontal span near zero.
	before := e.WaypointRatio
	e.DragWaypoint(5000)
	if e.WaypointRatio != before {
		t.Errorf("ratio changed to %v on a degenerate span", e.WaypointRatio)
	}
}

func TestWaypointPosVerticalMidpoint(t *testing.T) {
	d := New()
	a := d.AddNode("A", Point{0, 0})
	b := d.AddNode("B", Point{400, 200})
	e := d.Connect(a, b)

	p0 := e.StartPoint()
	p1 := e.EndPoint()
	wp := e.WaypointPos()
	if !almostEqual(wp.Y, (p0.Y+p1.Y)/2) {
		t.Errorf("waypoint y = %v, want midpoint %v", wp.Y, (p0.Y+p1.Y)/2)
	}
}

func TestArrowAngle(t *testing.T) {
	path := []Point{{0, 0}, {100, 0}}
	if a := ArrowAngle(path); !almostEqual(a, 0) {
		t.Errorf("rightward angle = %v, want 0", a)
	}

	// A collapsed final segment falls back to the previous one.
	path = []Point{{0, 0}, {0, 100}, {0, 100}}
	if a := ArrowAngle(path); !almostEqual(a, 1.5707963267948966) {
		t.Errorf("downward angle = %v, want pi/2", a)
	}
}

func TestPinnedOffsets(t *testing.T) {
	_, a, _, e := buildPair(t)

	pin := Point{200, 10}
	e.SetStartOffset(&pin)
	p0 := e.StartPoint()
	want := a.ScenePos().Add(pin)
	if !pointsEqual(p0, want) {
		t.Errorf("pinned start = (%v, %v), want (%v, %v)", p0.X, p0.Y, want.X, want.Y)
	}

	e.SetStartOffset(nil)
	if !pointsEqual(e.StartPoint(), (Point{200, 50})) {
		t.Errorf("unpinned start should return to the border intersection")
	}
}
