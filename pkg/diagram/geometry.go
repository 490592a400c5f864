// Geometric primitives for the diagram scene graph.
// Provides border intersection for edge connection points and the
// rectangle math used by containment and z-order checks.

package diagram

import "math"

// directionEps guards divisions by near-zero ray components.
const directionEps = 1e-6

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// DistanceTo returns the Euclidean distance from p to q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Rect represents an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y float64 // Top-left corner
	W, H float64 // Full width and height
}

// Center returns the rectangle's center point.
func (r Rect) Center() Point {
	return Point{r.X + r.W/2, r.Y + r.H/2}
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	return r.W * r.H
}

// ContainsPoint reports whether p lies inside r (borders inclusive).
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// ContainsRect reports whether s lies entirely inside r.
func (r Rect) ContainsRect(s Rect) bool {
	return s.X >= r.X && s.Y >= r.Y &&
		s.X+s.W <= r.X+r.W && s.Y+s.H <= r.Y+r.H
}

// Intersects reports whether r and s share any area.
func (r Rect) Intersects(s Rect) bool {
	return r.X < s.X+s.W && s.X < r.X+r.W &&
		r.Y < s.Y+s.H && s.Y < r.Y+r.H
}

// Union returns the smallest rectangle covering both r and s.
func (r Rect) Union(s Rect) Rect {
	minX := math.Min(r.X, s.X)
	minY := math.Min(r.Y, s.Y)
	maxX := math.Max(r.X+r.W, s.X+s.W)
	maxY := math.Max(r.Y+r.H, s.Y+s.H)
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Translated returns r moved by (dx, dy).
func (r Rect) Translated(dx, dy float64) Rect {
	return Rect{r.X + dx, r.Y + dy, r.W, r.H}
}

// rightMid is the fallback connection point for degenerate rays.
func rightMid(r Rect) Point {
	return Point{r.X + r.W, r.Y + r.H/2}
}

// BorderIntersection returns the point where the ray from the center of r
// toward target first crosses one of the four sides of r. When target
// coincides with the center, or no side intersection exists, it falls back
// to the midpoint of the right side.
func BorderIntersection(r Rect, target Point) Point {
	center := r.Center()
	dx := target.X - center.X
	dy := target.Y - center.Y

	if math.Abs(dx) < directionEps && math.Abs(dy) < directionEps {
		return rightMid(r)
	}

	best := Point{}
	bestDist := math.MaxFloat64
	found := false

	consider := func(t float64, p Point) {
		if t <= 0 {
			return
		}
		if d := center.DistanceTo(p); d < bestDist {
			best = p
			bestDist = d
			found = true
		}
	}

	// Vertical sides: solve for the x coordinate, keep hits within the
	// side's vertical span.
	if math.Abs(dx) > directionEps {
		for _, x := range []float64{r.X, r.X + r.W} {
			t := (x - center.X) / dx
			y := center.Y + t*dy
			if y >= r.Y && y <= r.Y+r.H {
				consider(t, Point{x, y})
			}
		}
	}

	// Horizontal sides.
	if math.Abs(dy) > directionEps {
		for _, y := range []float64{r.Y, r.Y + r.H} {
			t := (y - center.Y) / dy
			x := center.X + t*dx
			if x >= r.X && x <= r.X+r.W {
				consider(t, Point{x, y})
			}
		}
	}

	if !found {
		return rightMid(r)
	}
	return best
}
