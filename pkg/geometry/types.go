// Package geometry provides the 2D primitives used by the segmentation
// pipeline: points in image coordinates and simple polygons built from
// contour traces.
package geometry

import (
	"errors"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
// In image space X is the column and Y is the row.
type Point2D struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance to another point.
func (p Point2D) Dist(q Point2D) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// ErrDegenerate is returned when a polygon cannot be constructed because
// it has fewer than 3 distinct vertices.
var ErrDegenerate = errors.New("geometry: polygon needs at least 3 distinct vertices")

// Polygon is a simple closed polygon. Vertices are stored in traversal
// order without repeating the first vertex at the end; the closing edge
// is implicit. A Polygon is immutable after construction.
type Polygon struct {
	vertices []Point2D
}

// NewPolygon builds a polygon from an ordered vertex sequence. A trailing
// vertex equal to the first is tolerated and stripped. Consecutive
// duplicate vertices are collapsed. Returns ErrDegenerate if fewer than 3
// distinct vertices remain.
func NewPolygon(vertices []Point2D) (Polygon, error) {
	pts := make([]Point2D, 0, len(vertices))
	for _, v := range vertices {
		if len(pts) > 0 && pts[len(pts)-1] == v {
			continue
		}
		pts = append(pts, v)
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return Polygon{}, ErrDegenerate
	}
	return Polygon{vertices: pts}, nil
}

// Vertices returns a copy of the vertex sequence.
func (p Polygon) Vertices() []Point2D {
	out := make([]Point2D, len(p.vertices))
	copy(out, p.vertices)
	return out
}

// NumVertices returns the number of distinct vertices.
func (p Polygon) NumVertices() int {
	return len(p.vertices)
}

// signedArea computes the shoelace sum. Positive for counter-clockwise
// vertex order in a y-up frame (clockwise in image coordinates).
func (p Polygon) signedArea() float64 {
	n := len(p.vertices)
	sum := 0.0
	for i := 0; i < n; i++ {
		a := p.vertices[i]
		b := p.vertices[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the enclosed area, independent of vertex orientation.
func (p Polygon) Area() float64 {
	return math.Abs(p.signedArea())
}

// Centroid returns the area centroid of the polygon. For polygons with
// vanishing area (collinear traces survive the distinctness check) it
// falls back to the vertex mean so the result stays inside the point set.
func (p Polygon) Centroid() Point2D {
	n := len(p.vertices)
	a := p.signedArea()
	if math.Abs(a) < 1e-12 {
		var c Point2D
		for _, v := range p.vertices {
			c.X += v.X
			c.Y += v.Y
		}
		c.X /= float64(n)
		c.Y /= float64(n)
		return c
	}

	var cx, cy float64
	for i := 0; i < n; i++ {
		v0 := p.vertices[i]
		v1 := p.vertices[(i+1)%n]
		cross := v0.X*v1.Y - v1.X*v0.Y
		cx += (v0.X + v1.X) * cross
		cy += (v0.Y + v1.Y) * cross
	}
	return Point2D{X: cx / (6 * a), Y: cy / (6 * a)}
}

// Bounds returns the axis-aligned bounding box as (min, max) corners.
func (p Polygon) Bounds() (Point2D, Point2D) {
	min := p.vertices[0]
	max := p.vertices[0]
	for _, v := range p.vertices[1:] {
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
	}
	return min, max
}
