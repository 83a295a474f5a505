package geometry

import (
	"math"
	"testing"
)

// TestNewPolygonRejectsDegenerate ensures traces with fewer than 3
// distinct vertices cannot become polygons.
func TestNewPolygonRejectsDegenerate(t *testing.T) {
	cases := [][]Point2D{
		nil,
		{{X: 1, Y: 1}},
		{{X: 1, Y: 1}, {X: 2, Y: 2}},
		{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}},
		{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 1}}, // closes back onto two distinct points
	}
	for i, verts := range cases {
		if _, err := NewPolygon(verts); err != ErrDegenerate {
			t.Errorf("case %d: expected ErrDegenerate, got %v", i, err)
		}
	}
}

// TestNewPolygonStripsClosingVertex verifies that an explicitly closed
// trace and its open equivalent build the same polygon.
func TestNewPolygonStripsClosingVertex(t *testing.T) {
	open := []Point2D{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	closed := append(append([]Point2D{}, open...), Point2D{0, 0})

	p1, err := NewPolygon(open)
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	p2, err := NewPolygon(closed)
	if err != nil {
		t.Fatalf("closed trace: %v", err)
	}
	if p1.NumVertices() != 4 || p2.NumVertices() != 4 {
		t.Errorf("expected 4 vertices, got %d and %d", p1.NumVertices(), p2.NumVertices())
	}
}

// TestSquareAreaAndCentroid checks the shoelace results on a known shape.
func TestSquareAreaAndCentroid(t *testing.T) {
	p, err := NewPolygon([]Point2D{{1, 1}, {5, 1}, {5, 5}, {1, 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := p.Area(); math.Abs(got-16) > 1e-9 {
		t.Errorf("expected area 16, got %f", got)
	}

	c := p.Centroid()
	if math.Abs(c.X-3) > 1e-9 || math.Abs(c.Y-3) > 1e-9 {
		t.Errorf("expected centroid (3,3), got (%f,%f)", c.X, c.Y)
	}

	// Orientation must not matter.
	q, _ := NewPolygon([]Point2D{{1, 5}, {5, 5}, {5, 1}, {1, 1}})
	if math.Abs(q.Area()-16) > 1e-9 {
		t.Errorf("reversed orientation changed area: %f", q.Area())
	}
}

// TestCollinearCentroidFallback covers the zero-area fallback to the
// vertex mean.
func TestCollinearCentroidFallback(t *testing.T) {
	p, err := NewPolygon([]Point2D{{0, 0}, {2, 0}, {4, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := p.Centroid()
	if math.Abs(c.X-2) > 1e-9 || math.Abs(c.Y) > 1e-9 {
		t.Errorf("expected centroid (2,0), got (%f,%f)", c.X, c.Y)
	}
}

// TestBounds verifies the axis-aligned bounding box.
func TestBounds(t *testing.T) {
	p, _ := NewPolygon([]Point2D{{2, 7}, {9, 3}, {4, 12}})
	min, max := p.Bounds()
	if min.X != 2 || min.Y != 3 || max.X != 9 || max.Y != 12 {
		t.Errorf("unexpected bounds min=%v max=%v", min, max)
	}
}

// TestGobRoundTrip ensures polygons survive the cache's binary encoding.
func TestGobRoundTrip(t *testing.T) {
	p, _ := NewPolygon([]Point2D{{0.5, 0.9}, {3.1, 0.9}, {1.5, 4.2}})
	data, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var q Polygon
	if err := q.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	a, b := p.Vertices(), q.Vertices()
	if len(a) != len(b) {
		t.Fatalf("vertex count changed: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("vertex %d changed: %v vs %v", i, a[i], b[i])
		}
	}
}
