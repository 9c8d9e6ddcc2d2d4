package geom

import "math"

// Point is a 2D point or offset in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Mul scales p by s.
func (p Point) Mul(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Length returns the distance from the origin.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 {
	return p.Sub(q).Length()
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Snap rounds p to the nearest multiple of size on both axes.
func (p Point) Snap(size float64) Point {
	if size <= 0 {
		return p
	}
	return Point{math.Round(p.X/size) * size, math.Round(p.Y/size) * size}
}

// SegmentDist returns the distance from p to the segment a-b.
func SegmentDist(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = max(0, min(1, t))
	return p.Dist(a.Add(ab.Mul(t)))
}

// CubicAt evaluates the cubic bezier p0,c1,c2,p1 at t.
func CubicAt(p0, c1, c2, p1 Point, t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}
