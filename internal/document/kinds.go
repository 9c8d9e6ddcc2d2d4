package document

import (
	"fmt"

	"github.com/inamate/vecdraw/internal/geom"
	"github.com/inamate/vecdraw/internal/typeid"
)

// kappa places cubic tangents so four segments approximate a circle.
const kappa = 0.5522847498

// Line is a straight stroke between its nodes.
type Line struct{ Path }

// Curve is an open path whose tangents were smoothed when drawn.
type Curve struct{ Path }

// Rectangle is a closed four-node path.
type Rectangle struct{ Path }

// Circle is a closed four-node path with tangents on every node.
type Circle struct{ Path }

// FreePath is a path built node by node.
type FreePath struct{ Path }

func NewLine(from, to geom.Point) *Line {
	return &Line{newPath("Line", false, from, to)}
}

// NewCurve builds an open path through points and smooths it.
func NewCurve(points ...geom.Point) *Curve {
	c := &Curve{newPath("Curve", false, points...)}
	c.Smooth()
	return c
}

// NewRectangle builds the rectangle spanned by two opposite corners.
// Nodes run bottom-left, top-left, top-right, bottom-right.
func NewRectangle(a, b geom.Point) *Rectangle {
	r := geom.RectFromPoints([]geom.Point{a, b})
	return &Rectangle{newPath("Rectangle", true,
		geom.Pt(r.X, r.Y+r.Height),
		geom.Pt(r.X, r.Y),
		geom.Pt(r.X+r.Width, r.Y),
		geom.Pt(r.X+r.Width, r.Y+r.Height),
	)}
}

// NewCircle builds a circle from four nodes: left, top, right, bottom.
func NewCircle(center geom.Point, radius float64) *Circle {
	c := &Circle{newPath("Circle", true)}
	c.setRadius(center, radius)
	return c
}

func NewFreePath(points ...geom.Point) *FreePath {
	return &FreePath{newPath("Path", false, points...)}
}

func newPath(name string, closed bool, points ...geom.Point) Path {
	p := Path{
		ShapeID: typeid.NewShapeID(),
		Label:   name,
		Style:   DefaultStyle(),
		Closed:  closed,
	}
	for _, pt := range points {
		p.AddNode(pt)
	}
	return p
}

func (*Line) Kind() Kind      { return KindLine }
func (*Curve) Kind() Kind     { return KindCurve }
func (*Rectangle) Kind() Kind { return KindRectangle }
func (*Circle) Kind() Kind    { return KindCircle }
func (*FreePath) Kind() Kind  { return KindFreePath }

func (l *Line) Describe() string      { return describe(l) }
func (c *Curve) Describe() string     { return describe(c) }
func (r *Rectangle) Describe() string { return describe(r) }
func (c *Circle) Describe() string    { return describe(c) }
func (f *FreePath) Describe() string  { return describe(f) }

func describe(s Shape) string {
	return fmt.Sprintf("%s %q (%d nodes)", s.Kind(), s.Name(), len(s.ControlPoints()))
}

// Resizable is false for lines: their extent is the endpoints themselves.
func (*Line) Resizable() bool      { return false }
func (*Curve) Resizable() bool     { return true }
func (*Rectangle) Resizable() bool { return true }
func (*Circle) Resizable() bool    { return true }
func (*FreePath) Resizable() bool  { return true }

func (*Line) Resize(width, height float64) error {
	return ErrNotResizable
}

func (l *Line) Clone() Shape      { return &Line{l.clone()} }
func (c *Curve) Clone() Shape     { return &Curve{c.clone()} }
func (r *Rectangle) Clone() Shape { return &Rectangle{r.clone()} }
func (c *Circle) Clone() Shape    { return &Circle{c.clone()} }
func (f *FreePath) Clone() Shape  { return &FreePath{f.clone()} }

// SetEnd moves the last node, used while a line is being drawn.
func (l *Line) SetEnd(p geom.Point) {
	l.Segments[len(l.Segments)-1].Point = p
}

// SetEnd moves the last node and re-smooths.
func (c *Curve) SetEnd(p geom.Point) {
	c.Segments[len(c.Segments)-1].Point = p
	c.Smooth()
}

// Smooth recomputes tangents so the curve passes through every node with
// continuous direction. End nodes get a single tangent toward their
// neighbour.
func (c *Curve) Smooth() {
	segs := c.Segments
	n := len(segs)
	for _, s := range segs {
		s.HandleIn, s.HandleOut = nil, nil
	}
	if n < 2 {
		return
	}
	out := segs[1].Point.Sub(segs[0].Point).Mul(1.0 / 3)
	segs[0].HandleOut = &out
	in := segs[n-2].Point.Sub(segs[n-1].Point).Mul(1.0 / 3)
	segs[n-1].HandleIn = &in
	for i := 1; i < n-1; i++ {
		t := segs[i+1].Point.Sub(segs[i-1].Point).Mul(1.0 / 6)
		tin := t.Mul(-1)
		segs[i].HandleIn, segs[i].HandleOut = &tin, &t
	}
}

// Radius is half the bounds width.
func (c *Circle) Radius() float64 {
	return c.Bounds().Width / 2
}

// SetRadius rebuilds the nodes around the current centre.
func (c *Circle) SetRadius(radius float64) {
	c.setRadius(c.Position(), radius)
}

func (c *Circle) setRadius(center geom.Point, r float64) {
	k := r * kappa
	node := func(x, y, inX, inY float64) *Segment {
		in := geom.Pt(inX, inY)
		out := in.Mul(-1)
		return &Segment{Point: geom.Pt(center.X+x, center.Y+y), HandleIn: &in, HandleOut: &out}
	}
	c.Segments = []*Segment{
		node(-r, 0, 0, k),
		node(0, -r, -k, 0),
		node(r, 0, 0, -k),
		node(0, r, k, 0),
	}
	c.Angle = 0
}

// newShape wraps decoded geometry in its kind.
func newShape(kind Kind, p Path) (Shape, error) {
	switch kind {
	case KindLine:
		return &Line{p}, nil
	case KindCurve:
		return &Curve{p}, nil
	case KindRectangle:
		return &Rectangle{p}, nil
	case KindCircle:
		return &Circle{p}, nil
	case KindFreePath:
		return &FreePath{p}, nil
	default:
		return nil, fmt.Errorf("unknown shape kind %q", kind)
	}
}
