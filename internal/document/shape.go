package document

import (
	"errors"
	"fmt"
	"math"

	"github.com/jinzhu/copier"

	"github.com/inamate/vecdraw/internal/geom"
)

var (
	ErrLastNode     = errors.New("cannot remove the last node")
	ErrDegenerate   = errors.New("cannot resize a zero-extent axis")
	ErrInvalidSize  = errors.New("size must be a positive finite number")
	ErrNotResizable = errors.New("shape does not support resizing")
)

type Kind string

const (
	KindLine      Kind = "Line"
	KindCurve     Kind = "Curve"
	KindRectangle Kind = "Rectangle"
	KindCircle    Kind = "Circle"
	KindFreePath  Kind = "FreePath"
)

// Segment is one control point of a path. Tangent offsets are relative to
// Point and exist only when non-nil.
type Segment struct {
	Point     geom.Point  `json:"point"`
	HandleIn  *geom.Point `json:"handleIn,omitempty"`
	HandleOut *geom.Point `json:"handleOut,omitempty"`
}

// In returns the absolute position of the incoming tangent.
func (s *Segment) In() geom.Point {
	if s.HandleIn == nil {
		return s.Point
	}
	return s.Point.Add(*s.HandleIn)
}

// Out returns the absolute position of the outgoing tangent.
func (s *Segment) Out() geom.Point {
	if s.HandleOut == nil {
		return s.Point
	}
	return s.Point.Add(*s.HandleOut)
}

type Style struct {
	Stroke      string  `json:"stroke"`
	Fill        string  `json:"fill,omitempty"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// DefaultStyle matches what the drawing tools produce.
func DefaultStyle() Style {
	return Style{Stroke: "black", StrokeWidth: 2}
}

// Shape is the closed set of drawable kinds. Every implementation embeds a
// Path, which carries the geometry and the shared behaviour.
type Shape interface {
	Kind() Kind
	// Describe returns a short human label, e.g. `Rectangle "Door"`.
	Describe() string
	Resizable() bool
	Base() *Path
	ID() string
	Name() string
	ControlPoints() []*Segment
	Bounds() geom.Rect
	Position() geom.Point
	SetPosition(p geom.Point)
	Translate(delta geom.Point)
	Rotation() float64
	SetRotation(degrees float64)
	Resize(width, height float64) error
	AddNode(p geom.Point)
	RemoveLastNode() error
	Clone() Shape
}

// Path is the geometry shared by all shape kinds.
type Path struct {
	ShapeID  string     `json:"id"`
	Label    string     `json:"name"`
	Style    Style      `json:"style"`
	Angle    float64    `json:"rotation"`
	Closed   bool       `json:"closed"`
	Segments []*Segment `json:"segments"`
}

func (p *Path) Base() *Path       { return p }
func (p *Path) ID() string        { return p.ShapeID }
func (p *Path) Name() string      { return p.Label }
func (p *Path) Rotation() float64 { return p.Angle }

// ControlPoints returns the live segments; mutating them edits the shape.
func (p *Path) ControlPoints() []*Segment {
	return p.Segments
}

// Bounds is the box around every point and tangent end.
func (p *Path) Bounds() geom.Rect {
	pts := make([]geom.Point, 0, len(p.Segments)*3)
	for _, s := range p.Segments {
		pts = append(pts, s.Point)
		if s.HandleIn != nil {
			pts = append(pts, s.In())
		}
		if s.HandleOut != nil {
			pts = append(pts, s.Out())
		}
	}
	return geom.RectFromPoints(pts)
}

// Position is the bounds centre.
func (p *Path) Position() geom.Point {
	return p.Bounds().Center()
}

func (p *Path) SetPosition(pos geom.Point) {
	p.Translate(pos.Sub(p.Position()))
}

func (p *Path) Translate(delta geom.Point) {
	for _, s := range p.Segments {
		s.Point = s.Point.Add(delta)
	}
}

// SetRotation rotates the geometry about its centre so that the
// accumulated rotation becomes degrees.
func (p *Path) SetRotation(degrees float64) {
	delta := degrees - p.Angle
	if delta != 0 {
		p.transform(geom.RotateDegrees(delta).About(p.Position()))
	}
	p.Angle = degrees
}

// Resize scales the geometry about the bounds' top-left corner. An axis
// whose size is unchanged is left alone, even when it is zero.
func (p *Path) Resize(width, height float64) error {
	b := p.Bounds()
	sx, err := scaleFactor(b.Width, width)
	if err != nil {
		return fmt.Errorf("width: %w", err)
	}
	sy, err := scaleFactor(b.Height, height)
	if err != nil {
		return fmt.Errorf("height: %w", err)
	}
	p.transform(geom.Scale(sx, sy).About(b.TopLeft()))
	return nil
}

func (p *Path) AddNode(pt geom.Point) {
	p.Segments = append(p.Segments, &Segment{Point: pt})
}

func (p *Path) RemoveLastNode() error {
	if len(p.Segments) <= 1 {
		return ErrLastNode
	}
	p.Segments = p.Segments[:len(p.Segments)-1]
	return nil
}

func (p *Path) transform(m geom.Affine) {
	for _, s := range p.Segments {
		s.Point = m.Apply(s.Point)
		if s.HandleIn != nil {
			v := m.ApplyVector(*s.HandleIn)
			s.HandleIn = &v
		}
		if s.HandleOut != nil {
			v := m.ApplyVector(*s.HandleOut)
			s.HandleOut = &v
		}
	}
}

// CurveSeg is one drawable piece of a path between two segments.
type CurveSeg struct {
	From, C1, C2, To geom.Point
	Straight         bool
}

// Curves returns the drawable pieces in order, including the closing piece.
func (p *Path) Curves() []CurveSeg {
	n := len(p.Segments)
	if n < 2 {
		return nil
	}
	count := n - 1
	if p.Closed {
		count = n
	}
	out := make([]CurveSeg, 0, count)
	for i := 0; i < count; i++ {
		a, b := p.Segments[i], p.Segments[(i+1)%n]
		out = append(out, CurveSeg{
			From:     a.Point,
			C1:       a.Out(),
			C2:       b.In(),
			To:       b.Point,
			Straight: a.HandleOut == nil && b.HandleIn == nil,
		})
	}
	return out
}

const flattenSteps = 16

// Flatten approximates the outline as a polyline.
func (p *Path) Flatten() []geom.Point {
	if len(p.Segments) == 0 {
		return nil
	}
	pts := []geom.Point{p.Segments[0].Point}
	for _, c := range p.Curves() {
		if c.Straight {
			pts = append(pts, c.To)
			continue
		}
		for i := 1; i <= flattenSteps; i++ {
			pts = append(pts, geom.CubicAt(c.From, c.C1, c.C2, c.To, float64(i)/flattenSteps))
		}
	}
	return pts
}

func (p *Path) clone() Path {
	var out Path
	// copier only fails on mismatched types
	if err := copier.CopyWithOption(&out, p, copier.Option{DeepCopy: true}); err != nil {
		panic(fmt.Sprintf("clone path %s: %v", p.ShapeID, err))
	}
	return out
}

func scaleFactor(from, to float64) (float64, error) {
	if from == to {
		return 1, nil
	}
	if !positiveFinite(to) {
		return 0, ErrInvalidSize
	}
	if from == 0 {
		return 0, ErrDegenerate
	}
	return to / from, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
