// Package properties reflects the selected shape's editable attributes as
// a panel view and writes committed field edits back into the shape.
package properties

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/inamate/vecdraw/internal/document"
)

var (
	ErrNoSelection  = errors.New("no shape selected")
	ErrInvalidValue = errors.New("invalid value")
	ErrInvalidColor = errors.New("invalid colour")
	ErrUnknownField = errors.New("unknown field")
)

// Field keys accepted by Commit.
const (
	FieldX           = "x"
	FieldY           = "y"
	FieldWidth       = "width"
	FieldHeight      = "height"
	FieldRotation    = "rotation"
	FieldStroke      = "stroke"
	FieldStrokeWidth = "strokeWidth"
	FieldFill        = "fill"
	FieldName        = "name"
)

// Panel actions.
const (
	ActionAddNode    = "node.add"
	ActionRemoveNode = "node.remove"
)

type FieldKind string

const (
	KindNumber FieldKind = "number"
	KindColor  FieldKind = "color"
	KindText   FieldKind = "text"
)

type Field struct {
	Key   string    `json:"key"`
	Kind  FieldKind `json:"kind"`
	Value string    `json:"value"`
}

type Group struct {
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
}

// View is what the panel displays. The zero View is an empty panel.
type View struct {
	ShapeID string   `json:"shapeId,omitempty"`
	Title   string   `json:"title,omitempty"`
	Groups  []Group  `json:"groups"`
	Actions []string `json:"actions"`
}

// Empty reports whether the view shows no shape.
func (v View) Empty() bool {
	return v.ShapeID == ""
}

// Has reports whether the view offers the given field.
func (v View) Has(key string) bool {
	for _, g := range v.Groups {
		for _, f := range g.Fields {
			if f.Key == key {
				return true
			}
		}
	}
	return false
}

// Committer completes an applied edit: it syncs handles, refreshes the
// panel and records history.
type Committer interface {
	Commit(action string, s document.Shape) error
}

// Binder keeps a View in step with one shape.
type Binder struct {
	shape     document.Shape
	view      View
	committer Committer
}

func New(c Committer) *Binder {
	return &Binder{committer: c, view: View{Groups: []Group{}, Actions: []string{}}}
}

// SelectionChanged lets the binder follow a selection.Synchronizer.
func (b *Binder) SelectionChanged(s document.Shape) {
	b.Show(s)
}

// Show displays s, or clears the panel when s is nil.
func (b *Binder) Show(s document.Shape) {
	b.shape = s
	b.view = build(s)
}

// Refresh rebuilds the view from the shape's current values.
func (b *Binder) Refresh() {
	b.view = build(b.shape)
}

func (b *Binder) View() View {
	return b.view
}

func (b *Binder) Shape() document.Shape {
	return b.shape
}

func build(s document.Shape) View {
	v := View{Groups: []Group{}, Actions: []string{}}
	if s == nil {
		return v
	}
	v.ShapeID = s.ID()
	v.Title = s.Describe()

	pos := s.Position()
	v.Groups = append(v.Groups, Group{Label: "Position (X, Y)", Fields: []Field{
		number(FieldX, pos.X), number(FieldY, pos.Y),
	}})
	if s.Resizable() {
		bounds := s.Bounds()
		v.Groups = append(v.Groups, Group{Label: "Size (Width, Height)", Fields: []Field{
			number(FieldWidth, bounds.Width), number(FieldHeight, bounds.Height),
		}})
	}
	v.Groups = append(v.Groups, Group{Label: "Rotation (Degrees)", Fields: []Field{
		number(FieldRotation, s.Rotation()),
	}})

	style := s.Base().Style
	v.Groups = append(v.Groups,
		Group{Label: "Stroke Color", Fields: []Field{{Key: FieldStroke, Kind: KindColor, Value: style.Stroke}}},
		Group{Label: "Stroke Width", Fields: []Field{number(FieldStrokeWidth, style.StrokeWidth)}},
	)
	if style.Fill != "" {
		v.Groups = append(v.Groups, Group{Label: "Fill Color", Fields: []Field{
			{Key: FieldFill, Kind: KindColor, Value: style.Fill},
		}})
	}
	v.Groups = append(v.Groups, Group{Label: "Name", Fields: []Field{
		{Key: FieldName, Kind: KindText, Value: s.Name()},
	}})
	v.Actions = append(v.Actions, ActionAddNode, ActionRemoveNode)
	return v
}

func number(key string, v float64) Field {
	return Field{Key: key, Kind: KindNumber, Value: strconv.FormatFloat(v, 'f', 2, 64)}
}

// Commit parses raw for the given field and applies it to the shown shape.
// Nothing is mutated when parsing or validation fails.
func (b *Binder) Commit(field, raw string) error {
	s := b.shape
	if s == nil {
		return ErrNoSelection
	}
	if field != FieldFill && !b.view.Has(field) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	switch field {
	case FieldX, FieldY, FieldRotation:
		v, err := parseNumber(raw)
		if err != nil {
			return err
		}
		pos := s.Position()
		switch field {
		case FieldX:
			pos.X = v
			s.SetPosition(pos)
		case FieldY:
			pos.Y = v
			s.SetPosition(pos)
		default:
			s.SetRotation(v)
		}
	case FieldWidth, FieldHeight:
		v, err := parseNumber(raw)
		if err != nil {
			return err
		}
		bounds := s.Bounds()
		w, h := bounds.Width, bounds.Height
		if field == FieldWidth {
			w = v
		} else {
			h = v
		}
		if err := s.Resize(w, h); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
	case FieldStrokeWidth:
		v, err := parseNumber(raw)
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("%w: stroke width %v is negative", ErrInvalidValue, v)
		}
		s.Base().Style.StrokeWidth = v
	case FieldStroke:
		c, err := ParseColor(raw)
		if err != nil {
			return err
		}
		if c == "" {
			return fmt.Errorf("%w: stroke cannot be empty", ErrInvalidColor)
		}
		s.Base().Style.Stroke = c
	case FieldFill:
		c, err := ParseColor(raw)
		if err != nil {
			return err
		}
		s.Base().Style.Fill = c
	case FieldName:
		name := strings.TrimSpace(raw)
		if name == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrInvalidValue)
		}
		s.Base().Label = name
	}
	return b.committer.Commit("Edit "+field, s)
}

// AddNode appends a node at the centre of the shape's bounds.
func (b *Binder) AddNode() error {
	if b.shape == nil {
		return ErrNoSelection
	}
	b.shape.AddNode(b.shape.Bounds().Center())
	return b.committer.Commit("Add Node", b.shape)
}

// RemoveNode drops the last node. A shape always keeps at least one node;
// the refusal leaves history untouched.
func (b *Binder) RemoveNode() error {
	if b.shape == nil {
		return ErrNoSelection
	}
	if err := b.shape.RemoveLastNode(); err != nil {
		return err
	}
	return b.committer.Commit("Remove Node", b.shape)
}

func parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrInvalidValue, raw)
	}
	return v, nil
}

var hexColor = regexp.MustCompile(`^#([0-9a-f]{3}|[0-9a-f]{6})$`)

// ParseColor normalises a colour to lower case. It accepts #rgb, #rrggbb
// and CSS colour names. An empty string or "none" means no colour and
// yields "".
func ParseColor(raw string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" || c == "none" {
		return "", nil
	}
	if hexColor.MatchString(c) {
		return c, nil
	}
	if _, ok := colornames.Map[c]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColor, raw)
}
