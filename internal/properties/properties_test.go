package properties

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/geom"
)

type commitLog struct {
	actions []string
	binder  *Binder
}

func (c *commitLog) Commit(action string, s document.Shape) error {
	c.actions = append(c.actions, action)
	c.binder.Refresh()
	return nil
}

func newBinder() (*Binder, *commitLog) {
	log := &commitLog{}
	b := New(log)
	log.binder = b
	return b, log
}

func field(t *testing.T, v View, key string) string {
	t.Helper()
	for _, g := range v.Groups {
		for _, f := range g.Fields {
			if f.Key == key {
				return f.Value
			}
		}
	}
	t.Fatalf("field %q not in view", key)
	return ""
}

func TestShowNilClearsPanel(t *testing.T) {
	b, _ := newBinder()
	b.Show(document.NewRectangle(geom.Pt(0, 0), geom.Pt(10, 10)))
	require.False(t, b.View().Empty())

	b.Show(nil)
	assert.True(t, b.View().Empty())
	assert.Empty(t, b.View().Groups)
	assert.ErrorIs(t, b.Commit(FieldX, "1"), ErrNoSelection)
	assert.ErrorIs(t, b.AddNode(), ErrNoSelection)
	assert.ErrorIs(t, b.RemoveNode(), ErrNoSelection)
}

func TestViewFields(t *testing.T) {
	b, _ := newBinder()
	r := document.NewRectangle(geom.Pt(0, 0), geom.Pt(100, 50))
	b.Show(r)
	v := b.View()

	assert.Equal(t, r.ID(), v.ShapeID)
	assert.Equal(t, "50.00", field(t, v, FieldX))
	assert.Equal(t, "25.00", field(t, v, FieldY))
	assert.Equal(t, "100.00", field(t, v, FieldWidth))
	assert.Equal(t, "50.00", field(t, v, FieldHeight))
	assert.Equal(t, "0.00", field(t, v, FieldRotation))
	assert.Equal(t, "black", field(t, v, FieldStroke))
	assert.False(t, v.Has(FieldFill))
	assert.Equal(t, []string{ActionAddNode, ActionRemoveNode}, v.Actions)

	b.Show(document.NewLine(geom.Pt(0, 0), geom.Pt(10, 0)))
	assert.False(t, b.View().Has(FieldWidth))
	assert.False(t, b.View().Has(FieldHeight))
}

func TestCommitPosition(t *testing.T) {
	b, log := newBinder()
	r := document.NewRectangle(geom.Pt(0, 0), geom.Pt(100, 50))
	b.Show(r)

	require.NoError(t, b.Commit(FieldX, "70"))
	assert.Equal(t, geom.Pt(20, 50), r.ControlPoints()[0].Point)
	assert.Equal(t, "70.00", field(t, b.View(), FieldX))
	assert.Equal(t, []string{"Edit x"}, log.actions)
}

func TestCommitSizeKeepsTopLeft(t *testing.T) {
	b, _ := newBinder()
	r := document.NewRectangle(geom.Pt(10, 10), geom.Pt(110, 60))
	b.Show(r)

	require.NoError(t, b.Commit(FieldWidth, "200"))
	bounds := r.Bounds()
	assert.InDelta(t, 10, bounds.X, 1e-9)
	assert.InDelta(t, 200, bounds.Width, 1e-9)
	assert.InDelta(t, 50, bounds.Height, 1e-9)
}

func TestInvalidNumbersDoNotMutate(t *testing.T) {
	b, log := newBinder()
	r := document.NewRectangle(geom.Pt(0, 0), geom.Pt(100, 50))
	b.Show(r)
	before := r.Clone()

	for _, raw := range []string{"", "abc", "NaN", "Inf", "-Inf", "1e400"} {
		assert.ErrorIs(t, b.Commit(FieldWidth, raw), ErrInvalidValue, raw)
		assert.ErrorIs(t, b.Commit(FieldX, raw), ErrInvalidValue, raw)
	}
	assert.ErrorIs(t, b.Commit(FieldWidth, "0"), ErrInvalidValue)
	assert.ErrorIs(t, b.Commit(FieldWidth, "0"), document.ErrInvalidSize)
	assert.ErrorIs(t, b.Commit(FieldStrokeWidth, "-1"), ErrInvalidValue)
	assert.ErrorIs(t, b.Commit(FieldName, "   "), ErrInvalidValue)

	assert.Empty(t, log.actions)
	assert.Equal(t, before.ControlPoints(), r.ControlPoints())
}

func TestUnknownField(t *testing.T) {
	b, log := newBinder()
	b.Show(document.NewLine(geom.Pt(0, 0), geom.Pt(10, 0)))
	assert.ErrorIs(t, b.Commit(FieldWidth, "5"), ErrUnknownField)
	assert.ErrorIs(t, b.Commit("opacity", "1"), ErrUnknownField)
	assert.Empty(t, log.actions)
}

func TestCommitColors(t *testing.T) {
	b, log := newBinder()
	c := document.NewCircle(geom.Pt(0, 0), 10)
	b.Show(c)

	require.NoError(t, b.Commit(FieldStroke, "#FF0000"))
	assert.Equal(t, "#ff0000", c.Style.Stroke)

	require.NoError(t, b.Commit(FieldFill, "Tomato"))
	assert.Equal(t, "tomato", c.Style.Fill)
	assert.True(t, b.View().Has(FieldFill))

	require.NoError(t, b.Commit(FieldFill, "none"))
	assert.Empty(t, c.Style.Fill)

	assert.ErrorIs(t, b.Commit(FieldStroke, "notacolor"), ErrInvalidColor)
	assert.ErrorIs(t, b.Commit(FieldStroke, "#12345"), ErrInvalidColor)
	assert.ErrorIs(t, b.Commit(FieldStroke, ""), ErrInvalidColor)
	assert.Len(t, log.actions, 3)
}

func TestCommitNameAndRotation(t *testing.T) {
	b, _ := newBinder()
	l := document.NewLine(geom.Pt(0, 0), geom.Pt(100, 0))
	b.Show(l)

	require.NoError(t, b.Commit(FieldName, "  Post "))
	assert.Equal(t, "Post", l.Name())

	require.NoError(t, b.Commit(FieldRotation, "90"))
	assert.Equal(t, 90.0, l.Rotation())
	pts := l.ControlPoints()
	assert.InDelta(t, 50, pts[0].Point.X, 1e-9)
	assert.InDelta(t, 50, pts[1].Point.X, 1e-9)
}

func TestNodeActions(t *testing.T) {
	b, log := newBinder()
	p := document.NewFreePath(geom.Pt(0, 0), geom.Pt(100, 100))
	b.Show(p)

	require.NoError(t, b.AddNode())
	require.Len(t, p.ControlPoints(), 3)
	assert.Equal(t, geom.Pt(50, 50), p.ControlPoints()[2].Point)

	require.NoError(t, b.RemoveNode())
	require.NoError(t, b.RemoveNode())
	assert.Len(t, p.ControlPoints(), 1)
	assert.Equal(t, []string{"Add Node", "Remove Node", "Remove Node"}, log.actions)

	assert.ErrorIs(t, b.RemoveNode(), document.ErrLastNode)
	assert.Len(t, p.ControlPoints(), 1)
	assert.Len(t, log.actions, 3)
}

func TestParseColor(t *testing.T) {
	for raw, want := range map[string]string{
		"#abc":     "#abc",
		"#AABBCC":  "#aabbcc",
		" white ":  "white",
		"NONE":     "",
		"":         "",
		"darkblue": "darkblue",
	} {
		got, err := ParseColor(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseColor("#ggg")
	assert.ErrorIs(t, err, ErrInvalidColor)
}
