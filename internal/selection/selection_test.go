package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/geom"
)

type recorder struct {
	seen []document.Shape
}

func (r *recorder) SelectionChanged(s document.Shape) {
	r.seen = append(r.seen, s)
}

func TestSelectIsExclusive(t *testing.T) {
	rec := &recorder{}
	sy := New(rec)
	a := document.NewRectangle(geom.Pt(0, 0), geom.Pt(100, 50))
	b := document.NewLine(geom.Pt(500, 500), geom.Pt(600, 500))

	sy.Select(a)
	require.Len(t, sy.Handles(), 4)

	sy.Select(b)
	assert.True(t, sy.IsSelected(b))
	assert.False(t, sy.IsSelected(a))
	handles := sy.Handles()
	require.Len(t, handles, 2)
	for _, h := range handles {
		assert.Equal(t, Node, h.Kind)
		assert.GreaterOrEqual(t, h.Position.X, 500.0)
	}
	require.Len(t, rec.seen, 2)
	assert.Equal(t, b.ID(), rec.seen[1].ID())
}

func TestDeselectAlwaysNotifies(t *testing.T) {
	rec := &recorder{}
	sy := New(rec)
	sy.Deselect()
	sy.Select(nil)
	require.Len(t, rec.seen, 2)
	assert.Nil(t, rec.seen[0])
	assert.Nil(t, sy.Selected())
	assert.Empty(t, sy.Handles())
}

func TestHandleOrderFollowsSegments(t *testing.T) {
	sy := New()
	sy.Select(document.NewCurve(geom.Pt(0, 0), geom.Pt(30, 30), geom.Pt(60, 0)))

	var kinds []HandleKind
	var segs []int
	for _, h := range sy.Handles() {
		kinds = append(kinds, h.Kind)
		segs = append(segs, h.Segment)
	}
	assert.Equal(t, []HandleKind{Node, TangentOut, Node, TangentIn, TangentOut, Node, TangentIn}, kinds)
	assert.Equal(t, []int{0, 0, 1, 1, 1, 2, 2}, segs)
	assert.Equal(t, NodeRadius, sy.Handles()[0].Radius)
	assert.Equal(t, TangentRadius, sy.Handles()[1].Radius)
}

func TestRectangleCornerDrag(t *testing.T) {
	r := document.NewRectangle(geom.Pt(0, 0), geom.Pt(100, 50))
	sy := New()
	sy.Select(r)

	idx := sy.HandleAt(geom.Pt(101, 49))
	require.Equal(t, 3, idx)
	require.NoError(t, sy.BeginDrag(idx))
	require.NoError(t, sy.DragBy(geom.Pt(20, 20)))
	assert.True(t, sy.EndDrag())

	pt := r.ControlPoints()[3].Point
	assert.Equal(t, geom.Pt(120, 70), pt)
	assert.Equal(t, pt, sy.Handles()[3].Position)
	// the other corners stay put
	assert.Equal(t, geom.Pt(0, 50), r.ControlPoints()[0].Point)
}

func TestNodeDragCarriesTangents(t *testing.T) {
	c := document.NewCurve(geom.Pt(0, 0), geom.Pt(30, 30), geom.Pt(60, 0))
	sy := New()
	sy.Select(c)
	inBefore := *c.ControlPoints()[1].HandleIn

	require.NoError(t, sy.BeginDrag(2))
	require.NoError(t, sy.DragBy(geom.Pt(5, -5)))

	seg := c.ControlPoints()[1]
	assert.Equal(t, geom.Pt(35, 25), seg.Point)
	assert.Equal(t, inBefore, *seg.HandleIn)

	handles := sy.Handles()
	assert.Equal(t, seg.Point, handles[2].Position)
	assert.Equal(t, seg.In(), handles[3].Position)
	assert.Equal(t, seg.Out(), handles[4].Position)
}

func TestTangentDragMovesOnlyItsOffset(t *testing.T) {
	c := document.NewCurve(geom.Pt(0, 0), geom.Pt(30, 30), geom.Pt(60, 0))
	sy := New()
	sy.Select(c)
	seg := c.ControlPoints()[1]
	point := seg.Point
	out := *seg.HandleOut

	require.NoError(t, sy.BeginDrag(3))
	require.NoError(t, sy.DragBy(geom.Pt(0, 10)))
	require.True(t, sy.EndDrag())

	assert.Equal(t, point, seg.Point)
	assert.Equal(t, out, *seg.HandleOut)
	assert.Equal(t, seg.In(), sy.Handles()[3].Position)
	assert.Equal(t, point, sy.Handles()[2].Position)
}

func TestDragErrors(t *testing.T) {
	sy := New()
	assert.ErrorIs(t, sy.BeginDrag(0), ErrNoSelection)
	assert.ErrorIs(t, sy.DragBy(geom.Pt(1, 1)), ErrNotDragging)
	assert.False(t, sy.EndDrag())

	sy.Select(document.NewLine(geom.Pt(0, 0), geom.Pt(10, 0)))
	assert.ErrorIs(t, sy.BeginDrag(2), ErrNoHandle)
	assert.ErrorIs(t, sy.BeginDrag(-1), ErrNoHandle)
}

func TestZeroDragIsNotAMove(t *testing.T) {
	sy := New()
	sy.Select(document.NewLine(geom.Pt(0, 0), geom.Pt(10, 0)))
	require.NoError(t, sy.BeginDrag(0))
	require.NoError(t, sy.DragBy(geom.Point{}))
	assert.True(t, sy.Dragging())
	assert.False(t, sy.EndDrag())
	assert.False(t, sy.Dragging())
}

func TestHandleAtMisses(t *testing.T) {
	sy := New()
	assert.Equal(t, -1, sy.HandleAt(geom.Pt(0, 0)))
	sy.Select(document.NewLine(geom.Pt(0, 0), geom.Pt(100, 0)))
	assert.Equal(t, -1, sy.HandleAt(geom.Pt(50, 0)))
	assert.Equal(t, 1, sy.HandleAt(geom.Pt(104, 0)))
}

func TestForgetAndRefresh(t *testing.T) {
	rec := &recorder{}
	sy := New(rec)
	l := document.NewLine(geom.Pt(0, 0), geom.Pt(100, 0))
	other := document.NewLine(geom.Pt(0, 10), geom.Pt(100, 10))
	sy.Select(l)

	l.Translate(geom.Pt(0, 40))
	assert.False(t, sy.RefreshHandles(other))
	assert.True(t, sy.RefreshHandles(l))
	assert.Equal(t, geom.Pt(0, 40), sy.Handles()[0].Position)

	sy.Forget(other.ID())
	assert.True(t, sy.IsSelected(l))
	sy.Forget(l.ID())
	assert.Nil(t, sy.Selected())
	require.Len(t, rec.seen, 2)
	assert.Nil(t, rec.seen[1])
}
