// Package selection tracks the one selected shape and the draggable handles
// drawn over its nodes and tangents.
package selection

import (
	"errors"

	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/geom"
)

var (
	ErrNoSelection = errors.New("nothing is selected")
	ErrNoHandle    = errors.New("no such handle")
	ErrNotDragging = errors.New("no handle drag in progress")
)

type HandleKind string

const (
	Node       HandleKind = "node"
	TangentIn  HandleKind = "in"
	TangentOut HandleKind = "out"
)

const (
	NodeRadius    = 6.0
	TangentRadius = 4.0
)

// Handle is a draggable overlay for one node or tangent of the selected
// shape. Handles are not part of the document.
type Handle struct {
	Kind     HandleKind `json:"kind"`
	Segment  int        `json:"segment"`
	Position geom.Point `json:"position"`
	Radius   float64    `json:"radius"`
}

// Listener hears about selection changes. Deselection passes nil.
type Listener interface {
	SelectionChanged(s document.Shape)
}

// Synchronizer owns the single selection and its handle overlays.
type Synchronizer struct {
	selected  document.Shape
	handles   []*Handle
	listeners []Listener
	drag      *Handle
	moved     bool
}

// New returns an empty selection that tells listeners about every change.
func New(listeners ...Listener) *Synchronizer {
	return &Synchronizer{listeners: listeners}
}

// Select replaces the current selection with s. A nil s deselects.
func (sy *Synchronizer) Select(s document.Shape) {
	if s == nil {
		sy.Deselect()
		return
	}
	sy.teardown()
	sy.selected = s
	sy.build()
	sy.notify()
}

// Deselect clears the selection and its handles.
func (sy *Synchronizer) Deselect() {
	sy.teardown()
	sy.selected = nil
	sy.notify()
}

// Forget deselects if id is the selected shape, for when it was deleted.
func (sy *Synchronizer) Forget(id string) {
	if sy.selected != nil && sy.selected.ID() == id {
		sy.Deselect()
	}
}

// RefreshHandles rebuilds the overlays from the current geometry when s is
// the selection, and reports whether it did.
func (sy *Synchronizer) RefreshHandles(s document.Shape) bool {
	if !sy.IsSelected(s) {
		return false
	}
	sy.teardown()
	sy.build()
	return true
}

// Selected returns the selected shape, or nil.
func (sy *Synchronizer) Selected() document.Shape {
	return sy.selected
}

// IsSelected reports whether s is the selected shape.
func (sy *Synchronizer) IsSelected(s document.Shape) bool {
	return s != nil && sy.selected != nil && sy.selected.ID() == s.ID()
}

// Handles returns a copy of the overlays in draw order.
func (sy *Synchronizer) Handles() []Handle {
	out := make([]Handle, len(sy.handles))
	for i, h := range sy.handles {
		out[i] = *h
	}
	return out
}

// HandleAt returns the index of the topmost handle covering p, or -1.
func (sy *Synchronizer) HandleAt(p geom.Point) int {
	for i := len(sy.handles) - 1; i >= 0; i-- {
		h := sy.handles[i]
		if h.Position.Dist(p) <= h.Radius {
			return i
		}
	}
	return -1
}

// BeginDrag starts dragging handle i.
func (sy *Synchronizer) BeginDrag(i int) error {
	if sy.selected == nil {
		return ErrNoSelection
	}
	if i < 0 || i >= len(sy.handles) {
		return ErrNoHandle
	}
	sy.drag = sy.handles[i]
	sy.moved = false
	return nil
}

// Dragging reports whether a handle drag is in progress.
func (sy *Synchronizer) Dragging() bool {
	return sy.drag != nil
}

// DragBy moves the dragged handle and the geometry under it by delta. A
// node carries its own tangent handles along; a tangent moves alone.
func (sy *Synchronizer) DragBy(delta geom.Point) error {
	h := sy.drag
	if h == nil {
		return ErrNotDragging
	}
	seg := sy.selected.ControlPoints()[h.Segment]
	switch h.Kind {
	case Node:
		seg.Point = seg.Point.Add(delta)
	case TangentIn:
		moved := seg.HandleIn.Add(delta)
		seg.HandleIn = &moved
	case TangentOut:
		moved := seg.HandleOut.Add(delta)
		seg.HandleOut = &moved
	}
	sy.sync(h.Segment)
	if delta != (geom.Point{}) {
		sy.moved = true
	}
	return nil
}

// sync copies the geometry of segment i into its handles.
func (sy *Synchronizer) sync(i int) {
	seg := sy.selected.ControlPoints()[i]
	for _, h := range sy.handles {
		if h.Segment != i {
			continue
		}
		switch h.Kind {
		case Node:
			h.Position = seg.Point
		case TangentIn:
			h.Position = seg.In()
		case TangentOut:
			h.Position = seg.Out()
		}
	}
}

// EndDrag finishes the drag and reports whether anything moved.
func (sy *Synchronizer) EndDrag() bool {
	moved := sy.drag != nil && sy.moved
	sy.drag = nil
	sy.moved = false
	return moved
}

// build adds one node handle per control point, followed by its tangents.
// Shapes without control points get no handles.
func (sy *Synchronizer) build() {
	for i, seg := range sy.selected.ControlPoints() {
		sy.handles = append(sy.handles, &Handle{Kind: Node, Segment: i, Position: seg.Point, Radius: NodeRadius})
		if seg.HandleIn != nil {
			sy.handles = append(sy.handles, &Handle{Kind: TangentIn, Segment: i, Position: seg.In(), Radius: TangentRadius})
		}
		if seg.HandleOut != nil {
			sy.handles = append(sy.handles, &Handle{Kind: TangentOut, Segment: i, Position: seg.Out(), Radius: TangentRadius})
		}
	}
}

func (sy *Synchronizer) teardown() {
	sy.handles = nil
	sy.drag = nil
	sy.moved = false
}

func (sy *Synchronizer) notify() {
	for _, l := range sy.listeners {
		l.SelectionChanged(sy.selected)
	}
}
