package editor

import (
	"fmt"

	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/geom"
)

type Tool string

const (
	ToolSelect    Tool = "select"
	ToolLine      Tool = "line"
	ToolCurve     Tool = "curve"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolPath      Tool = "path"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolSelect, ToolLine, ToolCurve, ToolRectangle, ToolCircle, ToolPath}

// ParseTool validates a tool name.
func ParseTool(name string) (Tool, error) {
	for _, t := range Tools {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// gesture is the state of the pointer interaction in progress.
type gesture struct {
	pressed bool
	last    geom.Point
	anchor  geom.Point

	// preview is the shape being drawn. It is not in the document.
	preview document.Shape

	// moving is set while the select tool drags a whole shape.
	moving bool
	moved  bool
	// origin is a copy of the dragged shape taken when the drag began, so
	// an abandoned drag can be put back.
	origin document.Shape
}

// SetTool switches tools. Whatever was being drawn or dragged is
// discarded and the selection is cleared.
func (s *Session) SetTool(t Tool) error {
	if _, err := ParseTool(string(t)); err != nil {
		return err
	}
	s.abandon()
	s.sel.Deselect()
	s.tool = t
	return nil
}

// abandon drops any unfinished gesture without recording it. A drag in
// progress is rolled back.
func (s *Session) abandon() {
	g := &s.gesture
	if g.preview != nil {
		s.log.Debug("discarding unfinished shape", "kind", g.preview.Kind())
	}
	nodeMoved := s.sel.EndDrag()
	if sel := s.sel.Selected(); g.origin != nil && sel != nil && sel.ID() == g.origin.ID() && (g.moved || nodeMoved) {
		*sel.Base() = *g.origin.Base()
		s.sel.RefreshHandles(sel)
		s.panel.Refresh()
	}
	s.gesture = gesture{}
	s.render.Invalidate()
}

// PointerDown handles a press at p with the current tool.
func (s *Session) PointerDown(p geom.Point) error {
	g := &s.gesture
	g.pressed = true
	g.last = p

	switch s.tool {
	case ToolSelect:
		return s.selectDown(p)
	case ToolLine:
		if g.preview == nil {
			g.anchor = p
			g.preview = document.NewLine(p, p)
			break
		}
		g.preview.(*document.Line).SetEnd(p)
		if p == g.anchor {
			// zero length; keep the preview open
			break
		}
		return s.finish("Add Line")
	case ToolCurve:
		if g.preview == nil {
			g.anchor = p
			g.preview = document.NewCurve(p, p)
			break
		}
		g.preview.(*document.Curve).SetEnd(p)
		if p == g.anchor {
			break
		}
		return s.finish("Add Curve")
	case ToolRectangle:
		g.anchor = p
		g.preview = document.NewRectangle(p, p)
	case ToolCircle:
		g.anchor = p
		g.preview = document.NewCircle(p, 0)
	case ToolPath:
		if g.preview == nil {
			g.preview = document.NewFreePath(p)
			break
		}
		g.preview.AddNode(p)
	}
	s.render.Invalidate()
	return nil
}

// PointerMove handles pointer motion, pressed or not.
func (s *Session) PointerMove(p geom.Point) error {
	g := &s.gesture
	delta := p.Sub(g.last)
	g.last = p

	switch s.tool {
	case ToolSelect:
		if !g.pressed {
			return nil
		}
		if s.sel.Dragging() {
			if err := s.sel.DragBy(delta); err != nil {
				return err
			}
			s.panel.Refresh()
		} else if g.moving {
			sel := s.sel.Selected()
			sel.Translate(delta)
			if delta != (geom.Point{}) {
				g.moved = true
			}
			s.sel.RefreshHandles(sel)
			s.panel.Refresh()
		}
	case ToolLine:
		if l, ok := g.preview.(*document.Line); ok {
			l.SetEnd(p)
		}
	case ToolCurve:
		if c, ok := g.preview.(*document.Curve); ok {
			c.SetEnd(p)
		}
	case ToolRectangle:
		if r, ok := g.preview.(*document.Rectangle); ok && g.pressed {
			r.Segments = document.NewRectangle(g.anchor, p).Segments
		}
	case ToolCircle:
		if c, ok := g.preview.(*document.Circle); ok && g.pressed {
			c.Segments = document.NewCircle(g.anchor, p.Dist(g.anchor)).Segments
		}
	}
	s.render.Invalidate()
	return nil
}

// PointerUp handles a release at p.
func (s *Session) PointerUp(p geom.Point) error {
	if err := s.PointerMove(p); err != nil {
		return err
	}
	g := &s.gesture
	g.pressed = false

	switch s.tool {
	case ToolSelect:
		return s.selectUp()
	case ToolRectangle, ToolCircle:
		if g.preview == nil {
			return nil
		}
		if p == g.anchor {
			// a click without a drag draws nothing
			s.abandon()
			return nil
		}
		return s.finish("Add " + string(g.preview.Kind()))
	}
	return nil
}

// FinishPath completes the free path being drawn.
func (s *Session) FinishPath() error {
	if s.tool != ToolPath || s.gesture.preview == nil {
		return ErrNotDrawing
	}
	return s.finish("Add Path")
}

func (s *Session) selectDown(p geom.Point) error {
	g := &s.gesture
	if sel := s.sel.Selected(); sel != nil {
		if i := s.sel.HandleAt(p); i >= 0 {
			g.origin = sel.Clone()
			return s.sel.BeginDrag(i)
		}
	}
	hit := s.doc.HitTest(p, s.opts.HitTolerance)
	if hit == nil {
		s.sel.Deselect()
		return nil
	}
	if !s.sel.IsSelected(hit) {
		s.sel.Select(hit)
	}
	g.moving = true
	g.moved = false
	g.origin = hit.Clone()
	return nil
}

func (s *Session) selectUp() error {
	g := &s.gesture
	sel := s.sel.Selected()
	var action string
	switch {
	case s.sel.Dragging():
		if s.sel.EndDrag() {
			action = "Move Node"
		}
	case g.moving:
		if g.moved {
			action = "Move " + string(sel.Kind())
		}
	}
	g.moving, g.moved, g.origin = false, false, nil
	if action == "" || sel == nil {
		return nil
	}
	s.snap(sel)
	return s.commit(action, sel)
}

// finish moves the preview into the document, selects it and records.
func (s *Session) finish(action string) error {
	shape := s.gesture.preview
	s.gesture = gesture{}
	s.snap(shape)
	s.doc.AddShape(shape)
	s.sel.Select(shape)
	return s.commit(action, shape)
}

// snap moves shape so its centre lies on the grid, when the grid is shown.
func (s *Session) snap(shape document.Shape) {
	if !s.gridVisible {
		return
	}
	shape.SetPosition(shape.Position().Snap(s.opts.GridSize))
}
