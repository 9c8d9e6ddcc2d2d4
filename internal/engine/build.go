package engine

import (
	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/geom"
	"github.com/inamate/vecdraw/internal/selection"
)

// Overlay colours.
const (
	NodeHandleFill   = "#ff0000"
	OutHandleFill    = "#00ff00"
	InHandleFill     = "#0000ff"
	HandleOutline    = "#000000"
	TangentLineColor = "#888888"
	SelectionColor   = "#009dff"
	GridColor        = "#e0e0e0"
)

// kappa places cubic control points so four curves approximate a circle.
const kappa = 0.5522847498

// Grid describes the background grid. A zero Size hides it.
type Grid struct {
	Size          float64
	Width, Height float64
}

// Overlay is everything drawn on top of the document that is not part of
// it: the shape being drawn, the selection and its handles, the grid.
type Overlay struct {
	Preview  document.Shape
	Selected document.Shape
	Handles  []selection.Handle
	Grid     Grid
}

// BuildSceneGraph builds a render-ready scene graph in painter's order:
// grid, visible layers, preview, selection outline, handles.
func BuildSceneGraph(doc *document.Document, ov Overlay) *SceneGraph {
	sg := NewSceneGraph()

	if grid := buildGrid(ov.Grid); grid != nil {
		sg.add(sg.Root, grid)
	}

	if doc != nil {
		for _, l := range doc.Layers {
			if !l.Visible {
				continue
			}
			layer := &SceneNode{ID: l.ID, Type: NodeLayer, Visible: true}
			sg.add(sg.Root, layer)
			for _, s := range l.Shapes {
				node := shapeNode(s, NodeShape)
				sg.add(layer, node)
				layer.Bounds = layer.Bounds.Union(node.Bounds)
			}
		}
	}

	if ov.Preview != nil {
		preview := shapeNode(ov.Preview, NodePreview)
		preview.ID = ""
		sg.add(sg.Root, preview)
	}

	if ov.Selected != nil {
		b := ov.Selected.Bounds()
		sg.add(sg.Root, &SceneNode{
			Type:        NodeSelection,
			Visible:     true,
			Path:        rectPath(b),
			Stroke:      SelectionColor,
			StrokeWidth: 1,
			Bounds:      b,
		})
		buildHandles(sg, ov.Selected, ov.Handles)
	}

	return sg
}

func shapeNode(s document.Shape, typ string) *SceneNode {
	p := s.Base()
	return &SceneNode{
		ID:          s.ID(),
		Type:        typ,
		Visible:     true,
		Path:        pathCommands(p),
		Fill:        p.Style.Fill,
		Stroke:      p.Style.Stroke,
		StrokeWidth: p.Style.StrokeWidth,
		Bounds:      s.Bounds(),
	}
}

// buildHandles draws a line from each node to its tangent ends, then the
// handle discs in overlay order so later handles paint on top.
func buildHandles(sg *SceneGraph, s document.Shape, handles []selection.Handle) {
	segs := s.ControlPoints()
	for _, h := range handles {
		if h.Kind == selection.Node || h.Segment >= len(segs) {
			continue
		}
		from := segs[h.Segment].Point
		sg.add(sg.Root, &SceneNode{
			Type:        NodeTangent,
			Visible:     true,
			Path:        []PathCommand{{"M", from.X, from.Y}, {"L", h.Position.X, h.Position.Y}},
			Stroke:      TangentLineColor,
			StrokeWidth: 1,
			Bounds:      geom.RectFromPoints([]geom.Point{from, h.Position}),
		})
	}
	for _, h := range handles {
		fill := NodeHandleFill
		switch h.Kind {
		case selection.TangentIn:
			fill = InHandleFill
		case selection.TangentOut:
			fill = OutHandleFill
		}
		sg.add(sg.Root, &SceneNode{
			Type:        NodeHandle,
			Visible:     true,
			Path:        circlePath(h.Position, h.Radius),
			Fill:        fill,
			Stroke:      HandleOutline,
			StrokeWidth: 1,
			Bounds:      geom.Rect{X: h.Position.X - h.Radius, Y: h.Position.Y - h.Radius, Width: 2 * h.Radius, Height: 2 * h.Radius},
		})
	}
}

func buildGrid(g Grid) *SceneNode {
	if g.Size <= 0 || g.Width <= 0 || g.Height <= 0 {
		return nil
	}
	var path []PathCommand
	for x := g.Size; x < g.Width; x += g.Size {
		path = append(path, PathCommand{"M", x, 0.0}, PathCommand{"L", x, g.Height})
	}
	for y := g.Size; y < g.Height; y += g.Size {
		path = append(path, PathCommand{"M", 0.0, y}, PathCommand{"L", g.Width, y})
	}
	return &SceneNode{
		ID:          NodeGrid,
		Type:        NodeGrid,
		Visible:     true,
		Path:        path,
		Stroke:      GridColor,
		StrokeWidth: 1,
		Bounds:      geom.Rect{Width: g.Width, Height: g.Height},
	}
}

// pathCommands converts shape geometry to canvas path commands. Pieces
// without tangents become straight lines.
func pathCommands(p *document.Path) []PathCommand {
	if len(p.Segments) == 0 {
		return nil
	}
	start := p.Segments[0].Point
	cmds := []PathCommand{{"M", start.X, start.Y}}
	for _, c := range p.Curves() {
		if c.Straight {
			cmds = append(cmds, PathCommand{"L", c.To.X, c.To.Y})
			continue
		}
		cmds = append(cmds, PathCommand{"C", c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.To.X, c.To.Y})
	}
	if p.Closed {
		cmds = append(cmds, PathCommand{"Z"})
	}
	return cmds
}

func rectPath(r geom.Rect) []PathCommand {
	return []PathCommand{
		{"M", r.X, r.Y},
		{"L", r.X + r.Width, r.Y},
		{"L", r.X + r.Width, r.Y + r.Height},
		{"L", r.X, r.Y + r.Height},
		{"Z"},
	}
}

// circlePath approximates a circle with four bezier curves.
func circlePath(c geom.Point, r float64) []PathCommand {
	k := r * kappa
	return []PathCommand{
		{"M", c.X + r, c.Y},
		{"C", c.X + r, c.Y + k, c.X + k, c.Y + r, c.X, c.Y + r},
		{"C", c.X - k, c.Y + r, c.X - r, c.Y + k, c.X - r, c.Y},
		{"C", c.X - r, c.Y - k, c.X - k, c.Y - r, c.X, c.Y - r},
		{"C", c.X + k, c.Y - r, c.X + r, c.Y - k, c.X + r, c.Y},
		{"Z"},
	}
}
