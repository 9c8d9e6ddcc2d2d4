package engine

import "github.com/inamate/vecdraw/internal/geom"

// SceneGraph is the render-ready state of a session: the document's
// visible layers plus the transient overlays drawn above them.
type SceneGraph struct {
	Root      *SceneNode
	NodesById map[string]*SceneNode
}

// Scene node types.
const (
	NodeRoot      = "root"
	NodeGrid      = "grid"
	NodeLayer     = "layer"
	NodeShape     = "shape"
	NodePreview   = "preview"
	NodeSelection = "selection"
	NodeHandle    = "handle"
	NodeTangent   = "tangent"
)

// SceneNode is a resolved node ready for rendering. Geometry is already in
// canvas coordinates.
type SceneNode struct {
	ID      string
	Type    string
	Visible bool

	Parent   *SceneNode
	Children []*SceneNode

	Path        []PathCommand
	Fill        string
	Stroke      string
	StrokeWidth float64

	Bounds geom.Rect
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// NewSceneGraph creates a scene graph with an empty root.
func NewSceneGraph() *SceneGraph {
	root := &SceneNode{ID: NodeRoot, Type: NodeRoot, Visible: true}
	return &SceneGraph{
		Root:      root,
		NodesById: map[string]*SceneNode{root.ID: root},
	}
}

// add attaches node under parent and indexes it when it has an id.
func (sg *SceneGraph) add(parent, node *SceneNode) {
	node.Parent = parent
	parent.Children = append(parent.Children, node)
	if node.ID != "" {
		sg.NodesById[node.ID] = node
	}
}
