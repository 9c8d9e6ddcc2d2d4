package engine

import (
	"github.com/inamate/vecdraw/internal/document"
)

// Engine turns a document plus its overlays into draw commands. It keeps
// the last scene graph and only rebuilds it after Invalidate.
type Engine struct {
	sceneGraph *SceneGraph
	commands   []DrawCommand

	// Dirty flag - scene graph needs rebuild
	dirty bool
}

// NewEngine creates a new engine instance.
func NewEngine() *Engine {
	return &Engine{dirty: true}
}

// Invalidate marks the scene graph stale. Call it after any change to the
// document or the overlay.
func (e *Engine) Invalidate() {
	e.dirty = true
}

// Dirty reports whether the next render will rebuild.
func (e *Engine) Dirty() bool {
	return e.dirty
}

// Commands returns the draw commands for doc and ov, rebuilding the scene
// graph if it is stale.
func (e *Engine) Commands(doc *document.Document, ov Overlay) []DrawCommand {
	if e.dirty || e.sceneGraph == nil {
		e.sceneGraph = BuildSceneGraph(doc, ov)
		e.commands = CompileDrawCommands(e.sceneGraph)
		e.dirty = false
	}
	return e.commands
}

// Render returns the draw commands as JSON.
func (e *Engine) Render(doc *document.Document, ov Overlay) string {
	result, _ := DrawCommandsToJSON(e.Commands(doc, ov))
	return result
}

// SceneGraph returns the last built scene graph, or nil before the first
// render.
func (e *Engine) SceneGraph() *SceneGraph {
	return e.sceneGraph
}
