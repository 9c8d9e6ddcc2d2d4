//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/editor"
	"github.com/inamate/vecdraw/internal/geom"
)

var sess *editor.Session

func main() {
	var err error
	sess, err = editor.NewWithDocument(document.NewSampleDocument(), editor.DefaultOptions())
	if err != nil {
		panic(err)
	}

	// Create the editor API object
	vecdrawEditor := js.Global().Get("Object").New()

	// --- Commands (frontend → editor) ---
	vecdrawEditor.Set("pointerDown", js.FuncOf(pointerDown))
	vecdrawEditor.Set("pointerMove", js.FuncOf(pointerMove))
	vecdrawEditor.Set("pointerUp", js.FuncOf(pointerUp))
	vecdrawEditor.Set("finishPath", js.FuncOf(finishPath))
	vecdrawEditor.Set("setTool", js.FuncOf(setTool))
	vecdrawEditor.Set("undo", js.FuncOf(undo))
	vecdrawEditor.Set("redo", js.FuncOf(redo))
	vecdrawEditor.Set("select", js.FuncOf(selectShape))
	vecdrawEditor.Set("commitField", js.FuncOf(commitField))
	vecdrawEditor.Set("addNode", js.FuncOf(addNode))
	vecdrawEditor.Set("removeNode", js.FuncOf(removeNode))
	vecdrawEditor.Set("addLayer", js.FuncOf(addLayer))
	vecdrawEditor.Set("removeLayer", js.FuncOf(removeLayer))
	vecdrawEditor.Set("activateLayer", js.FuncOf(activateLayer))
	vecdrawEditor.Set("setLayerVisible", js.FuncOf(setLayerVisible))
	vecdrawEditor.Set("renameLayer", js.FuncOf(renameLayer))
	vecdrawEditor.Set("newDocument", js.FuncOf(newDocument))
	vecdrawEditor.Set("openDocument", js.FuncOf(openDocument))
	vecdrawEditor.Set("deleteSelected", js.FuncOf(deleteSelected))
	vecdrawEditor.Set("toggleGrid", js.FuncOf(toggleGrid))

	// --- Queries (frontend ← editor) ---
	vecdrawEditor.Set("render", js.FuncOf(render))
	vecdrawEditor.Set("saveDocument", js.FuncOf(saveDocument))
	vecdrawEditor.Set("generateCode", js.FuncOf(generateCode))
	vecdrawEditor.Set("getSelection", js.FuncOf(getSelection))
	vecdrawEditor.Set("getHandles", js.FuncOf(getHandles))
	vecdrawEditor.Set("getProperties", js.FuncOf(getProperties))
	vecdrawEditor.Set("getHistory", js.FuncOf(getHistory))
	vecdrawEditor.Set("getLayers", js.FuncOf(getLayers))
	vecdrawEditor.Set("getState", js.FuncOf(getState))

	// Register on global scope
	js.Global().Set("vecdrawEditor", vecdrawEditor)

	// Signal that WASM is ready
	js.Global().Set("vecdrawWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

func toJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

func point(args []js.Value) (geom.Point, bool) {
	if len(args) < 2 {
		return geom.Point{}, false
	}
	return geom.Pt(args[0].Float(), args[1].Float()), true
}

// --- Command Handlers ---

func pointerDown(this js.Value, args []js.Value) interface{} {
	p, ok := point(args)
	if !ok {
		return missing("x, y")
	}
	return result(sess.PointerDown(p))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	p, ok := point(args)
	if !ok {
		return missing("x, y")
	}
	return result(sess.PointerMove(p))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	p, ok := point(args)
	if !ok {
		return missing("x, y")
	}
	return result(sess.PointerUp(p))
}

func finishPath(this js.Value, args []js.Value) interface{} {
	return result(sess.FinishPath())
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("tool")
	}
	t, err := editor.ParseTool(args[0].String())
	if err != nil {
		return result(err)
	}
	return result(sess.SetTool(t))
}

func undo(this js.Value, args []js.Value) interface{} {
	ok, err := sess.Undo()
	if err != nil {
		return result(err)
	}
	return js.ValueOf(ok)
}

func redo(this js.Value, args []js.Value) interface{} {
	ok, err := sess.Redo()
	if err != nil {
		return result(err)
	}
	return js.ValueOf(ok)
}

func selectShape(this js.Value, args []js.Value) interface{} {
	id := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		id = args[0].String()
	}
	return result(sess.Select(id))
}

func commitField(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("field and value")
	}
	return result(sess.CommitField(args[0].String(), args[1].String()))
}

func addNode(this js.Value, args []js.Value) interface{} {
	return result(sess.AddNode())
}

func removeNode(this js.Value, args []js.Value) interface{} {
	return result(sess.RemoveNode())
}

func addLayer(this js.Value, args []js.Value) interface{} {
	name := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		name = args[0].String()
	}
	l, err := sess.AddLayer(name)
	if err != nil {
		return result(err)
	}
	return js.ValueOf(l.ID)
}

func removeLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("layer id")
	}
	return result(sess.RemoveLayer(args[0].String()))
}

func activateLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("layer id")
	}
	return result(sess.ActivateLayer(args[0].String()))
}

func setLayerVisible(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("layer id and visibility")
	}
	return result(sess.SetLayerVisible(args[0].String(), args[1].Bool()))
}

func renameLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("layer id and name")
	}
	return result(sess.RenameLayer(args[0].String(), args[1].String()))
}

func newDocument(this js.Value, args []js.Value) interface{} {
	return result(sess.New())
}

func openDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document JSON")
	}
	return result(sess.Open(args[0].String()))
}

func deleteSelected(this js.Value, args []js.Value) interface{} {
	return result(sess.DeleteSelected())
}

func toggleGrid(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.ToggleGrid())
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.Render())
}

func saveDocument(this js.Value, args []js.Value) interface{} {
	snap, err := sess.Save()
	if err != nil {
		return result(err)
	}
	return js.ValueOf(string(snap))
}

func generateCode(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.GenerateCode())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	if s := sess.Selected(); s != nil {
		return js.ValueOf(s.ID())
	}
	return js.ValueOf("")
}

func getHandles(this js.Value, args []js.Value) interface{} {
	return toJSON(sess.Handles())
}

func getProperties(this js.Value, args []js.Value) interface{} {
	return toJSON(sess.Properties())
}

func getHistory(this js.Value, args []js.Value) interface{} {
	return toJSON(sess.History())
}

func getLayers(this js.Value, args []js.Value) interface{} {
	return toJSON(sess.Layers())
}

func getState(this js.Value, args []js.Value) interface{} {
	return toJSON(sess.State())
}
