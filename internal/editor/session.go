// Package editor ties the document, history, selection and properties
// panel into one editing session driven by pointer events and commands.
//
// Every completed edit runs through a single pipeline in a fixed order:
// the scene graph is mutated, the selection's handles are resynced, the
// properties panel is refreshed, one history entry is recorded, and change
// listeners are told. In-progress work (a shape being drawn, a drag) is
// never recorded until it completes.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/vecdraw/internal/codegen"
	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/engine"
	"github.com/inamate/vecdraw/internal/history"
	"github.com/inamate/vecdraw/internal/properties"
	"github.com/inamate/vecdraw/internal/selection"
)

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrShapeNotFound = errors.New("shape not found")
	ErrNoSelection   = errors.New("nothing is selected")
	ErrNotDrawing    = errors.New("no path in progress")
)

// Options configures a Session.
type Options struct {
	Width        float64
	Height       float64
	GridSize     float64
	HistoryLimit int
	// HitTolerance is how far from a shape a click still selects it.
	HitTolerance float64
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Width:        1280,
		Height:       720,
		GridSize:     50,
		HitTolerance: 5,
	}
}

// Session is one editor: a document plus everything that edits it. It is
// not safe for concurrent use.
type Session struct {
	opts Options
	log  *slog.Logger

	doc     *document.Document
	history *history.Engine
	sel     *selection.Synchronizer
	panel   *properties.Binder
	render  *engine.Engine

	tool        Tool
	gridVisible bool
	gesture     gesture

	listeners []func(action string)
}

// New starts a session on an empty document.
func New(opts Options) (*Session, error) {
	return NewWithDocument(document.New(), opts)
}

// NewWithDocument starts a session on doc. The document's current state is
// the first history entry.
func NewWithDocument(doc *document.Document, opts Options) (*Session, error) {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.GridSize <= 0 {
		opts.GridSize = def.GridSize
	}
	if opts.HitTolerance <= 0 {
		opts.HitTolerance = def.HitTolerance
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		opts:   opts,
		log:    logger,
		doc:    doc,
		render: engine.NewEngine(),
		tool:   ToolSelect,
	}
	s.panel = properties.New(committer{s})
	// The panel hears about a new selection after its handles are built.
	s.sel = selection.New(s.panel, invalidator{s.render})

	h, err := history.New(source{s}, history.WithLimit(opts.HistoryLimit))
	if err != nil {
		return nil, fmt.Errorf("start history: %w", err)
	}
	h.OnRestore(s.sel.Deselect)
	s.history = h
	return s, nil
}

// OnChange registers fn to run after every recorded edit, undo and redo.
func (s *Session) OnChange(fn func(action string)) {
	s.listeners = append(s.listeners, fn)
}

// commit is the edit pipeline. shape, when non-nil, is the shape the edit
// touched. A drag in progress ends here so that abandoning it later cannot
// roll back past the recorded entry.
func (s *Session) commit(action string, shape document.Shape) error {
	s.sel.EndDrag()
	g := &s.gesture
	g.moving, g.moved, g.origin = false, false, nil
	if shape != nil {
		s.sel.RefreshHandles(shape)
	}
	s.panel.Refresh()
	if err := s.history.Record(action); err != nil {
		return err
	}
	s.changed(action)
	return nil
}

func (s *Session) changed(action string) {
	s.render.Invalidate()
	for _, fn := range s.listeners {
		fn(action)
	}
}

// committer lets the properties panel finish its edits through the
// session pipeline.
type committer struct{ s *Session }

func (c committer) Commit(action string, shape document.Shape) error {
	return c.s.commit(action, shape)
}

// invalidator redraws when the selection changes.
type invalidator struct{ e *engine.Engine }

func (i invalidator) SelectionChanged(document.Shape) {
	i.e.Invalidate()
}

// source exposes the session's document to the history engine.
type source struct{ s *Session }

func (src source) Snapshot() (document.Snapshot, error) {
	return document.Export(src.s.doc)
}

func (src source) Restore(snap document.Snapshot) error {
	d, err := document.Import(snap)
	if err != nil {
		return err
	}
	src.s.doc = d
	src.s.render.Invalidate()
	return nil
}

// --- Commands ---

// Undo reverts the last recorded edit, discarding any unfinished gesture.
func (s *Session) Undo() (bool, error) {
	s.abandon()
	label := s.history.UndoLabel()
	ok, err := s.history.Undo()
	if err != nil || !ok {
		return ok, err
	}
	s.changed("Undo " + label)
	return true, nil
}

// Redo reapplies the next edit.
func (s *Session) Redo() (bool, error) {
	s.abandon()
	label := s.history.RedoLabel()
	ok, err := s.history.Redo()
	if err != nil || !ok {
		return ok, err
	}
	s.changed("Redo " + label)
	return true, nil
}

// Select selects the shape with id. An empty id deselects.
func (s *Session) Select(id string) error {
	s.abandon()
	if id == "" {
		s.sel.Deselect()
		return nil
	}
	shape := s.doc.FindShape(id)
	if shape == nil {
		return fmt.Errorf("%w: %s", ErrShapeNotFound, id)
	}
	s.sel.Select(shape)
	return nil
}

// CommitField writes a properties panel field into the selected shape.
func (s *Session) CommitField(field, raw string) error {
	if err := s.panel.Commit(field, raw); err != nil {
		s.log.Debug("field edit rejected", "field", field, "value", raw, "error", err)
		return err
	}
	return nil
}

// AddNode appends a node to the selected shape.
func (s *Session) AddNode() error {
	return s.panel.AddNode()
}

// RemoveNode drops the selected shape's last node. ErrLastNode is
// returned, and nothing recorded, when only one node is left.
func (s *Session) RemoveNode() error {
	if err := s.panel.RemoveNode(); err != nil {
		s.log.Debug("node removal rejected", "error", err)
		return err
	}
	return nil
}

// DeleteSelected removes the selected shape from the document.
func (s *Session) DeleteSelected() error {
	s.abandon()
	shape := s.sel.Selected()
	if shape == nil {
		return ErrNoSelection
	}
	s.doc.RemoveShape(shape.ID())
	s.sel.Forget(shape.ID())
	return s.commit(fmt.Sprintf("Delete %s", shape.Kind()), nil)
}

// AddLayer appends a layer and makes it active.
func (s *Session) AddLayer(name string) (*document.Layer, error) {
	s.abandon()
	l := s.doc.AddLayer(name)
	if err := s.commit("Add Layer", nil); err != nil {
		return nil, err
	}
	return l, nil
}

// RemoveLayer deletes a layer with its shapes, deselecting if the
// selection was on it.
func (s *Session) RemoveLayer(id string) error {
	s.abandon()
	if sel := s.sel.Selected(); sel != nil {
		if l := s.doc.LayerOf(sel.ID()); l != nil && l.ID == id {
			s.sel.Deselect()
		}
	}
	if _, err := s.doc.RemoveLayer(id); err != nil {
		return err
	}
	return s.commit("Delete Layer", nil)
}

// ActivateLayer chooses where new shapes go. It is not an edit and is not
// recorded.
func (s *Session) ActivateLayer(id string) error {
	return s.doc.ActivateLayer(id)
}

// SetLayerVisible shows or hides a layer.
func (s *Session) SetLayerVisible(id string, visible bool) error {
	return s.UpdateLayer(id, LayerChange{Visible: &visible})
}

// RenameLayer changes a layer's display name.
func (s *Session) RenameLayer(id, name string) error {
	return s.UpdateLayer(id, LayerChange{Name: &name})
}

// LayerChange lists the layer attributes to change. Nil fields are left
// alone.
type LayerChange struct {
	Name    *string
	Visible *bool
}

// UpdateLayer applies every change in c to a layer as a single edit.
// Nothing is recorded when c changes nothing.
func (s *Session) UpdateLayer(id string, c LayerChange) error {
	l := s.layer(id)
	if l == nil {
		return fmt.Errorf("%w: %s", document.ErrLayerNotFound, id)
	}
	if c.Name != nil && *c.Name == "" {
		return fmt.Errorf("%w: layer name cannot be empty", properties.ErrInvalidValue)
	}
	var action string
	if c.Visible != nil && l.Visible != *c.Visible {
		if sel := s.sel.Selected(); !*c.Visible && sel != nil && s.doc.LayerOf(sel.ID()) == l {
			s.sel.Deselect()
		}
		l.Visible = *c.Visible
		action = "Hide Layer"
		if l.Visible {
			action = "Show Layer"
		}
	}
	if c.Name != nil && l.Name != *c.Name {
		l.Name = *c.Name
		if action == "" {
			action = "Rename Layer"
		} else {
			action = "Edit Layer"
		}
	}
	if action == "" {
		return nil
	}
	return s.commit(action, nil)
}

func (s *Session) layer(id string) *document.Layer {
	for _, l := range s.doc.Layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// New replaces the document with an empty one holding a single layer. It
// is recorded like any other edit, so it can be undone.
func (s *Session) New() error {
	s.abandon()
	s.sel.Deselect()
	s.doc = document.New()
	return s.commit("New Document", nil)
}

// Open replaces the document with the one in text. Malformed text is
// rejected and the current document is left as it was.
func (s *Session) Open(text string) error {
	d, err := document.Import(document.Snapshot(text))
	if err != nil {
		s.log.Debug("open rejected", "error", err)
		return fmt.Errorf("open: %w", err)
	}
	s.abandon()
	s.sel.Deselect()
	s.doc = d
	return s.commit("Open Document", nil)
}

// Save returns the current document as a snapshot.
func (s *Session) Save() (document.Snapshot, error) {
	return document.Export(s.doc)
}

// ToggleGrid shows or hides the grid and reports the new state. Releases
// snap to the grid while it is visible.
func (s *Session) ToggleGrid() bool {
	s.gridVisible = !s.gridVisible
	s.render.Invalidate()
	return s.gridVisible
}

// --- Queries ---

func (s *Session) Document() *document.Document { return s.doc }
func (s *Session) Tool() Tool                   { return s.tool }
func (s *Session) GridVisible() bool            { return s.gridVisible }
func (s *Session) Options() Options             { return s.opts }

func (s *Session) Selected() document.Shape {
	return s.sel.Selected()
}

func (s *Session) Handles() []selection.Handle {
	return s.sel.Handles()
}

func (s *Session) Properties() properties.View {
	return s.panel.View()
}

// Preview returns the shape being drawn, or nil.
func (s *Session) Preview() document.Shape {
	return s.gesture.preview
}

// Render returns the draw commands for the current state as JSON.
func (s *Session) Render() string {
	return s.render.Render(s.doc, s.overlay())
}

// DrawCommands returns the draw commands for the current state.
func (s *Session) DrawCommands() []engine.DrawCommand {
	return s.render.Commands(s.doc, s.overlay())
}

func (s *Session) overlay() engine.Overlay {
	ov := engine.Overlay{
		Preview:  s.gesture.preview,
		Selected: s.sel.Selected(),
		Handles:  s.sel.Handles(),
	}
	if s.gridVisible {
		ov.Grid = engine.Grid{Size: s.opts.GridSize, Width: s.opts.Width, Height: s.opts.Height}
	}
	return ov
}

// GenerateCode returns Phaser drawing code for the document.
func (s *Session) GenerateCode() string {
	return codegen.Phaser(s.doc, int(s.opts.Width), int(s.opts.Height))
}

// HistoryState summarises the undo list for display.
type HistoryState struct {
	Cursor    int    `json:"cursor"`
	Length    int    `json:"length"`
	CanUndo   bool   `json:"canUndo"`
	CanRedo   bool   `json:"canRedo"`
	UndoLabel string `json:"undoLabel,omitempty"`
	RedoLabel string `json:"redoLabel,omitempty"`
}

func (s *Session) History() HistoryState {
	h := s.history
	return HistoryState{
		Cursor:    h.Cursor(),
		Length:    h.Len(),
		CanUndo:   h.CanUndo(),
		CanRedo:   h.CanRedo(),
		UndoLabel: h.UndoLabel(),
		RedoLabel: h.RedoLabel(),
	}
}

// LayerInfo describes one layer for the layers list.
type LayerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Active  bool   `json:"active"`
	Shapes  int    `json:"shapes"`
}

func (s *Session) Layers() []LayerInfo {
	out := make([]LayerInfo, len(s.doc.Layers))
	for i, l := range s.doc.Layers {
		out[i] = LayerInfo{
			ID:      l.ID,
			Name:    l.Name,
			Visible: l.Visible,
			Active:  i == s.doc.Active,
			Shapes:  len(l.Shapes),
		}
	}
	return out
}

// State is everything a client needs to redraw its panels.
type State struct {
	Tool        Tool               `json:"tool"`
	GridVisible bool               `json:"gridVisible"`
	Selected    string             `json:"selected,omitempty"`
	Handles     []selection.Handle `json:"handles"`
	Properties  properties.View    `json:"properties"`
	History     HistoryState       `json:"history"`
	Layers      []LayerInfo        `json:"layers"`
}

func (s *Session) State() State {
	st := State{
		Tool:        s.tool,
		GridVisible: s.gridVisible,
		Handles:     s.sel.Handles(),
		Properties:  s.panel.View(),
		History:     s.History(),
		Layers:      s.Layers(),
	}
	if sel := s.sel.Selected(); sel != nil {
		st.Selected = sel.ID()
	}
	return st
}
