// Package history keeps an undo/redo list of whole-document snapshots.
//
// The list always holds at least one entry once created: the state the
// session started from. Undo and redo move a cursor over the list and
// restore the snapshot under it; recording after an undo discards every
// entry beyond the cursor.
package history

import (
	"errors"
	"fmt"

	"github.com/inamate/vecdraw/internal/document"
)

// ErrReentrant is returned when the history is touched while a restore is
// still running.
var ErrReentrant = errors.New("history: restore in progress")

// Source captures and restores the document the history tracks.
type Source interface {
	Snapshot() (document.Snapshot, error)
	Restore(document.Snapshot) error
}

// Entry is one recorded state with the action that produced it.
type Entry struct {
	Action   string
	Snapshot document.Snapshot
}

// Engine is the history list plus its cursor.
type Engine struct {
	src       Source
	entries   []Entry
	cursor    int
	limit     int
	restoring bool
	onRestore []func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimit caps the number of entries kept; the oldest entries are dropped
// first. Zero means unlimited.
func WithLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// New creates an engine and records the current state of src as the
// initial entry.
func New(src Source, opts ...Option) (*Engine, error) {
	e := &Engine{src: src}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// OnRestore registers fn to run after every undo or redo restore. Hooks
// run in registration order.
func (e *Engine) OnRestore(fn func()) {
	e.onRestore = append(e.onRestore, fn)
}

// Record captures the current state as a new entry after the cursor,
// dropping any redo entries.
func (e *Engine) Record(action string) error {
	if e.restoring {
		return ErrReentrant
	}
	snap, err := e.src.Snapshot()
	if err != nil {
		return fmt.Errorf("record %q: %w", action, err)
	}

	e.entries = append(e.entries[:e.cursor+1], Entry{Action: action, Snapshot: snap})
	e.cursor = len(e.entries) - 1

	if e.limit > 0 && len(e.entries) > e.limit {
		drop := len(e.entries) - e.limit
		e.entries = append([]Entry(nil), e.entries[drop:]...)
		e.cursor -= drop
	}
	return nil
}

// Reset forgets every entry and records the current state as the new
// starting point.
func (e *Engine) Reset() error {
	if e.restoring {
		return ErrReentrant
	}
	snap, err := e.src.Snapshot()
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	e.entries = []Entry{{Snapshot: snap}}
	e.cursor = 0
	return nil
}

// Undo steps back one entry. It reports false without doing anything when
// already at the first entry.
func (e *Engine) Undo() (bool, error) {
	if e.restoring {
		return false, ErrReentrant
	}
	if e.cursor == 0 {
		return false, nil
	}
	if err := e.restore(e.cursor - 1); err != nil {
		return false, fmt.Errorf("undo: %w", err)
	}
	return true, nil
}

// Redo steps forward one entry. It reports false without doing anything
// when already at the last entry.
func (e *Engine) Redo() (bool, error) {
	if e.restoring {
		return false, ErrReentrant
	}
	if e.cursor >= len(e.entries)-1 {
		return false, nil
	}
	if err := e.restore(e.cursor + 1); err != nil {
		return false, fmt.Errorf("redo: %w", err)
	}
	return true, nil
}

// restore moves the cursor only once the source accepted the snapshot, so
// a failed restore leaves the history where it was.
func (e *Engine) restore(idx int) error {
	e.restoring = true
	defer func() { e.restoring = false }()

	if err := e.src.Restore(e.entries[idx].Snapshot); err != nil {
		return err
	}
	e.cursor = idx
	for _, fn := range e.onRestore {
		fn()
	}
	return nil
}

func (e *Engine) Cursor() int     { return e.cursor }
func (e *Engine) Len() int        { return len(e.entries) }
func (e *Engine) CanUndo() bool   { return e.cursor > 0 }
func (e *Engine) CanRedo() bool   { return e.cursor < len(e.entries)-1 }
func (e *Engine) Restoring() bool { return e.restoring }

// Current returns the snapshot under the cursor.
func (e *Engine) Current() document.Snapshot {
	return e.entries[e.cursor].Snapshot
}

// UndoLabel names the action an Undo would revert, or "".
func (e *Engine) UndoLabel() string {
	if !e.CanUndo() {
		return ""
	}
	return e.entries[e.cursor].Action
}

// RedoLabel names the action a Redo would reapply, or "".
func (e *Engine) RedoLabel() string {
	if !e.CanRedo() {
		return ""
	}
	return e.entries[e.cursor+1].Action
}

// Entries returns a copy of the list for display.
func (e *Engine) Entries() []Entry {
	return append([]Entry(nil), e.entries...)
}
