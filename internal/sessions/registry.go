// Package sessions keeps the live editor sessions of a server.
//
// An editor.Session is single-threaded, so every access goes through
// Entry.Do, which holds that session's own lock. Different sessions never
// contend.
package sessions

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/editor"
	"github.com/inamate/vecdraw/internal/typeid"
)

var ErrNotFound = errors.New("session not found")

// Entry is one live session.
type Entry struct {
	ID      string
	Created time.Time

	mu       sync.Mutex
	session  *editor.Session
	lastUsed time.Time

	metaMu   sync.Mutex
	designID string
}

// Do runs fn with exclusive access to the session.
func (e *Entry) Do(fn func(s *editor.Session) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = time.Now()
	return fn(e.session)
}

// DesignID is the stored design this session was opened from or last
// saved to, if any.
func (e *Entry) DesignID() string {
	e.metaMu.Lock()
	defer e.metaMu.Unlock()
	return e.designID
}

func (e *Entry) SetDesignID(id string) {
	e.metaMu.Lock()
	defer e.metaMu.Unlock()
	e.designID = id
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Entry
	opts     editor.Options
}

func NewRegistry(opts editor.Options) *Registry {
	return &Registry{
		sessions: make(map[string]*Entry),
		opts:     opts,
	}
}

// Create starts a session on doc, or on an empty document when doc is nil.
// designID records where doc came from.
func (r *Registry) Create(doc *document.Document, designID string) (*Entry, error) {
	if doc == nil {
		doc = document.New()
	}
	id := typeid.NewSessionID()
	opts := r.opts
	opts.Logger = slog.Default().With("session", id)

	s, err := editor.NewWithDocument(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	now := time.Now()
	e := &Entry{ID: id, Created: now, session: s, designID: designID, lastUsed: now}

	r.mu.Lock()
	r.sessions[id] = e
	r.mu.Unlock()

	slog.Info("session created", "session", id, "design", designID)
	return e, nil
}

func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	slog.Info("session closed", "session", id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire removes sessions idle for longer than maxIdle and returns their
// ids.
func (r *Registry) Expire(maxIdle time.Duration) []string {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []string
	for id, e := range r.sessions {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			expired = append(expired, id)
		}
	}
	if len(expired) > 0 {
		slog.Info("expired idle sessions", "count", len(expired))
	}
	return expired
}
