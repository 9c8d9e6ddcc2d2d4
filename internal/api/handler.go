// Package api is the HTTP surface of the editor server: sessions driven by
// pointer events and commands, stored designs, and the websocket feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/vecdraw/internal/auth"
	"github.com/inamate/vecdraw/internal/collab"
	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/editor"
	"github.com/inamate/vecdraw/internal/export"
	"github.com/inamate/vecdraw/internal/history"
	"github.com/inamate/vecdraw/internal/properties"
	"github.com/inamate/vecdraw/internal/selection"
	"github.com/inamate/vecdraw/internal/sessions"
	"github.com/inamate/vecdraw/internal/store"
)

const maxBodySize = 4 << 20

type Handler struct {
	sessions *sessions.Registry
	store    store.Store
	auth     *auth.Service
	hub      *collab.Hub
	export   *export.Handler
	origins  []string
}

type Deps struct {
	Sessions *sessions.Registry
	Store    store.Store
	Auth     *auth.Service
	Hub      *collab.Hub
	Export   *export.Handler
	// Origins are the browser origins allowed to open websockets.
	Origins []string
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		sessions: d.Sessions,
		store:    d.Store,
		auth:     d.Auth,
		hub:      d.Hub,
		export:   d.Export,
		origins:  d.Origins,
	}
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	r.HandleFunc("/sessions", h.CreateSession).Methods("POST")

	r.HandleFunc("/designs", h.ListDesigns).Methods("GET")
	r.HandleFunc("/designs/{designId}", h.DeleteDesign).Methods("DELETE")
	r.HandleFunc("/designs/{designId}/download", h.export.Download).Methods("GET")
	r.HandleFunc("/designs/{designId}/code", h.export.Code).Methods("GET")

	own := func(f http.HandlerFunc) http.Handler {
		return h.auth.AuthMiddleware(h.sessionMiddleware(f))
	}
	r.Handle("/sessions/{sessionId}", own(h.GetState)).Methods("GET")
	r.Handle("/sessions/{sessionId}", own(h.CloseSession)).Methods("DELETE")
	r.Handle("/ws/sessions/{sessionId}", own(h.WebSocket)).Methods("GET")

	s := r.PathPrefix("/sessions/{sessionId}").Subrouter()
	s.Use(h.auth.AuthMiddleware, h.sessionMiddleware)
	s.HandleFunc("/pointer", h.Pointer).Methods("POST")
	s.HandleFunc("/tool", h.SetTool).Methods("POST")
	s.HandleFunc("/undo", h.Undo).Methods("POST")
	s.HandleFunc("/redo", h.Redo).Methods("POST")
	s.HandleFunc("/select", h.Select).Methods("POST")
	s.HandleFunc("/selection", h.DeleteSelected).Methods("DELETE")
	s.HandleFunc("/properties", h.CommitField).Methods("POST")
	s.HandleFunc("/nodes", h.Nodes).Methods("POST")
	s.HandleFunc("/layers", h.AddLayer).Methods("POST")
	s.HandleFunc("/layers/{layerId}", h.UpdateLayer).Methods("PATCH")
	s.HandleFunc("/layers/{layerId}", h.RemoveLayer).Methods("DELETE")
	s.HandleFunc("/grid", h.ToggleGrid).Methods("POST")
	s.HandleFunc("/new", h.NewDocument).Methods("POST")
	s.HandleFunc("/open", h.Open).Methods("POST")
	s.HandleFunc("/save", h.Save).Methods("POST")
	s.HandleFunc("/render", h.Render).Methods("GET")
	s.HandleFunc("/code", h.Code).Methods("GET")
}

type entryKey struct{}

// sessionMiddleware checks that the token was issued for the session in
// the path and puts the session on the context.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["sessionId"]
		if auth.SessionIDFromContext(r.Context()) != id {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "token is for another session"})
			return
		}
		e, err := h.sessions.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), entryKey{}, e)))
	})
}

func entryFrom(r *http.Request) *sessions.Entry {
	e, _ := r.Context().Value(entryKey{}).(*sessions.Entry)
	return e
}

// watch broadcasts every recorded edit of e to its websocket viewers.
func (h *Handler) watch(e *sessions.Entry, s *editor.Session) {
	s.OnChange(func(action string) {
		h.broadcast(e.ID, action, s)
	})
}

func (h *Handler) broadcast(sessionID, action string, s *editor.Session) {
	data, err := json.Marshal(s.State())
	if err != nil {
		slog.Error("marshal session state", "session", sessionID, "error", err)
		return
	}
	h.hub.BroadcastState(sessionID, action, data)
}

// mutate runs fn on the request's session and answers with the new
// state. Viewers are told about changes that were not recorded too, such
// as a new selection or a preview shape.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(s *editor.Session) error) {
	e := entryFrom(r)
	var state editor.State
	err := e.Do(func(s *editor.Session) error {
		before := s.History()
		if err := fn(s); err != nil {
			return err
		}
		if s.History() == before {
			h.broadcast(e.ID, "", s)
		}
		state = s.State()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError answers with the status that fits err. Rejected edits are
// client errors; anything unrecognised is logged and hidden.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sessions.ErrNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, editor.ErrShapeNotFound),
		errors.Is(err, document.ErrLayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNoSelection),
		errors.Is(err, editor.ErrNotDrawing),
		errors.Is(err, properties.ErrNoSelection),
		errors.Is(err, selection.ErrNoSelection),
		errors.Is(err, document.ErrLastNode),
		errors.Is(err, history.ErrReentrant):
		return http.StatusConflict
	case errors.Is(err, document.ErrInvalidSnapshot),
		errors.Is(err, properties.ErrInvalidValue),
		errors.Is(err, properties.ErrInvalidColor),
		errors.Is(err, properties.ErrUnknownField),
		errors.Is(err, editor.ErrUnknownTool),
		errors.Is(err, store.ErrInvalidID),
		errors.Is(err, selection.ErrNoHandle),
		errors.Is(err, selection.ErrNotDragging),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

// originPatterns turns configured origins into the host patterns the
// websocket library matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		out = append(out, o)
	}
	return out
}
