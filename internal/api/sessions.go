package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/inamate/vecdraw/internal/collab"
	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/editor"
	"github.com/inamate/vecdraw/internal/engine"
	"github.com/inamate/vecdraw/internal/geom"
	"github.com/inamate/vecdraw/internal/store"
	"github.com/inamate/vecdraw/internal/typeid"
)

type createSessionRequest struct {
	DesignID string `json:"designId"`
}

type createSessionResponse struct {
	ID    string       `json:"id"`
	Token string       `json:"token"`
	State editor.State `json:"state"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decode(w, r, &req) {
		return
	}

	var doc *document.Document
	if req.DesignID != "" {
		d, err := h.store.Load(r.Context(), req.DesignID)
		if err != nil {
			writeError(w, err)
			return
		}
		if doc, err = document.Import(d.Snapshot); err != nil {
			writeError(w, err)
			return
		}
	}

	e, err := h.sessions.Create(doc, req.DesignID)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := h.auth.IssueToken(e.ID)
	if err != nil {
		h.sessions.Remove(e.ID)
		writeError(w, err)
		return
	}

	resp := createSessionResponse{ID: e.ID, Token: token}
	e.Do(func(s *editor.Session) error {
		h.watch(e, s)
		resp.State = s.State()
		return nil
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	var state editor.State
	entryFrom(r).Do(func(s *editor.Session) error {
		state = s.State()
		return nil
	})
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	e := entryFrom(r)
	h.sessions.Remove(e.ID)
	h.hub.CloseSession(e.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ExpireSessions drops sessions idle for longer than maxIdle and
// disconnects their viewers.
func (h *Handler) ExpireSessions(maxIdle time.Duration) int {
	expired := h.sessions.Expire(maxIdle)
	for _, id := range expired {
		h.hub.CloseSession(id)
	}
	return len(expired)
}

type pointerRequest struct {
	Event string  `json:"event"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func (h *Handler) Pointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if !decode(w, r, &req) {
		return
	}
	p := geom.Pt(req.X, req.Y)
	h.mutate(w, r, func(s *editor.Session) error {
		switch req.Event {
		case "down":
			return s.PointerDown(p)
		case "move":
			return s.PointerMove(p)
		case "up":
			return s.PointerUp(p)
		case "finish":
			return s.FinishPath()
		}
		return fmt.Errorf("%w: unknown pointer event %q", errBadRequest, req.Event)
	})
}

type toolRequest struct {
	Tool string `json:"tool"`
}

func (h *Handler) SetTool(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(s *editor.Session) error {
		t, err := editor.ParseTool(req.Tool)
		if err != nil {
			return err
		}
		return s.SetTool(t)
	})
}

type historyResponse struct {
	Applied bool         `json:"applied"`
	State   editor.State `json:"state"`
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, (*editor.Session).Undo)
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, (*editor.Session).Redo)
}

// step answers an undo or redo. Having nothing to undo is not an error.
func (h *Handler) step(w http.ResponseWriter, r *http.Request, fn func(*editor.Session) (bool, error)) {
	var resp historyResponse
	err := entryFrom(r).Do(func(s *editor.Session) error {
		ok, err := fn(s)
		if err != nil {
			return err
		}
		resp = historyResponse{Applied: ok, State: s.State()}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectRequest struct {
	ID string `json:"id"`
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(s *editor.Session) error {
		return s.Select(req.ID)
	})
}

func (h *Handler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*editor.Session).DeleteSelected)
}

type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) CommitField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(s *editor.Session) error {
		return s.CommitField(req.Field, req.Value)
	})
}

type nodesRequest struct {
	Op string `json:"op"`
}

func (h *Handler) Nodes(w http.ResponseWriter, r *http.Request) {
	var req nodesRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(s *editor.Session) error {
		switch req.Op {
		case "add":
			return s.AddNode()
		case "remove":
			return s.RemoveNode()
		}
		return fmt.Errorf("%w: unknown node op %q", errBadRequest, req.Op)
	})
}

type layerRequest struct {
	Name    *string `json:"name"`
	Visible *bool   `json:"visible"`
	Active  *bool   `json:"active"`
}

func (h *Handler) AddLayer(w http.ResponseWriter, r *http.Request) {
	var req layerRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(s *editor.Session) error {
		name := ""
		if req.Name != nil {
			name = *req.Name
		}
		_, err := s.AddLayer(name)
		return err
	})
}

func (h *Handler) UpdateLayer(w http.ResponseWriter, r *http.Request) {
	var req layerRequest
	if !decode(w, r, &req) {
		return
	}
	id := mux.Vars(r)["layerId"]
	h.mutate(w, r, func(s *editor.Session) error {
		if err := s.UpdateLayer(id, editor.LayerChange{Name: req.Name, Visible: req.Visible}); err != nil {
			return err
		}
		if req.Active != nil && *req.Active {
			return s.ActivateLayer(id)
		}
		return nil
	})
}

func (h *Handler) RemoveLayer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["layerId"]
	h.mutate(w, r, func(s *editor.Session) error {
		return s.RemoveLayer(id)
	})
}

func (h *Handler) ToggleGrid(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *editor.Session) error {
		s.ToggleGrid()
		return nil
	})
}

func (h *Handler) NewDocument(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*editor.Session).New)
}

type openRequest struct {
	Text string `json:"text"`
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(s *editor.Session) error {
		return s.Open(req.Text)
	})
}

type saveRequest struct {
	Name string `json:"name"`
}

// Save writes the session's document to the store, as a new design the
// first time and over the same design afterwards.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !decode(w, r, &req) {
		return
	}
	e := entryFrom(r)

	var d store.Design
	err := e.Do(func(s *editor.Session) error {
		snap, err := s.Save()
		if err != nil {
			return err
		}
		d = store.Design{ID: e.DesignID(), Name: req.Name, Snapshot: snap}
		if d.Name == "" && d.ID != "" {
			if prev, err := h.store.Load(r.Context(), d.ID); err == nil {
				d.Name = prev.Name
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
		if d.ID == "" {
			d.ID = typeid.NewDesignID()
		}
		if err := h.store.Save(r.Context(), d); err != nil {
			return err
		}
		e.SetDesignID(d.ID)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("design saved", "session", e.ID, "design", d.ID)
	saved, err := h.store.Load(r.Context(), d.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Summary{ID: saved.ID, Name: saved.Name, UpdatedAt: saved.UpdatedAt})
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var cmds []engine.DrawCommand
	entryFrom(r).Do(func(s *editor.Session) error {
		cmds = s.DrawCommands()
		return nil
	})
	writeJSON(w, http.StatusOK, cmds)
}

func (h *Handler) Code(w http.ResponseWriter, r *http.Request) {
	var code string
	entryFrom(r).Do(func(s *editor.Session) error {
		code = s.GenerateCode()
		return nil
	})
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Write([]byte(code))
}

// WebSocket streams session.state messages to a viewer and relays its
// presence to the other viewers.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	e := entryFrom(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(h.origins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(h.hub, conn, e.ID, r.URL.Query().Get("name"))
	h.hub.Register(client)

	e.Do(func(s *editor.Session) error {
		state, err := json.Marshal(s.State())
		if err != nil {
			return err
		}
		payload, err := json.Marshal(collab.StatePayload{State: state})
		if err != nil {
			return err
		}
		client.Send(&collab.Message{Type: collab.TypeSessionState, SessionID: e.ID, Payload: payload})
		return nil
	})

	client.Serve(r.Context())
}
