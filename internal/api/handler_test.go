package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/vecdraw/internal/auth"
	"github.com/inamate/vecdraw/internal/collab"
	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/editor"
	"github.com/inamate/vecdraw/internal/engine"
	"github.com/inamate/vecdraw/internal/export"
	"github.com/inamate/vecdraw/internal/sessions"
	"github.com/inamate/vecdraw/internal/store"
)

type testServer struct {
	t      *testing.T
	router *mux.Router
	store  store.Store
	hub    *collab.Hub
	h      *Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	hub := collab.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	h := NewHandler(Deps{
		Sessions: sessions.NewRegistry(editor.DefaultOptions()),
		Store:    st,
		Auth:     auth.NewService("test-secret"),
		Hub:      hub,
		Export:   export.NewHandler(st, 1280, 720),
		Origins:  []string{"*"},
	})
	r := mux.NewRouter()
	h.Routes(r)
	return &testServer{t: t, router: r, store: st, hub: hub, h: h}
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) create(body interface{}) createSessionResponse {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/sessions", "", body)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp createSessionResponse
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) editor.State {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st editor.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func TestCreateSession(t *testing.T) {
	ts := newTestServer(t)
	s := ts.create(nil)
	assert.NotEmpty(t, s.ID)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, editor.ToolSelect, s.State.Tool)
	assert.Equal(t, 1, s.State.History.Length)
	assert.Len(t, s.State.Layers, 1)

	st := decodeState(t, ts.do(http.MethodGet, "/sessions/"+s.ID, s.Token, nil))
	assert.Equal(t, s.State.Layers, st.Layers)
}

func TestSessionRoutesNeedMatchingToken(t *testing.T) {
	ts := newTestServer(t)
	a := ts.create(nil)
	b := ts.create(nil)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/sessions/"+a.ID, "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/sessions/"+a.ID, "junk", nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/sessions/"+a.ID, b.Token, nil).Code)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/sessions/"+a.ID, a.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/sessions/"+a.ID, a.Token, nil).Code)
}

func TestDrawLineAndUndo(t *testing.T) {
	ts := newTestServer(t)
	s := ts.create(nil)
	base := "/sessions/" + s.ID

	decodeState(t, ts.do(http.MethodPost, base+"/tool", s.Token, toolRequest{Tool: "line"}))
	decodeState(t, ts.do(http.MethodPost, base+"/pointer", s.Token, pointerRequest{Event: "down", X: 100, Y: 100}))
	decodeState(t, ts.do(http.MethodPost, base+"/pointer", s.Token, pointerRequest{Event: "move", X: 200, Y: 150}))

	rec := ts.do(http.MethodGet, base+"/render", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cmds []engine.DrawCommand
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmds))
	require.Len(t, cmds, 1)
	assert.Equal(t, "preview", cmds[0].Role)

	st := decodeState(t, ts.do(http.MethodPost, base+"/pointer", s.Token, pointerRequest{Event: "down", X: 200, Y: 150}))
	assert.Equal(t, 2, st.History.Length)
	assert.Equal(t, "Add Line", st.History.UndoLabel)
	assert.NotEmpty(t, st.Selected)

	rec = ts.do(http.MethodPost, base+"/undo", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hr historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hr))
	assert.True(t, hr.Applied)
	assert.Empty(t, hr.State.Selected)
	assert.Equal(t, 0, hr.State.History.Cursor)

	rec = ts.do(http.MethodPost, base+"/undo", s.Token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hr))
	assert.False(t, hr.Applied)
}

func TestEditErrorsMapToStatus(t *testing.T) {
	ts := newTestServer(t)
	s := ts.create(nil)
	base := "/sessions/" + s.ID

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, base+"/tool", s.Token, toolRequest{Tool: "lasso"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, base+"/pointer", s.Token, pointerRequest{Event: "wiggle"}).Code)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodPost, base+"/properties", s.Token, fieldRequest{Field: "x", Value: "1"}).Code)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodDelete, base+"/selection", s.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, base+"/select", s.Token, selectRequest{ID: "shape_nope"}).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, base+"/layers/layer_nope", s.Token, nil).Code)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodPost, base+"/pointer", s.Token, pointerRequest{Event: "finish"}).Code)

	rec := ts.do(http.MethodPost, base+"/open", s.Token, openRequest{Text: "{not json"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid snapshot")

	req := httptest.NewRequest(http.MethodPost, base+"/tool", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+s.Token)
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPropertiesAndNodes(t *testing.T) {
	ts := newTestServer(t)
	snap, err := document.Export(document.NewSampleDocument())
	require.NoError(t, err)
	s := ts.create(nil)
	base := "/sessions/" + s.ID

	st := decodeState(t, ts.do(http.MethodPost, base+"/open", s.Token, openRequest{Text: string(snap)}))
	assert.Equal(t, "Open Document", st.History.UndoLabel)

	doc, err := document.Import(snap)
	require.NoError(t, err)
	post := doc.Layers[1].Shapes[1]
	require.Equal(t, "Post", post.Name())

	st = decodeState(t, ts.do(http.MethodPost, base+"/select", s.Token, selectRequest{ID: post.ID()}))
	assert.Equal(t, post.ID(), st.Selected)
	assert.Equal(t, post.ID(), st.Properties.ShapeID)

	st = decodeState(t, ts.do(http.MethodPost, base+"/properties", s.Token, fieldRequest{Field: "stroke", Value: "tomato"}))
	assert.Equal(t, "Edit stroke", st.History.UndoLabel)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, base+"/properties", s.Token, fieldRequest{Field: "stroke", Value: "#12"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, base+"/properties", s.Token, fieldRequest{Field: "strokeWidth", Value: "wide"}).Code)

	st = decodeState(t, ts.do(http.MethodPost, base+"/nodes", s.Token, nodesRequest{Op: "add"}))
	assert.Equal(t, "Add Node", st.History.UndoLabel)
	decodeState(t, ts.do(http.MethodPost, base+"/nodes", s.Token, nodesRequest{Op: "remove"}))
	decodeState(t, ts.do(http.MethodPost, base+"/nodes", s.Token, nodesRequest{Op: "remove"}))
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodPost, base+"/nodes", s.Token, nodesRequest{Op: "remove"}).Code)

	code := ts.do(http.MethodGet, base+"/code", s.Token, nil)
	require.Equal(t, http.StatusOK, code.Code)
	assert.Contains(t, code.Body.String(), "foregroundPost.lineStyle(6.00, 0xff6347, 1);")
}

func TestLayers(t *testing.T) {
	ts := newTestServer(t)
	s := ts.create(nil)
	base := "/sessions/" + s.ID

	name := "Sky"
	st := decodeState(t, ts.do(http.MethodPost, base+"/layers", s.Token, layerRequest{Name: &name}))
	require.Len(t, st.Layers, 2)
	sky := st.Layers[1]
	assert.Equal(t, "Sky", sky.Name)
	assert.True(t, sky.Active)

	hidden, renamed, active := false, "Clouds", true
	st = decodeState(t, ts.do(http.MethodPatch, base+"/layers/"+st.Layers[0].ID, s.Token, layerRequest{Active: &active}))
	assert.True(t, st.Layers[0].Active)
	st = decodeState(t, ts.do(http.MethodPatch, base+"/layers/"+sky.ID, s.Token, layerRequest{Name: &renamed, Visible: &hidden}))
	assert.Equal(t, "Clouds", st.Layers[1].Name)
	assert.False(t, st.Layers[1].Visible)
	assert.Equal(t, "Edit Layer", st.History.UndoLabel)
	assert.Equal(t, 3, st.History.Length, "one request is one undo step")

	st = decodeState(t, ts.do(http.MethodDelete, base+"/layers/"+sky.ID, s.Token, nil))
	assert.Len(t, st.Layers, 1)
	assert.Equal(t, "Delete Layer", st.History.UndoLabel)

	st = decodeState(t, ts.do(http.MethodPost, base+"/grid", s.Token, nil))
	assert.True(t, st.GridVisible)
	st = decodeState(t, ts.do(http.MethodPost, base+"/new", s.Token, nil))
	assert.Equal(t, 5, st.History.Length)
	assert.Equal(t, "New Document", st.History.UndoLabel)
}

func TestSaveAndReopenDesign(t *testing.T) {
	ts := newTestServer(t)
	s := ts.create(nil)
	base := "/sessions/" + s.ID

	decodeState(t, ts.do(http.MethodPost, base+"/tool", s.Token, toolRequest{Tool: "rectangle"}))
	decodeState(t, ts.do(http.MethodPost, base+"/pointer", s.Token, pointerRequest{Event: "down", X: 10, Y: 10}))
	decodeState(t, ts.do(http.MethodPost, base+"/pointer", s.Token, pointerRequest{Event: "up", X: 60, Y: 40}))

	rec := ts.do(http.MethodPost, base+"/save", s.Token, saveRequest{Name: "Box"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "Box", saved.Name)

	// saving again overwrites the same design and keeps its name
	rec = ts.do(http.MethodPost, base+"/save", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var again store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, saved.ID, again.ID)
	assert.Equal(t, "Box", again.Name)

	rec = ts.do(http.MethodGet, "/designs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	reopened := ts.create(createSessionRequest{DesignID: saved.ID})
	assert.Equal(t, 1, reopened.State.Layers[0].Shapes)

	rec = ts.do(http.MethodGet, "/designs/"+saved.ID+"/code", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "this.add.rectangle(35.00, 25.00, 50.00, 30.00")

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/designs/"+saved.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/sessions", "", createSessionRequest{DesignID: saved.ID}).Code)
}

func TestWebSocketReceivesState(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()
	s := ts.create(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + s.ID + "?token=" + s.Token + "&name=Ann"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	next := func(typ string) collab.Message {
		for {
			_, data, err := conn.Read(ctx)
			require.NoError(t, err)
			var msg collab.Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == typ {
				return msg
			}
		}
	}

	initial := next(collab.TypeSessionState)
	var sp collab.StatePayload
	require.NoError(t, json.Unmarshal(initial.Payload, &sp))
	assert.Empty(t, sp.Action)

	require.Eventually(t, func() bool { return ts.hub.Viewers(s.ID) == 1 }, time.Second, 10*time.Millisecond)

	base := "/sessions/" + s.ID
	decodeState(t, ts.do(http.MethodPost, base+"/tool", s.Token, toolRequest{Tool: "circle"}))
	decodeState(t, ts.do(http.MethodPost, base+"/pointer", s.Token, pointerRequest{Event: "down", X: 100, Y: 100}))
	decodeState(t, ts.do(http.MethodPost, base+"/pointer", s.Token, pointerRequest{Event: "up", X: 130, Y: 140}))

	for {
		msg := next(collab.TypeSessionState)
		require.NoError(t, json.Unmarshal(msg.Payload, &sp))
		if sp.Action != "" {
			break
		}
	}
	assert.Equal(t, "Add Circle", sp.Action)
	var st editor.State
	require.NoError(t, json.Unmarshal(sp.State, &st))
	assert.Equal(t, 2, st.History.Length)
	assert.NotEmpty(t, st.Selected)
}

func TestExpiredSessionDisconnectsViewers(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()
	s := ts.create(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + s.ID + "?token=" + s.Token
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	require.Eventually(t, func() bool { return ts.hub.Viewers(s.ID) == 1 }, time.Second, 10*time.Millisecond)

	assert.Zero(t, ts.h.ExpireSessions(time.Hour))
	assert.Equal(t, 1, ts.h.ExpireSessions(-time.Second))
	assert.Zero(t, ts.hub.Viewers(s.ID))
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/sessions/"+s.ID, s.Token, nil).Code)

	for {
		if _, _, err = conn.Read(ctx); err != nil {
			break
		}
	}
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}
