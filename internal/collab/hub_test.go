package collab

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return Message{}
	}
}

func startHub(t *testing.T) *Hub {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func TestJoinSendsWelcomeAndPresence(t *testing.T) {
	h := startHub(t)
	a := NewClient(h, nil, "sess_1", "Ann")
	h.Register(a)

	welcome := recv(t, a)
	assert.Equal(t, TypeWelcome, welcome.Type)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, a.ClientID, wp.ClientID)
	assert.Equal(t, TypePresenceState, recv(t, a).Type)

	b := NewClient(h, nil, "sess_1", "")
	assert.Equal(t, "Viewer", b.DisplayName)
	h.Register(b)
	recv(t, b)
	recv(t, b)

	join := recv(t, a)
	assert.Equal(t, TypePresenceJoin, join.Type)
	assert.Equal(t, b.ClientID, join.ClientID)
	assert.Equal(t, 2, h.Viewers("sess_1"))
}

func TestBroadcastStateIsSequencedPerSession(t *testing.T) {
	h := startHub(t)
	a := NewClient(h, nil, "sess_1", "Ann")
	other := NewClient(h, nil, "sess_2", "Bob")
	h.Register(a)
	h.Register(other)
	recv(t, a)
	recv(t, a)
	recv(t, other)
	recv(t, other)

	h.BroadcastState("sess_1", "Add Line", json.RawMessage(`{"tool":"line"}`))
	h.BroadcastState("sess_1", "Undo Add Line", json.RawMessage(`{"tool":"line"}`))

	first := recv(t, a)
	assert.Equal(t, TypeSessionState, first.Type)
	assert.EqualValues(t, 1, first.Seq)
	var sp StatePayload
	require.NoError(t, json.Unmarshal(first.Payload, &sp))
	assert.Equal(t, "Add Line", sp.Action)
	assert.JSONEq(t, `{"tool":"line"}`, string(sp.State))
	assert.EqualValues(t, 2, recv(t, a).Seq)

	select {
	case <-other.send:
		t.Fatal("other session received a broadcast")
	default:
	}
}

func TestPresenceRelayAndLeave(t *testing.T) {
	h := startHub(t)
	a := NewClient(h, nil, "sess_1", "Ann")
	b := NewClient(h, nil, "sess_1", "Bob")
	h.Register(a)
	recv(t, a)
	recv(t, a)
	h.Register(b)
	recv(t, b)
	recv(t, b)
	recv(t, a) // join

	h.handleMessage(a, &Message{
		Type:    TypePresenceUpdate,
		Payload: json.RawMessage(`{"cursor":{"x":3,"y":4},"displayName":"spoofed"}`),
	})
	update := recv(t, b)
	assert.Equal(t, TypePresenceUpdate, update.Type)
	var p PresencePayload
	require.NoError(t, json.Unmarshal(update.Payload, &p))
	assert.Equal(t, "Ann", p.DisplayName)
	assert.Equal(t, &CursorPos{X: 3, Y: 4}, p.Cursor)

	h.Unregister(a)
	leave := recv(t, b)
	assert.Equal(t, TypePresenceLeave, leave.Type)
	assert.Equal(t, a.ClientID, leave.ClientID)
	assert.Equal(t, 1, h.Viewers("sess_1"))

	_, ok := <-a.send
	assert.False(t, ok)
}

func TestUnknownMessageGetsError(t *testing.T) {
	h := startHub(t)
	a := NewClient(h, nil, "sess_1", "Ann")
	h.Register(a)
	recv(t, a)
	recv(t, a)

	h.handleMessage(a, &Message{Type: "bogus"})
	assert.Equal(t, TypeError, recv(t, a).Type)
}

func TestCloseSession(t *testing.T) {
	h := startHub(t)
	a := NewClient(h, nil, "sess_1", "Ann")
	h.Register(a)
	recv(t, a)
	recv(t, a)

	h.CloseSession("sess_1")
	assert.Equal(t, 0, h.Viewers("sess_1"))
	_, ok := <-a.send
	assert.False(t, ok)

	// a late unregister from the read pump is harmless
	h.Unregister(a)
}
