// Package collab fans session changes out to websocket viewers and relays
// their presence (cursor, tool) to each other.
package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
)

type Room struct {
	sessionID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	seq       int64
}

func NewRoom(sessionID string) *Room {
	return &Room{
		sessionID: sessionID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sessionID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Viewers reports how many clients watch sessionID.
func (h *Hub) Viewers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[sessionID]; ok {
		return len(room.clients)
	}
	return 0
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		room = NewRoom(client.SessionID)
		h.rooms[client.SessionID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID})
	client.Send(&Message{Type: TypeWelcome, SessionID: client.SessionID, Payload: welcome})

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(client.ClientID); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		ClientID:    client.ClientID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:     TypePresenceJoin,
		ClientID: client.ClientID,
		Payload:  joinPayload,
	}
	h.broadcastToRoom(client.SessionID, joinMsg, client.ClientID)

	slog.Info("viewer joined", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.ClientID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.SessionID)
	}
	h.mu.Unlock()

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		ClientID: client.ClientID,
	})
	leaveMsg := &Message{
		Type:     TypePresenceLeave,
		ClientID: client.ClientID,
		Payload:  leavePayload,
	}
	h.broadcastToRoom(client.SessionID, leaveMsg, "")

	slog.Info("viewer left", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room.clients {
			close(c.send)
		}
		delete(h.rooms, id)
	}
}

// CloseSession disconnects every viewer of sessionID.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		close(c.send)
	}
	delete(h.rooms, sessionID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		errPayload, _ := json.Marshal(map[string]string{"error": "unknown message type"})
		sender.Send(&Message{Type: TypeError, Payload: errPayload})
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.SessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:     TypePresenceUpdate,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}
	h.broadcastToRoom(sender.SessionID, outMsg, sender.ClientID)
}

// BroadcastState sends the session state to every viewer of sessionID.
// state must already be JSON.
func (h *Hub) BroadcastState(sessionID, action string, state json.RawMessage) {
	payload, err := json.Marshal(StatePayload{Action: action, State: state})
	if err != nil {
		slog.Error("marshal session state", "error", err)
		return
	}

	h.mu.Lock()
	room, ok := h.rooms[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	room.seq++
	msg := &Message{Type: TypeSessionState, SessionID: sessionID, Seq: room.seq, Payload: payload}
	h.mu.Unlock()

	h.broadcastToRoom(sessionID, msg, "")
}

// broadcastToRoom sends under the read lock so a client's channel cannot
// be closed mid-send. Send never blocks.
func (h *Hub) broadcastToRoom(sessionID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}
