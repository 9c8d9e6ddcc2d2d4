package collab

import (
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
)

// PresenceManager remembers the last presence each viewer of a room
// reported, so newcomers can be shown everyone at once.
type PresenceManager struct {
	mu   sync.RWMutex
	byID map[string]*PresencePayload
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{byID: make(map[string]*PresencePayload)}
}

func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.mu.Lock()
	pm.byID[clientID] = p
	pm.mu.Unlock()
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	delete(pm.byID, clientID)
	pm.mu.Unlock()
}

// StateMessage lists every known presence except the asking client's.
func (pm *PresenceManager) StateMessage(exclude string) *Message {
	pm.mu.RLock()
	all := maps.Clone(pm.byID)
	pm.mu.RUnlock()
	delete(all, exclude)

	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{Type: TypePresenceState, Payload: payload}
}
