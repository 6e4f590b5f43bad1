// Package presence maintains the process-wide online/offline map driven by
// relay events.
package presence

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/transport"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
)

type statusEvent struct {
	UserId string               `json:"userId"`
	Status types.PresenceStatus `json:"status"`
}

type bulkOnlineEvent struct {
	UserIds []string `json:"userIds"`
}

// Tracker holds the last known presence status per user. Unknown users are
// reported offline.
type Tracker struct {
	log *log.Logger

	mu     sync.RWMutex
	status map[string]types.PresenceStatus
}

func NewTracker(logger *log.Logger) *Tracker {
	return &Tracker{
		log:    logger,
		status: make(map[string]types.PresenceStatus),
	}
}

// Attach subscribes the tracker to tp and returns a detach function.
func (t *Tracker) Attach(tp transport.Transport) func() {
	unsubStatus := tp.On(transport.EventUserStatus, t.handleStatus)
	unsubBulk := tp.On(transport.EventCurrentOnline, t.handleBulkOnline)

	return func() {
		unsubStatus()
		unsubBulk()
	}
}

func (t *Tracker) handleStatus(data json.RawMessage) {
	var ev statusEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.log.Printf("presence: malformed status event: %v", err)
		return
	}
	if ev.UserId == "" {
		return
	}

	t.mu.Lock()
	t.status[ev.UserId] = ev.Status
	t.mu.Unlock()
}

// handleBulkOnline applies the point-in-time online snapshot received after
// joining. The snapshot is additive: it only sets users online and never
// clears entries absent from it, since it is a sample, not an authoritative
// roster.
func (t *Tracker) handleBulkOnline(data json.RawMessage) {
	var ev bulkOnlineEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.log.Printf("presence: malformed bulk online event: %v", err)
		return
	}

	t.mu.Lock()
	for _, id := range ev.UserIds {
		t.status[id] = types.StatusOnline
	}
	t.mu.Unlock()
}

// Status returns the last known status for userId, offline if unknown.
func (t *Tracker) Status(userId string) types.PresenceStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s, ok := t.status[userId]; ok {
		return s
	}
	return types.StatusOffline
}

// Online reports whether userId was last seen online.
func (t *Tracker) Online(userId string) bool {
	return t.Status(userId) == types.StatusOnline
}

// Snapshot returns a copy of the current presence map.
func (t *Tracker) Snapshot() map[string]types.PresenceStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]types.PresenceStatus, len(t.status))
	for id, s := range t.status {
		out[id] = s
	}
	return out
}
