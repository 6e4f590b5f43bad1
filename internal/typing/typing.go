// Package typing debounces outbound typing notifications and tracks the one
// remote typer shown for the active room.
package typing

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/transport"
)

// idleTimeout is how long after the last keystroke a stop-typing is emitted.
const idleTimeout = 2 * time.Second

type typingEvent struct {
	RoomKey  string `json:"roomKey"`
	SenderId string `json:"senderId"`
}

// Coordinator owns the local debounce timer and the remote-typer value.
// At most one remote typer is tracked (last writer wins); there is no queue
// of simultaneous typers.
type Coordinator struct {
	tp     transport.Transport
	log    *log.Logger
	selfId string
	idle   time.Duration

	mu          sync.Mutex
	activeRoom  string
	remoteTyper string
	timer       *time.Timer
	// typingSent tracks whether a typing event for the current burst is
	// outstanding, so an empty input only emits stop-typing once.
	typingSent bool
}

func NewCoordinator(tp transport.Transport, selfId string, logger *log.Logger) *Coordinator {
	return &Coordinator{
		tp:     tp,
		log:    logger,
		selfId: selfId,
		idle:   idleTimeout,
	}
}

// Attach subscribes the coordinator to inbound typing events and returns a
// detach function.
func (c *Coordinator) Attach() func() {
	unsubTyping := c.tp.On(transport.EventTyping, c.handleTyping)
	unsubStop := c.tp.On(transport.EventStopTyping, c.handleStopTyping)

	return func() {
		unsubTyping()
		unsubStop()
	}
}

// InputChanged reacts to a local compose-input change. Non-empty content
// emits typing and (re)arms the idle timer; content becoming empty cancels
// the timer and emits stop-typing immediately.
func (c *Coordinator) InputChanged(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeRoom == "" {
		return
	}

	if strings.TrimSpace(content) != "" {
		c.stopTimerLocked()
		c.emit(transport.EventTyping, c.activeRoom)
		c.typingSent = true

		room := c.activeRoom
		c.timer = time.AfterFunc(c.idle, func() { c.idleExpired(room) })
		return
	}

	if c.typingSent {
		c.stopTimerLocked()
		c.typingSent = false
		c.emit(transport.EventStopTyping, c.activeRoom)
	}
}

// Blur cancels the debounce and emits stop-typing for the active room.
func (c *Coordinator) Blur() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeRoom == "" {
		return
	}

	c.stopTimerLocked()
	c.typingSent = false
	c.emit(transport.EventStopTyping, c.activeRoom)
}

// SetActiveRoom switches rooms: stop-typing is emitted for the room being
// left, the timer is cancelled and the remote typer cleared.
func (c *Coordinator) SetActiveRoom(roomKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeRoom != "" && c.activeRoom != roomKey {
		c.stopTimerLocked()
		if c.typingSent {
			c.emit(transport.EventStopTyping, c.activeRoom)
		}
	}

	c.activeRoom = roomKey
	c.remoteTyper = ""
	c.typingSent = false
}

// TypingUser returns the remote user currently typing in the active room,
// empty when nobody is.
func (c *Coordinator) TypingUser() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteTyper
}

func (c *Coordinator) idleExpired(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A room switch or explicit stop may have raced the timer.
	if c.activeRoom != room || !c.typingSent {
		return
	}

	c.typingSent = false
	c.emit(transport.EventStopTyping, room)
}

func (c *Coordinator) handleTyping(data json.RawMessage) {
	var ev typingEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		c.log.Printf("typing: malformed event: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Stale events from a previously active room and our own echoes are
	// both dropped.
	if ev.SenderId == c.selfId || ev.RoomKey != c.activeRoom {
		return
	}
	c.remoteTyper = ev.SenderId
}

func (c *Coordinator) handleStopTyping(data json.RawMessage) {
	var ev typingEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		c.log.Printf("typing: malformed event: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.SenderId == c.selfId || ev.RoomKey != c.activeRoom {
		return
	}
	c.remoteTyper = ""
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) emit(event, room string) {
	if err := c.tp.Send(event, typingEvent{RoomKey: room, SenderId: c.selfId}); err != nil {
		c.log.Printf("typing: send %s: %v", event, err)
	}
}
