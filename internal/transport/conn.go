package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	// maxMessageSize must fit SDP payloads, which run to tens of KB.
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

var (
	// ErrSendBufferFull is returned when the outbound queue is saturated.
	// The event is dropped, consistent with at-most-once semantics.
	ErrSendBufferFull = errors.New("transport: send buffer full")
	// ErrClosed is returned by Send after the connection is closed.
	ErrClosed = errors.New("transport: connection closed")
)

type handlerReg struct {
	fn Handler
}

// Conn is a live relay connection. One Conn is established per
// authenticated session and torn down on logout. Reconnection is the
// caller's responsibility, including re-joining rooms on the new Conn.
type Conn struct {
	conn *websocket.Conn
	log  *log.Logger
	// id tags this connection in logs; connections within a session are
	// otherwise indistinguishable across reconnects.
	id string

	send chan []byte

	handlersMu sync.RWMutex
	handlers   map[string][]*handlerReg

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the relay at rawURL, authenticating with the bearer
// token, and starts the read and write pumps.
func Dial(ctx context.Context, rawURL, authToken string, logger *log.Logger) (*Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+authToken)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", rawURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}

	id, err := shortid.Generate()
	if err != nil {
		id = "conn"
	}

	c := &Conn{
		conn:     conn,
		log:      logger,
		id:       id,
		send:     make(chan []byte, sendBufferSize),
		handlers: make(map[string][]*handlerReg),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go c.readLoop()
	go c.writeLoop()

	c.log.Printf("transport [%s]: connected to %s", c.id, rawURL)
	return c, nil
}

// Send marshals v and queues it for delivery. It never waits for an
// acknowledgment; when the buffer is full the event is dropped and
// ErrSendBufferFull returned.
func (c *Conn) Send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	raw, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	select {
	case <-c.stop:
		return ErrClosed
	default:
	}

	select {
	case c.send <- raw:
		return nil
	default:
		c.log.Printf("transport [%s]: dropping %q, send buffer full", c.id, event)
		return ErrSendBufferFull
	}
}

// On registers h for event and returns a function that removes it.
func (c *Conn) On(event string, h Handler) func() {
	reg := &handlerReg{fn: h}

	c.handlersMu.Lock()
	c.handlers[event] = append(c.handlers[event], reg)
	c.handlersMu.Unlock()

	return func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()

		regs := c.handlers[event]
		for i, r := range regs {
			if r == reg {
				c.handlers[event] = append(regs[:i], regs[i+1:]...)
				break
			}
		}
	}
}

func (c *Conn) JoinRoom(roomKey string) error {
	return c.Send(EventJoinRoom, joinRoomPayload{RoomKey: roomKey})
}

func (c *Conn) JoinCallRoom(roomKey string) error {
	return c.Send(EventJoinCallRoom, joinRoomPayload{RoomKey: roomKey})
}

// Done is closed once the read pump has exited, whether from Close or a
// broken connection. Callers watch it to trigger reconnect handling.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()

		c.log.Printf("transport [%s]: closed", c.id)
	})
	return nil
}

func (c *Conn) readLoop() {
	defer func() {
		c.conn.Close()
		close(c.done)
		c.log.Printf("transport [%s]: read exiting", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("transport [%s]: read: %v", c.id, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log.Printf("transport [%s]: discarding malformed envelope: %v", c.id, err)
			continue
		}

		c.dispatch(&env)
	}
}

// dispatch invokes every handler registered for the envelope's event, in
// registration order, on the read goroutine. This is the single-threaded
// delivery model the state-owning layers rely on: no two handlers for the
// same connection ever run concurrently.
func (c *Conn) dispatch(env *Envelope) {
	c.handlersMu.RLock()
	regs := make([]*handlerReg, len(c.handlers[env.Event]))
	copy(regs, c.handlers[env.Event])
	c.handlersMu.RUnlock()

	for _, reg := range regs {
		reg.fn(env.Data)
	}
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("transport [%s]: write exiting", c.id)
	}()

	for {
		select {
		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.log.Printf("transport [%s]: write: %v", c.id, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.stop:
			return
		}
	}
}
