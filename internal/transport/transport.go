// Package transport wraps the event-relay connection used for all real-time
// traffic: chat events, presence, typing, and call signaling. It exposes
// typed send/subscribe primitives and nothing else; routing, ordering and
// duplicate suppression are the concern of the layers above, which must stay
// idempotent under redelivery and reordering.
package transport

import "encoding/json"

// Event names produced by this client.
const (
	EventJoinRoom      = "joinRoom"
	EventJoinCallRoom  = "joinCallRoom"
	EventChatMessage   = "chatMessage"
	EventTyping        = "typing"
	EventStopTyping    = "stopTyping"
	EventMessageRead   = "messageRead"
	EventEditMessage   = "editMessage"
	EventDeleteMessage = "deleteMessage"
	EventCallUser      = "callUser"
	EventCallAccepted  = "callAccepted"
	EventCallRejected  = "callRejected"
	EventVideoSignal   = "videoSignal"
)

// Event names consumed by this client.
const (
	EventMessageReceived   = "messageReceived"
	EventMessageEdited     = "messageEdited"
	EventMessageDeleted    = "messageDeleted"
	EventMessageReaction   = "messageReaction"
	EventMessageReadUpdate = "messageReadUpdate"
	EventUserStatus        = "userStatus"
	EventCurrentOnline     = "currentOnline"
	EventChannelsUpdated   = "channelsUpdated"
	EventUsersUpdated      = "usersUpdated"
	EventIncomingCall      = "incomingCall"
	EventPeerLeft          = "peerLeft"
)

// Envelope is the wire format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives the raw payload of one inbound event. Handlers for a
// connection are invoked sequentially on the read loop; a handler must not
// block on another inbound event.
type Handler func(data json.RawMessage)

// Transport is the surface the session, presence, typing and call layers
// use. Send is at-most-once and unconfirmed: there is no acknowledgment
// to wait for.
type Transport interface {
	Send(event string, v any) error
	On(event string, h Handler) (unsubscribe func())
	JoinRoom(roomKey string) error
	JoinCallRoom(roomKey string) error
}

type joinRoomPayload struct {
	RoomKey string `json:"roomKey"`
}
