package types

import (
	"strings"
	"time"
)

// RoomType distinguishes channel rooms from two-party direct rooms. It is
// carried explicitly on every message and event so receivers never have to
// infer a room's kind by scanning loaded channel or user lists.
type RoomType string

const (
	RoomChannel RoomType = "channel"
	RoomDirect  RoomType = "direct"
)

// MessageKind is the payload kind of a chat message.
type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
	MessageFile  MessageKind = "file"
)

// CallKind selects audio-only or audio+video calls.
type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

type User struct {
	Id             string    `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"displayName,omitempty"`
	EmailAddress   string    `json:"email,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	About          string    `json:"about,omitempty"`
	Status         string    `json:"status,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

type Channel struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Creator   string    `json:"creator"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type Reaction struct {
	Emoji  string `json:"emoji"`
	UserId string `json:"userId"`
}

// Message is one entry in a room timeline. Edit, delete, reaction and read
// events replace or mutate an existing entry by Id; a deleted message is
// tombstoned via IsDeleted, never removed.
type Message struct {
	Id            string      `json:"id"`
	Type          RoomType    `json:"type"`
	ChannelId     string      `json:"channelId,omitempty"`
	SenderId      string      `json:"senderId"`
	RecipientId   string      `json:"recipientId,omitempty"`
	Content       string      `json:"content"`
	MessageKind   MessageKind `json:"messageType"`
	AttachmentURL string      `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	EditedAt      *time.Time  `json:"editedAt,omitempty"`
	IsEdited      bool        `json:"isEdited,omitempty"`
	IsDeleted     bool        `json:"isDeleted,omitempty"`
	DeliveredTo   []string    `json:"deliveredTo,omitempty"`
	ReadBy        []string    `json:"readBy,omitempty"`
	Reactions     []Reaction  `json:"reactions,omitempty"`
}

// DirectRoomKey returns the deterministic room key for a two-party direct
// conversation: the two user ids sorted lexicographically and joined, so
// both endpoints derive the same key from the same unordered pair.
func DirectRoomKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "-" + b
}

// RoomKey returns the room key the message belongs to: the channel id for
// channel messages, the symmetric pair key for direct messages.
func (m *Message) RoomKey() string {
	if m.Type == RoomChannel {
		return m.ChannelId
	}
	return DirectRoomKey(m.SenderId, m.RecipientId)
}

// DeliveredToUser reports whether userId is in the message's delivered set.
func (m *Message) DeliveredToUser(userId string) bool {
	return contains(m.DeliveredTo, userId)
}

// ReadByUser reports whether userId is in the message's read set.
func (m *Message) ReadByUser(userId string) bool {
	return contains(m.ReadBy, userId)
}

// MarkRead adds userId to the message's read set. Set-union semantics:
// applying the same acknowledgment twice leaves the set unchanged.
func (m *Message) MarkRead(userId string) {
	if !contains(m.ReadBy, userId) {
		m.ReadBy = append(m.ReadBy, userId)
	}
}

// MarkDelivered adds userId to the message's delivered set, idempotently.
func (m *Message) MarkDelivered(userId string) {
	if !contains(m.DeliveredTo, userId) {
		m.DeliveredTo = append(m.DeliveredTo, userId)
	}
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
