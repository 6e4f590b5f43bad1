package session

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/restclient"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/stats"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/transport"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
)

// RoomState tracks where the active room is in its load cycle.
type RoomState int

const (
	RoomIdle RoomState = iota
	RoomLoading
	RoomReady
)

func (s RoomState) String() string {
	switch s {
	case RoomLoading:
		return "loading"
	case RoomReady:
		return "ready"
	default:
		return "idle"
	}
}

// Room identifies the conversation being viewed. For channels only
// ChannelId is set, for direct conversations only UserId is set.
type Room struct {
	Type      types.RoomType
	ChannelId string
	UserId    string
}

// Key returns the room's routing key. Direct rooms use the symmetric
// key so both participants compute the same value.
func (r Room) Key(selfId string) string {
	if r.Type == types.RoomDirect {
		return types.DirectRoomKey(selfId, r.UserId)
	}

	return r.ChannelId
}

type chatMessageEvent struct {
	Type        types.RoomType    `json:"type"`
	ChannelId   string            `json:"channelId,omitempty"`
	SenderId    string            `json:"senderId"`
	RecipientId string            `json:"recipientId,omitempty"`
	Content     string            `json:"content"`
	MessageKind types.MessageKind `json:"messageType"`
	Attachment  string            `json:"attachmentUrl,omitempty"`
}

type messageReadEvent struct {
	MessageId string `json:"messageId"`
	UserId    string `json:"userId"`
	RoomKey   string `json:"roomKey"`
}

// Synchronizer merges fetched message history with live transport
// events into a single timeline for the active room. It also owns the
// per-user unread counters and the channel and user directories.
type Synchronizer struct {
	tp     transport.Transport
	svc    restclient.Service
	stats  stats.StatsProvider
	log    *log.Logger
	selfId string

	mu       sync.Mutex
	room     Room
	roomKey  string
	state    RoomState
	fetchSeq uint64
	timeline []types.Message
	unread   map[string]int
	channels []types.Channel
	users    []types.User
}

func NewSynchronizer(tp transport.Transport, svc restclient.Service, su stats.StatsProvider, selfId string, logger *log.Logger) *Synchronizer {
	return &Synchronizer{
		tp:     tp,
		svc:    svc,
		stats:  su,
		log:    logger,
		selfId: selfId,
		unread: make(map[string]int),
	}
}

// Attach subscribes the synchronizer to the transport's message and
// directory events. The returned function removes the subscriptions.
func (s *Synchronizer) Attach() func() {
	unsubs := []func(){
		s.tp.On(transport.EventMessageReceived, s.handleMessageReceived),
		s.tp.On(transport.EventMessageEdited, s.handleMessageReplaced),
		s.tp.On(transport.EventMessageDeleted, s.handleMessageReplaced),
		s.tp.On(transport.EventMessageReaction, s.handleMessageReplaced),
		s.tp.On(transport.EventMessageReadUpdate, s.handleMessageRead),
		s.tp.On(transport.EventChannelsUpdated, s.handleChannelsUpdated),
		s.tp.On(transport.EventUsersUpdated, s.handleUsersUpdated),
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// EnterRoom makes room the active room, resets its unread counter,
// joins its transport room and replaces the timeline with freshly
// fetched history. Any messages delivered between room selection and
// fetch completion are dropped unless present in the fetch result.
func (s *Synchronizer) EnterRoom(ctx context.Context, room Room) error {
	s.mu.Lock()
	s.room = room
	s.roomKey = room.Key(s.selfId)
	s.state = RoomLoading
	s.timeline = nil
	s.fetchSeq++
	seq := s.fetchSeq
	roomKey := s.roomKey
	if room.Type == types.RoomDirect {
		delete(s.unread, room.UserId)
	}
	s.mu.Unlock()

	if err := s.tp.JoinRoom(roomKey); err != nil {
		return err
	}

	var (
		history []types.Message
		err     error
	)
	if room.Type == types.RoomChannel {
		history, err = s.svc.ChannelMessages(ctx, room.ChannelId)
	} else {
		history, err = s.svc.DirectMessages(ctx, room.UserId)
	}
	if err != nil {
		// A failed fetch degrades to an empty timeline so a transient
		// backend error never wedges the room in loading.
		s.log.Printf("failed to fetch history for %s: %s", roomKey, err)
		history = nil
	}

	s.mu.Lock()
	if s.fetchSeq != seq {
		// The user switched rooms while this fetch was in flight.
		s.mu.Unlock()
		return nil
	}
	s.timeline = history
	s.state = RoomReady
	s.mu.Unlock()

	s.emitReadReceipts()

	return nil
}

// SendMessage hands a room-typed chat event to the transport without
// waiting for acknowledgment. The message joins the timeline only when
// the relay echoes it back.
func (s *Synchronizer) SendMessage(content string, kind types.MessageKind, attachmentURL string) error {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()

	ev := chatMessageEvent{
		Type:        room.Type,
		SenderId:    s.selfId,
		Content:     content,
		MessageKind: kind,
		Attachment:  attachmentURL,
	}
	if room.Type == types.RoomChannel {
		ev.ChannelId = room.ChannelId
	} else {
		ev.RecipientId = room.UserId
	}

	if err := s.tp.Send(transport.EventChatMessage, ev); err != nil {
		return err
	}
	s.stats.Incr(stats.NumMessagesSent)

	return nil
}

// SendText sends a plain text message to the active room.
func (s *Synchronizer) SendText(content string) error {
	return s.SendMessage(content, types.MessageText, "")
}

// SendImage uploads the image through the REST api and sends a message
// referencing it.
func (s *Synchronizer) SendImage(ctx context.Context, filename string, r io.Reader) error {
	res, err := s.svc.UploadImage(ctx, filename, r)
	if err != nil {
		return err
	}

	return s.SendMessage("", types.MessageImage, res.ImageURL)
}

// SendFile uploads the file through the REST api and sends a message
// referencing it.
func (s *Synchronizer) SendFile(ctx context.Context, filename string, r io.Reader) error {
	res, err := s.svc.UploadFile(ctx, filename, r)
	if err != nil {
		return err
	}

	return s.SendMessage(res.FileName, types.MessageFile, res.FileURL)
}

// EditMessage updates a message through the REST api and announces the
// result on the transport so other participants replace their copy.
func (s *Synchronizer) EditMessage(ctx context.Context, messageId, content string) error {
	msg, err := s.svc.EditMessage(ctx, messageId, content)
	if err != nil {
		return err
	}

	s.replaceMessage(msg)

	return s.tp.Send(transport.EventEditMessage, msg)
}

// DeleteMessage tombstones a message through the REST api and announces
// the result on the transport.
func (s *Synchronizer) DeleteMessage(ctx context.Context, messageId string) error {
	msg, err := s.svc.DeleteMessage(ctx, messageId)
	if err != nil {
		return err
	}

	s.replaceMessage(msg)

	return s.tp.Send(transport.EventDeleteMessage, msg)
}

// State reports the active room's load state.
func (s *Synchronizer) State() RoomState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// ActiveRoomKey returns the routing key of the active room, or "" when
// no room is active.
func (s *Synchronizer) ActiveRoomKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roomKey
}

// Timeline returns a copy of the active room's messages.
func (s *Synchronizer) Timeline() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	timeline := make([]types.Message, len(s.timeline))
	copy(timeline, s.timeline)

	return timeline
}

// Unread returns the unread count for a direct conversation with userId.
func (s *Synchronizer) Unread(userId string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.unread[userId]
}

// Channels returns the most recently fetched channel directory.
func (s *Synchronizer) Channels() []types.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := make([]types.Channel, len(s.channels))
	copy(channels, s.channels)

	return channels
}

// Users returns the most recently fetched user directory.
func (s *Synchronizer) Users() []types.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]types.User, len(s.users))
	copy(users, s.users)

	return users
}

// RefreshDirectory fetches the channel and user directories.
func (s *Synchronizer) RefreshDirectory(ctx context.Context) error {
	channels, err := s.svc.Channels(ctx)
	if err != nil {
		return err
	}

	users, err := s.svc.Users(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.channels = channels
	s.users = users
	s.mu.Unlock()

	return nil
}

func (s *Synchronizer) handleMessageReceived(data json.RawMessage) {
	var msg types.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Printf("failed to parse message event: %s", err)
		return
	}
	s.stats.Incr(stats.NumMessagesReceived)

	s.mu.Lock()
	// Unread accounting is independent of whether the message is
	// rendered in the active timeline.
	if msg.Type == types.RoomDirect && msg.RecipientId == s.selfId && msg.RoomKey() != s.roomKey {
		s.unread[msg.SenderId]++
	}

	if s.roomKey != "" && msg.RoomKey() == s.roomKey {
		s.timeline = append(s.timeline, msg)
	}
	s.mu.Unlock()

	s.emitReadReceipts()
}

// handleMessageReplaced applies edit, delete and reaction events. Each
// carries the full updated record and replaces the matching timeline
// entry by id. Unknown ids are ignored.
func (s *Synchronizer) handleMessageReplaced(data json.RawMessage) {
	var msg types.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Printf("failed to parse message update event: %s", err)
		return
	}

	s.replaceMessage(msg)
}

func (s *Synchronizer) replaceMessage(msg types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.timeline {
		if s.timeline[i].Id == msg.Id {
			s.timeline[i] = msg
			return
		}
	}
}

func (s *Synchronizer) handleMessageRead(data json.RawMessage) {
	var ev messageReadEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		s.log.Printf("failed to parse read event: %s", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.timeline {
		if s.timeline[i].Id == ev.MessageId && s.timeline[i].SenderId == s.selfId {
			s.timeline[i].MarkRead(ev.UserId)
			return
		}
	}
}

func (s *Synchronizer) handleChannelsUpdated(json.RawMessage) {
	s.refreshInBackground()
}

func (s *Synchronizer) handleUsersUpdated(json.RawMessage) {
	s.refreshInBackground()
}

func (s *Synchronizer) refreshInBackground() {
	go func() {
		if err := s.RefreshDirectory(context.Background()); err != nil {
			s.log.Printf("failed to refresh directory: %s", err)
		}
	}()
}

// emitReadReceipts acknowledges every direct message in the active
// timeline that is addressed to the local user and not yet read by
// them. Each message is marked locally first so a receipt is sent at
// most once.
func (s *Synchronizer) emitReadReceipts() {
	s.mu.Lock()
	var acks []messageReadEvent
	for i := range s.timeline {
		m := &s.timeline[i]
		if m.Type == types.RoomDirect && m.RecipientId == s.selfId && !m.ReadByUser(s.selfId) {
			m.MarkRead(s.selfId)
			acks = append(acks, messageReadEvent{
				MessageId: m.Id,
				UserId:    s.selfId,
				RoomKey:   s.roomKey,
			})
		}
	}
	s.mu.Unlock()

	for _, ack := range acks {
		if err := s.tp.Send(transport.EventMessageRead, ack); err != nil {
			s.log.Printf("failed to send read receipt for %s: %s", ack.MessageId, err)
			continue
		}
		s.stats.Incr(stats.NumReadReceipts)
	}
}
