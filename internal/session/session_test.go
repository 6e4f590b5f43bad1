package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/restclient"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/stats"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/testutil"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/transport"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSynchronizer(t *testing.T, selfId string) (*Synchronizer, *transport.MockTransport, *restclient.MockService, *stats.MockStatsUpdater) {
	t.Helper()

	tp := transport.NewMockTransport()
	svc := &restclient.MockService{}
	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything).Maybe()

	s := NewSynchronizer(tp, svc, su, selfId, testutil.TestLogger(t))
	detach := s.Attach()
	t.Cleanup(detach)

	return s, tp, svc, su
}

func TestSynchronizer_EnterRoomDirect(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	history := []types.Message{
		{Id: "m1", Type: types.RoomDirect, SenderId: "u2", RecipientId: "u1", Content: "hi"},
		{Id: "m2", Type: types.RoomDirect, SenderId: "u1", RecipientId: "u2", Content: "hello"},
	}
	svc.On("DirectMessages", mock.Anything, "u2").Return(history, nil)
	tp.Mock.On("JoinRoom", "u1-u2").Return(nil)
	tp.Mock.On("Send", transport.EventMessageRead, mock.Anything).Return(nil)

	err := s.EnterRoom(context.Background(), Room{Type: types.RoomDirect, UserId: "u2"})
	require.NoError(t, err)

	assert.Equal(t, RoomReady, s.State())
	assert.Equal(t, "u1-u2", s.ActiveRoomKey())
	assert.Len(t, s.Timeline(), 2)

	// Only m1 is addressed to the local user and unread.
	tp.Mock.AssertNumberOfCalls(t, "Send", 1)
	timeline := s.Timeline()
	assert.True(t, timeline[0].ReadByUser("u1"))
}

func TestSynchronizer_unreadCounting(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	svc.On("DirectMessages", mock.Anything, "u3").Return([]types.Message{}, nil)
	tp.Mock.On("JoinRoom", "u1-u3").Return(nil)

	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomDirect, UserId: "u3"}))

	// A direct message from u2 arrives while u3's room is active.
	tp.Emit(transport.EventMessageReceived, types.Message{
		Id: "m1", Type: types.RoomDirect, SenderId: "u2", RecipientId: "u1", Content: "hi",
	})

	assert.Equal(t, 1, s.Unread("u2"))
	assert.Empty(t, s.Timeline(), "message for another room must not join the active timeline")

	// Entering u2's room resets the counter.
	svc.On("DirectMessages", mock.Anything, "u2").Return([]types.Message{}, nil)
	tp.Mock.On("JoinRoom", "u1-u2").Return(nil)
	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomDirect, UserId: "u2"}))

	assert.Equal(t, 0, s.Unread("u2"))
}

func TestSynchronizer_noUnreadForActiveRoom(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	svc.On("DirectMessages", mock.Anything, "u2").Return([]types.Message{}, nil)
	tp.Mock.On("JoinRoom", "u1-u2").Return(nil)
	tp.Mock.On("Send", transport.EventMessageRead, mock.Anything).Return(nil)

	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomDirect, UserId: "u2"}))

	tp.Emit(transport.EventMessageReceived, types.Message{
		Id: "m1", Type: types.RoomDirect, SenderId: "u2", RecipientId: "u1", Content: "hi",
	})

	assert.Equal(t, 0, s.Unread("u2"))
	assert.Len(t, s.Timeline(), 1)
}

func TestSynchronizer_channelMessages(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	svc.On("ChannelMessages", mock.Anything, "c1").Return([]types.Message{
		{Id: "m1", Type: types.RoomChannel, ChannelId: "c1", SenderId: "u2", Content: "welcome"},
	}, nil)
	tp.Mock.On("JoinRoom", "c1").Return(nil)

	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomChannel, ChannelId: "c1"}))

	tp.Emit(transport.EventMessageReceived, types.Message{
		Id: "m2", Type: types.RoomChannel, ChannelId: "c1", SenderId: "u3", Content: "hi all",
	})
	tp.Emit(transport.EventMessageReceived, types.Message{
		Id: "m3", Type: types.RoomChannel, ChannelId: "c2", SenderId: "u3", Content: "elsewhere",
	})

	timeline := s.Timeline()
	require.Len(t, timeline, 2)
	assert.Equal(t, "m2", timeline[1].Id)
}

func TestSynchronizer_replaceById(t *testing.T) {
	tcases := []struct {
		name  string
		event string
	}{
		{name: "edited", event: transport.EventMessageEdited},
		{name: "deleted", event: transport.EventMessageDeleted},
		{name: "reaction", event: transport.EventMessageReaction},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			s, tp, svc, _ := newTestSynchronizer(t, "u1")

			svc.On("ChannelMessages", mock.Anything, "c1").Return([]types.Message{
				{Id: "m1", Type: types.RoomChannel, ChannelId: "c1", SenderId: "u2", Content: "original"},
			}, nil)
			tp.Mock.On("JoinRoom", "c1").Return(nil)
			require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomChannel, ChannelId: "c1"}))

			tp.Emit(tc.event, types.Message{
				Id: "m1", Type: types.RoomChannel, ChannelId: "c1", SenderId: "u2",
				Content: "updated", IsEdited: true,
			})

			timeline := s.Timeline()
			require.Len(t, timeline, 1)
			assert.Equal(t, "updated", timeline[0].Content)

			// An update for an unknown id leaves the timeline untouched.
			tp.Emit(tc.event, types.Message{Id: "missing", Content: "ghost"})

			timeline = s.Timeline()
			require.Len(t, timeline, 1)
			assert.Equal(t, "updated", timeline[0].Content)
		})
	}
}

func TestSynchronizer_readReceiptUnion(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	svc.On("DirectMessages", mock.Anything, "u2").Return([]types.Message{
		{Id: "m1", Type: types.RoomDirect, SenderId: "u1", RecipientId: "u2", Content: "hey"},
	}, nil)
	tp.Mock.On("JoinRoom", "u1-u2").Return(nil)
	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomDirect, UserId: "u2"}))

	for i := 0; i < 2; i++ {
		tp.Emit(transport.EventMessageReadUpdate, messageReadEvent{
			MessageId: "m1", UserId: "u2", RoomKey: "u1-u2",
		})
	}

	timeline := s.Timeline()
	require.Len(t, timeline, 1)
	assert.Equal(t, []string{"u2"}, timeline[0].ReadBy)
	assert.Equal(t, TickDoubleDark, TickState(&timeline[0]))
}

func TestSynchronizer_staleFetchDiscarded(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	release := make(chan time.Time)
	svc.On("DirectMessages", mock.Anything, "u2").WaitUntil(release).Return([]types.Message{
		{Id: "old", Type: types.RoomDirect, SenderId: "u2", RecipientId: "u1", Content: "stale"},
	}, nil)
	svc.On("DirectMessages", mock.Anything, "u3").Return([]types.Message{
		{Id: "new", Type: types.RoomDirect, SenderId: "u3", RecipientId: "u1", Content: "fresh"},
	}, nil)
	tp.Mock.On("JoinRoom", mock.Anything).Return(nil)
	tp.Mock.On("Send", transport.EventMessageRead, mock.Anything).Return(nil)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.EnterRoom(context.Background(), Room{Type: types.RoomDirect, UserId: "u2"})
	}()

	// Switch rooms while the first fetch is still in flight, then let
	// the stale fetch resolve.
	require.Eventually(t, func() bool {
		return s.ActiveRoomKey() == "u1-u2"
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomDirect, UserId: "u3"}))
	close(release)
	require.NoError(t, <-firstDone)

	timeline := s.Timeline()
	require.Len(t, timeline, 1)
	assert.Equal(t, "new", timeline[0].Id)
	assert.Equal(t, "u1-u3", s.ActiveRoomKey())
}

func TestSynchronizer_sendMessage(t *testing.T) {
	s, tp, svc, su := newTestSynchronizer(t, "u1")

	svc.On("DirectMessages", mock.Anything, "u2").Return([]types.Message{}, nil)
	tp.Mock.On("JoinRoom", "u1-u2").Return(nil)
	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomDirect, UserId: "u2"}))

	var sent chatMessageEvent
	tp.Mock.On("Send", transport.EventChatMessage, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(chatMessageEvent)
	}).Return(nil)

	require.NoError(t, s.SendMessage("hello", types.MessageText, ""))

	assert.Equal(t, types.RoomDirect, sent.Type)
	assert.Equal(t, "u1", sent.SenderId)
	assert.Equal(t, "u2", sent.RecipientId)
	assert.Equal(t, "hello", sent.Content)
	assert.Empty(t, s.Timeline(), "sent message joins the timeline only via the relay echo")
	su.AssertCalled(t, "Incr", stats.NumMessagesSent)
}

func TestSynchronizer_sendImage(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	svc.On("DirectMessages", mock.Anything, "u2").Return([]types.Message{}, nil)
	tp.Mock.On("JoinRoom", "u1-u2").Return(nil)
	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomDirect, UserId: "u2"}))

	svc.On("UploadImage", mock.Anything, "pic.png", mock.Anything).Return(restclient.ImageUpload{
		ImageURL: "https://cdn.example.com/pic.png",
	}, nil)

	var sent chatMessageEvent
	tp.Mock.On("Send", transport.EventChatMessage, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(chatMessageEvent)
	}).Return(nil)

	require.NoError(t, s.SendImage(context.Background(), "pic.png", strings.NewReader("png")))

	assert.Equal(t, types.MessageImage, sent.MessageKind)
	assert.Equal(t, "https://cdn.example.com/pic.png", sent.Attachment)
}

func TestSynchronizer_editMessage(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	svc.On("ChannelMessages", mock.Anything, "c1").Return([]types.Message{
		{Id: "m1", Type: types.RoomChannel, ChannelId: "c1", SenderId: "u1", Content: "typo"},
	}, nil)
	tp.Mock.On("JoinRoom", "c1").Return(nil)
	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomChannel, ChannelId: "c1"}))

	updated := types.Message{Id: "m1", Type: types.RoomChannel, ChannelId: "c1", SenderId: "u1", Content: "fixed", IsEdited: true}
	svc.On("EditMessage", mock.Anything, "m1", "fixed").Return(updated, nil)
	tp.Mock.On("Send", transport.EventEditMessage, updated).Return(nil)

	require.NoError(t, s.EditMessage(context.Background(), "m1", "fixed"))

	timeline := s.Timeline()
	require.Len(t, timeline, 1)
	assert.Equal(t, "fixed", timeline[0].Content)
	tp.Mock.AssertExpectations(t)
}

func TestSynchronizer_refreshDirectory(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	svc.On("Channels", mock.Anything).Return([]types.Channel{{Id: "c1", Name: "general"}}, nil)
	svc.On("Users", mock.Anything).Return([]types.User{{Id: "u2", Username: "bob"}}, nil)

	tp.Emit(transport.EventChannelsUpdated, struct{}{})

	assert.Eventually(t, func() bool {
		return len(s.Channels()) == 1 && len(s.Users()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSynchronizer_fetchFailureDegrades(t *testing.T) {
	s, tp, svc, _ := newTestSynchronizer(t, "u1")

	svc.On("ChannelMessages", mock.Anything, "c1").Return([]types.Message(nil), &restclient.APIError{
		StatusCode: 500, Message: "boom",
	})
	tp.Mock.On("JoinRoom", "c1").Return(nil)

	require.NoError(t, s.EnterRoom(context.Background(), Room{Type: types.RoomChannel, ChannelId: "c1"}))

	assert.Equal(t, RoomReady, s.State())
	assert.Empty(t, s.Timeline())
}

func TestTickState(t *testing.T) {
	tcases := []struct {
		name     string
		msg      types.Message
		expected Tick
	}{
		{
			name:     "not delivered",
			msg:      types.Message{RecipientId: "u2"},
			expected: TickSingle,
		},
		{
			name:     "delivered",
			msg:      types.Message{RecipientId: "u2", DeliveredTo: []string{"u2"}},
			expected: TickDouble,
		},
		{
			name:     "read",
			msg:      types.Message{RecipientId: "u2", DeliveredTo: []string{"u2"}, ReadBy: []string{"u2"}},
			expected: TickDoubleDark,
		},
		{
			name:     "read by someone else",
			msg:      types.Message{RecipientId: "u2", DeliveredTo: []string{"u2"}, ReadBy: []string{"u3"}},
			expected: TickDouble,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, TickState(&tc.msg))
		})
	}
}
