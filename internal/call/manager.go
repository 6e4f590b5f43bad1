package call

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/stats"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/transport"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
)

var (
	ErrCallInProgress  = errors.New("call: another call is in progress")
	ErrInvitePending   = errors.New("call: an invitation is already pending")
	ErrNoPendingInvite = errors.New("call: no pending invitation")
)

// Manager owns at most one pending invitation and at most one live
// session. Invites arriving while a call is active are ignored; there is
// no call waiting.
type Manager struct {
	tp          transport.Transport
	stats       stats.StatsProvider
	log         *log.Logger
	selfId      string
	selfName    string
	stunServers []string
	newMedia    mediaFactory

	onIncoming func(Invite)
	onRejected func(roomKey string)
	onPhase    func(Phase)

	mu      sync.Mutex
	pending *Invite
	session *Session
}

func NewManager(tp transport.Transport, su stats.StatsProvider, selfId, selfName string, stunServers []string, logger *log.Logger) *Manager {
	return &Manager{
		tp:          tp,
		stats:       su,
		log:         logger,
		selfId:      selfId,
		selfName:    selfName,
		stunServers: stunServers,
		newMedia:    newMediaConn,
	}
}

// OnIncoming registers the callback fired when an invitation arrives
// while no call is pending or active.
func (m *Manager) OnIncoming(fn func(Invite)) {
	m.onIncoming = fn
}

// OnRejected registers the callback fired when the local user's
// outgoing invitation is rejected.
func (m *Manager) OnRejected(fn func(roomKey string)) {
	m.onRejected = fn
}

// OnPhase registers the callback fired on every session phase change.
func (m *Manager) OnPhase(fn func(Phase)) {
	m.onPhase = fn
}

// Attach subscribes the manager to the transport's call events. The
// returned function removes the subscriptions.
func (m *Manager) Attach() func() {
	unsubs := []func(){
		m.tp.On(transport.EventIncomingCall, m.handleIncomingCall),
		m.tp.On(transport.EventCallAccepted, m.handleCallAccepted),
		m.tp.On(transport.EventCallRejected, m.handleCallRejected),
		m.tp.On(transport.EventVideoSignal, m.handleVideoSignal),
		m.tp.On(transport.EventPeerLeft, m.handlePeerLeft),
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Call invites calleeId to a call of the given kind and records the
// invitation as pending until the callee answers.
func (m *Manager) Call(calleeId string, kind types.CallKind) error {
	roomKey := types.DirectRoomKey(m.selfId, calleeId)
	invite := Invite{
		RoomKey:    roomKey,
		CallerId:   m.selfId,
		CallerName: m.selfName,
		CalleeId:   calleeId,
		Kind:       kind,
	}

	m.mu.Lock()
	if m.session != nil {
		m.mu.Unlock()
		return ErrCallInProgress
	}
	if m.pending != nil {
		m.mu.Unlock()
		return ErrInvitePending
	}
	m.pending = &invite
	m.mu.Unlock()

	if err := m.tp.Send(transport.EventCallUser, invite); err != nil {
		m.mu.Lock()
		m.pending = nil
		m.mu.Unlock()
		return err
	}
	m.log.Printf("calling %s (%s)", calleeId, kind)

	return nil
}

// Accept answers the pending incoming invitation and starts the session
// as callee.
func (m *Manager) Accept() error {
	m.mu.Lock()
	invite := m.pending
	if invite == nil || invite.CallerId == m.selfId {
		m.mu.Unlock()
		return ErrNoPendingInvite
	}
	m.pending = nil
	m.mu.Unlock()

	resp := inviteResponse{
		RoomKey:  invite.RoomKey,
		UserId:   m.selfId,
		CallerId: invite.CallerId,
	}
	if err := m.tp.Send(transport.EventCallAccepted, resp); err != nil {
		return err
	}

	return m.startSession(invite.RoomKey, invite.CallerId, RoleCallee, invite.Kind)
}

// Reject declines the pending incoming invitation.
func (m *Manager) Reject() error {
	m.mu.Lock()
	invite := m.pending
	if invite == nil || invite.CallerId == m.selfId {
		m.mu.Unlock()
		return ErrNoPendingInvite
	}
	m.pending = nil
	m.mu.Unlock()

	resp := inviteResponse{
		RoomKey:  invite.RoomKey,
		UserId:   m.selfId,
		CallerId: invite.CallerId,
	}

	return m.tp.Send(transport.EventCallRejected, resp)
}

// Cancel discards the local outgoing invitation. No wire event is sent,
// a late acceptance is ignored because the pending record is gone.
func (m *Manager) Cancel() {
	m.mu.Lock()
	if m.pending != nil && m.pending.CallerId == m.selfId {
		m.pending = nil
	}
	m.mu.Unlock()
}

// Hangup ends the live session, if any.
func (m *Manager) Hangup() {
	m.mu.Lock()
	session := m.session
	m.mu.Unlock()

	if session != nil {
		session.Hangup()
	}
}

// Session returns the live session, if any.
func (m *Manager) Session() (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session, m.session != nil
}

// Close hangs up any live session and clears pending state.
func (m *Manager) Close() {
	m.mu.Lock()
	m.pending = nil
	session := m.session
	m.mu.Unlock()

	if session != nil {
		session.Hangup()
	}
}

func (m *Manager) startSession(roomKey, peerId string, role Role, kind types.CallKind) error {
	session := &Session{
		roomKey: roomKey,
		peerId:  peerId,
		role:    role,
		kind:    kind,
		tp:      m.tp,
		log:     m.log,
		selfId:  m.selfId,
	}
	session.onPhase = func(p Phase) {
		m.sessionPhaseChanged(session, p)
	}

	m.mu.Lock()
	if m.session != nil {
		m.mu.Unlock()
		return ErrCallInProgress
	}
	m.session = session
	m.mu.Unlock()

	m.stats.Incr(stats.NumActiveCalls)

	if err := session.Start(m.newMedia, m.stunServers); err != nil {
		m.stats.Incr(stats.NumCallsFailed)
		return err
	}

	return nil
}

func (m *Manager) sessionPhaseChanged(session *Session, p Phase) {
	if p == PhaseEnded || p == PhaseError {
		m.mu.Lock()
		if m.session == session {
			m.session = nil
			m.stats.Decr(stats.NumActiveCalls)
		}
		m.mu.Unlock()
	}

	if m.onPhase != nil {
		m.onPhase(p)
	}
}

func (m *Manager) handleIncomingCall(data json.RawMessage) {
	var invite Invite
	if err := json.Unmarshal(data, &invite); err != nil {
		m.log.Printf("failed to parse call invite: %s", err)
		return
	}

	m.mu.Lock()
	if m.session != nil || m.pending != nil {
		m.mu.Unlock()
		m.log.Printf("ignoring call invite from %s, busy", invite.CallerId)
		return
	}
	m.pending = &invite
	m.mu.Unlock()

	if m.onIncoming != nil {
		m.onIncoming(invite)
	}
}

func (m *Manager) handleCallAccepted(data json.RawMessage) {
	var resp inviteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		m.log.Printf("failed to parse call acceptance: %s", err)
		return
	}

	m.mu.Lock()
	invite := m.pending
	if invite == nil || invite.CallerId != m.selfId || invite.RoomKey != resp.RoomKey {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	m.mu.Unlock()

	if err := m.startSession(invite.RoomKey, invite.CalleeId, RoleCaller, invite.Kind); err != nil {
		m.log.Printf("failed to start call %s: %s", invite.RoomKey, err)
	}
}

func (m *Manager) handleCallRejected(data json.RawMessage) {
	var resp inviteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		m.log.Printf("failed to parse call rejection: %s", err)
		return
	}

	m.mu.Lock()
	invite := m.pending
	if invite == nil || invite.CallerId != m.selfId || invite.RoomKey != resp.RoomKey {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	m.mu.Unlock()

	m.log.Printf("call %s rejected by %s", resp.RoomKey, resp.UserId)
	if m.onRejected != nil {
		m.onRejected(resp.RoomKey)
	}
}

func (m *Manager) handleVideoSignal(data json.RawMessage) {
	var ev signalEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		m.log.Printf("failed to parse call signal: %s", err)
		return
	}
	if ev.From == m.selfId {
		return
	}

	m.mu.Lock()
	session := m.session
	m.mu.Unlock()
	if session == nil || session.RoomKey() != ev.RoomKey {
		return
	}

	session.handleSignal(ev.Signal)
}

// handlePeerLeft tears the session down without relaying a hangup, the
// peer is already gone.
func (m *Manager) handlePeerLeft(data json.RawMessage) {
	var ev struct {
		RoomKey string `json:"roomKey"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		m.log.Printf("failed to parse peer-left event: %s", err)
		return
	}

	m.mu.Lock()
	session := m.session
	m.mu.Unlock()
	if session == nil || (ev.RoomKey != "" && session.RoomKey() != ev.RoomKey) {
		return
	}

	session.teardown(false)
}
