package call

import (
	"errors"
	"log"
	"sync"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/transport"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
	"github.com/pion/webrtc/v4"
)

var errNoPeerConnection = errors.New("call: no live peer connection")

// ErrMediaUnavailable is returned when no camera or microphone could be
// opened for a call.
var ErrMediaUnavailable = errors.New("call: no usable media device")

// peerConn is the slice of *webrtc.PeerConnection the session drives.
type peerConn interface {
	OnTrack(func(*webrtc.TrackRemote, *webrtc.RTPReceiver))
	OnICECandidate(func(*webrtc.ICECandidate))
	CreateOffer(*webrtc.OfferOptions) (webrtc.SessionDescription, error)
	CreateAnswer(*webrtc.AnswerOptions) (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	RemoteDescription() *webrtc.SessionDescription
	AddICECandidate(webrtc.ICECandidateInit) error
	Close() error
}

// mediaFactory acquires local capture and returns the configured peer
// connection plus a release function for the captured tracks.
type mediaFactory func(kind types.CallKind, stunServers []string, logger *log.Logger) (peerConn, func(), error)

// Session is one call from media acquisition to teardown. It exclusively
// owns its peer connection and local media; all transitions go through
// the session's mutex because signaling events interleave with the
// asynchronous negotiation steps.
type Session struct {
	roomKey string
	peerId  string
	role    Role
	kind    types.CallKind
	tp      transport.Transport
	log     *log.Logger
	selfId  string

	onPhase func(Phase)

	mu         sync.Mutex
	phase      Phase
	pc         peerConn
	closeMedia func()
	pending    []webrtc.ICECandidateInit
	hungUp     bool
}

// Start acquires local media, configures the peer connection and joins
// the call's signaling room. The caller side additionally produces and
// relays the SDP offer.
func (s *Session) Start(newMedia mediaFactory, stunServers []string) error {
	s.setPhase(PhaseAcquiringMedia)

	pc, closeMedia, err := newMedia(s.kind, stunServers, s.log)
	if err != nil {
		if closeMedia != nil {
			closeMedia()
		}
		s.fail()
		return err
	}

	s.mu.Lock()
	if s.hungUp {
		// Hangup raced the media acquisition.
		s.mu.Unlock()
		if closeMedia != nil {
			closeMedia()
		}
		pc.Close()
		return nil
	}
	s.pc = pc
	s.closeMedia = closeMedia
	s.mu.Unlock()

	pc.OnTrack(func(*webrtc.TrackRemote, *webrtc.RTPReceiver) {
		s.setPhase(PhaseActive)
	})
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		init := c.ToJSON()
		s.sendSignal(signal{Candidate: &init})
	})

	if err := s.tp.JoinCallRoom(s.roomKey); err != nil {
		s.teardown(false)
		return err
	}
	s.setPhase(PhaseConnecting)

	if s.role == RoleCaller {
		return s.sendOffer()
	}

	return nil
}

func (s *Session) sendOffer() error {
	s.mu.Lock()
	pc := s.pc
	s.mu.Unlock()
	if pc == nil {
		return errNoPeerConnection
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		s.fail()
		return err
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		s.fail()
		return err
	}

	s.sendSignal(signal{SDP: &offer})

	return nil
}

// handleSignal applies one inbound signaling message. Messages arriving
// after teardown are ignored.
func (s *Session) handleSignal(sig signal) {
	if sig.Hangup {
		s.teardown(false)
		return
	}

	s.mu.Lock()
	pc := s.pc
	s.mu.Unlock()
	if pc == nil {
		return
	}

	switch {
	case sig.SDP != nil:
		s.handleDescription(pc, *sig.SDP)
	case sig.Candidate != nil:
		s.handleCandidate(pc, *sig.Candidate)
	}
}

func (s *Session) handleDescription(pc peerConn, desc webrtc.SessionDescription) {
	if err := pc.SetRemoteDescription(desc); err != nil {
		s.log.Printf("call %s: failed to set remote description: %s", s.roomKey, err)
		s.fail()
		return
	}

	// Candidates queued before the remote description are applied now,
	// in arrival order.
	s.mu.Lock()
	queued := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, c := range queued {
		if err := pc.AddICECandidate(c); err != nil {
			s.log.Printf("call %s: failed to add queued candidate: %s", s.roomKey, err)
		}
	}

	if desc.Type == webrtc.SDPTypeOffer && s.role == RoleCallee {
		answer, err := pc.CreateAnswer(nil)
		if err != nil {
			s.log.Printf("call %s: failed to create answer: %s", s.roomKey, err)
			s.fail()
			return
		}
		if err := pc.SetLocalDescription(answer); err != nil {
			s.log.Printf("call %s: failed to set local description: %s", s.roomKey, err)
			s.fail()
			return
		}
		s.sendSignal(signal{SDP: &answer})
	}
}

func (s *Session) handleCandidate(pc peerConn, c webrtc.ICECandidateInit) {
	if pc.RemoteDescription() == nil {
		s.mu.Lock()
		s.pending = append(s.pending, c)
		s.mu.Unlock()
		return
	}

	// Redelivered candidates are tolerated, a failed add never aborts
	// the call.
	if err := pc.AddICECandidate(c); err != nil {
		s.log.Printf("call %s: failed to add candidate: %s", s.roomKey, err)
	}
}

// Hangup tears the session down and notifies the peer. Safe to call
// repeatedly and on sessions that never finished connecting.
func (s *Session) Hangup() {
	s.teardown(true)
}

// Phase reports the session's current lifecycle position.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phase
}

// RoomKey returns the call's signaling room key.
func (s *Session) RoomKey() string {
	return s.roomKey
}

func (s *Session) teardown(notifyPeer bool) {
	s.mu.Lock()
	if s.hungUp {
		s.mu.Unlock()
		return
	}
	s.hungUp = true
	pc := s.pc
	closeMedia := s.closeMedia
	s.pc = nil
	s.closeMedia = nil
	s.pending = nil
	s.mu.Unlock()

	if closeMedia != nil {
		closeMedia()
	}
	if pc != nil {
		if err := pc.Close(); err != nil {
			s.log.Printf("call %s: failed to close peer connection: %s", s.roomKey, err)
		}
	}

	if notifyPeer {
		s.sendSignal(signal{Hangup: true})
	}

	s.setPhase(PhaseEnded)
	s.log.Printf("call %s with %s ended", s.roomKey, s.peerId)
}

func (s *Session) fail() {
	s.mu.Lock()
	alreadyDown := s.hungUp
	s.mu.Unlock()
	if alreadyDown {
		return
	}

	s.teardown(false)
	s.forcePhase(PhaseError)
}

func (s *Session) sendSignal(sig signal) {
	ev := signalEvent{RoomKey: s.roomKey, From: s.selfId, Signal: sig}
	if err := s.tp.Send(transport.EventVideoSignal, ev); err != nil {
		s.log.Printf("call %s: failed to send signal: %s", s.roomKey, err)
	}
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	if s.phase == PhaseEnded || s.phase == PhaseError {
		s.mu.Unlock()
		return
	}
	s.phase = p
	s.mu.Unlock()

	if s.onPhase != nil {
		s.onPhase(p)
	}
}

// forcePhase forces the phase even out of a terminal state. Only
// used to convert ended into error after a failed negotiation step.
func (s *Session) forcePhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()

	if s.onPhase != nil {
		s.onPhase(p)
	}
}
