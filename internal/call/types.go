// Package call drives peer-to-peer audio and video calls: invitation
// exchange, SDP offer/answer negotiation, ICE candidate relay and media
// capture. Signaling rides the same transport as chat traffic; media
// flows directly between peers once ICE completes.
package call

import (
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
	"github.com/pion/webrtc/v4"
)

// Phase is the lifecycle position of a call session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAcquiringMedia
	PhaseConnecting
	PhaseActive
	PhaseEnded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseAcquiringMedia:
		return "acquiring-media"
	case PhaseConnecting:
		return "connecting"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// Role fixes which side answers offers. Only the callee ever produces an
// answer, which rules out a dual-offer glare condition.
type Role int

const (
	RoleCaller Role = iota
	RoleCallee
)

func (r Role) String() string {
	if r == RoleCallee {
		return "callee"
	}

	return "caller"
}

// Invite is the call-request payload exchanged before any SDP flows.
type Invite struct {
	RoomKey    string         `json:"roomKey"`
	CallerId   string         `json:"callerId"`
	CallerName string         `json:"callerName"`
	CalleeId   string         `json:"calleeId"`
	Kind       types.CallKind `json:"callType"`
}

// inviteResponse answers an Invite, addressed back to the caller.
type inviteResponse struct {
	RoomKey  string `json:"roomKey"`
	UserId   string `json:"userId"`
	CallerId string `json:"callerId"`
}

// signal is the union payload carried by video-signal events. Exactly one
// field is set per message.
type signal struct {
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	Hangup    bool                       `json:"hangup,omitempty"`
}

// signalEvent wraps a signal with its room key for relay routing.
type signalEvent struct {
	RoomKey string `json:"roomKey"`
	From    string `json:"from,omitempty"`
	Signal  signal `json:"signal"`
}
