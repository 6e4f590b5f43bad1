package session

import "github.com/ArjunBhandari2511/chatapp-frontend/internal/types"

// Tick is the delivery indicator shown next to a sent direct message.
type Tick int

const (
	// TickSingle means the message was sent but not yet delivered.
	TickSingle Tick = iota
	// TickDouble means the recipient's client received the message.
	TickDouble
	// TickDoubleDark means the recipient read the message.
	TickDoubleDark
)

func (t Tick) String() string {
	switch t {
	case TickDouble:
		return "double"
	case TickDoubleDark:
		return "double-dark"
	default:
		return "single"
	}
}

// TickState derives the delivery indicator for a direct message from
// its receipt sets alone.
func TickState(m *types.Message) Tick {
	if m.ReadByUser(m.RecipientId) {
		return TickDoubleDark
	}
	if m.DeliveredToUser(m.RecipientId) {
		return TickDouble
	}

	return TickSingle
}
