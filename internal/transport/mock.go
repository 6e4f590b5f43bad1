package transport

import (
	"encoding/json"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockTransport implements Transport for tests. Send, JoinRoom and
// JoinCallRoom are testify expectations (set them up via the embedded
// Mock.On, since the Transport interface's On shadows it); On registers
// real handlers that tests drive with Emit, mirroring inbound relay
// delivery.
type MockTransport struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[string][]Handler
}

func NewMockTransport() *MockTransport {
	return &MockTransport{handlers: make(map[string][]Handler)}
}

func (m *MockTransport) Send(event string, v any) error {
	args := m.Called(event, v)
	return args.Error(0)
}

func (m *MockTransport) JoinRoom(roomKey string) error {
	args := m.Called(roomKey)
	return args.Error(0)
}

func (m *MockTransport) JoinCallRoom(roomKey string) error {
	args := m.Called(roomKey)
	return args.Error(0)
}

func (m *MockTransport) On(event string, h Handler) func() {
	m.mu.Lock()
	m.handlers[event] = append(m.handlers[event], h)
	idx := len(m.handlers[event]) - 1
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		regs := m.handlers[event]
		if idx < len(regs) {
			m.handlers[event] = append(regs[:idx], regs[idx+1:]...)
		}
	}
}

// Emit marshals v and delivers it synchronously to every handler registered
// for event, the way the read pump would.
func (m *MockTransport) Emit(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic("mock transport: marshal payload: " + err.Error())
	}

	m.mu.Lock()
	regs := make([]Handler, len(m.handlers[event]))
	copy(regs, m.handlers[event])
	m.mu.Unlock()

	for _, h := range regs {
		h(data)
	}
}
