package mailer

import (
	"context"
	"sync"
)

// MemoryTransport records messages instead of sending them. Addresses listed in
// Failures fail with the mapped error.
type MemoryTransport struct {
	mu       sync.Mutex
	sent     []Message
	attempts []string
	Failures map[string]error
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{Failures: make(map[string]error)}
}

// FailFor makes every send to address return err.
func (m *MemoryTransport) FailFor(address string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures[address] = err
}

func (m *MemoryTransport) Send(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, msg.To)
	if err, ok := m.Failures[msg.To]; ok {
		return err
	}
	m.sent = append(m.sent, *msg)
	return nil
}

// Sent returns a copy of the delivered messages.
func (m *MemoryTransport) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// Attempts returns every address a send was attempted for, in order.
func (m *MemoryTransport) Attempts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.attempts...)
}
