package publish

import (
	"context"
	"sync"
)

// Message is one record captured by the MemoryPublisher.
type Message struct {
	Topic   string
	Payload []byte
	Opts    Options
}

// MemoryPublisher is an in-memory Publisher for tests: it records every
// publish and can be told to fail specific topics.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
	failWith map[string]error
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{failWith: make(map[string]error)}
}

// FailWith makes future publishes to topic return err.
func (m *MemoryPublisher) FailWith(topic string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith[topic] = err
}

// Publish records the message, or fails if the topic was marked.
func (m *MemoryPublisher) Publish(_ context.Context, topic string, payload []byte, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWith[topic]; err != nil {
		return err
	}
	// Copy the payload: callers may reuse their buffers.
	p := append([]byte(nil), payload...)
	m.messages = append(m.messages, Message{Topic: topic, Payload: p, Opts: opts})
	return nil
}

// Close is a no-op.
func (m *MemoryPublisher) Close() {}

// Messages returns a copy of everything published so far.
func (m *MemoryPublisher) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// MessagesTo returns the messages published to one topic, in order.
func (m *MemoryPublisher) MessagesTo(topic string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.messages {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}
