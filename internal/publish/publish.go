// Package publish abstracts the message bus the simulator emits into. The
// core only sees the Publisher interface plus the class-to-topic mapping
// table; the MQTT specifics stay in here.
package publish

import "context"

// Options are the delivery options for a single publish.
type Options struct {
	// QoS is the MQTT delivery guarantee: 0 at-most-once, 1 at-least-once,
	// 2 exactly-once.
	QoS byte
	// Retain asks the broker to hand the message to late subscribers.
	Retain bool
}

// Publisher is an abstract sink accepting (topic, payload, options).
// Implementations must be bounded-time: a Publish call may fail but must
// not block indefinitely.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, opts Options) error
	// Close releases the underlying connection.
	Close()
}

// ConnectionEvents is invoked by transports on connection state changes, so
// the host can log or react without the transport owning any policy.
type ConnectionEvents interface {
	OnConnected()
	OnDisconnected(err error)
}

// NoopEvents is a ConnectionEvents that ignores everything.
type NoopEvents struct{}

func (NoopEvents) OnConnected()           {}
func (NoopEvents) OnDisconnected(_ error) {}
