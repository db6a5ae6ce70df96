// Package bus implements the MessageBus protocol (spec §6): publish/
// subscribe with at-least-once delivery, used optionally to bridge flows
// to remote workers.
package bus

import "context"

// Handler processes a single delivered message. De-duplication (via
// trace_id + action_seq, per spec §6) is the handler's responsibility —
// the bus guarantees at-least-once, not exactly-once, delivery.
type Handler func(ctx context.Context, message []byte) error

// Bus implements the MessageBus protocol: publish(topic, message) /
// subscribe(topic, handler) with at-least-once delivery.
type Bus interface {
	Publish(ctx context.Context, topic string, message []byte) error
	Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error)
}

// Subscription lets a caller stop receiving messages on the topic it was
// returned from.
type Subscription interface {
	Unsubscribe() error
}
