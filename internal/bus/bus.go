// Package bus provides the message-bus interface the engine publishes
// dispatch events on. The Broadcaster and state machine depend on the
// interface only; Kafka and an in-process implementation are provided.
package bus

import "context"

// Well-known topic names.
const (
	TopicOfferCreated  = "offer.created"
	TopicOfferAccepted = "offer.accepted"
	TopicOfferResponse = "offer.response"
	TopicTripStatus    = "trip.status_changed"
	TopicLocation      = "location.updated"
)

// Bus publishes and subscribes JSON-encoded events.
type Bus interface {
	// Publish sends a JSON-serialised message to a topic.
	Publish(ctx context.Context, topic, key string, value any) error

	// Subscribe registers a handler for a topic. Delivery starts in the
	// background and stops when ctx is cancelled.
	Subscribe(ctx context.Context, topic, group string, handler func([]byte) error)
}
