package bus

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Memory is an in-process Bus used in tests and when no brokers are
// configured. Delivery is synchronous with Publish; handlers must not
// publish back to the same topic.
type Memory struct {
	mu       sync.RWMutex
	handlers map[string][]func([]byte) error
}

// NewMemory creates an in-process bus.
func NewMemory() *Memory {
	return &Memory{handlers: make(map[string][]func([]byte) error)}
}

// Publish serialises the value and delivers it to every subscriber of the
// topic.
func (m *Memory) Publish(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.RLock()
	handlers := append([]func([]byte) error(nil), m.handlers[topic]...)
	m.mu.RUnlock()

	for _, h := range handlers {
		if err := h(data); err != nil {
			log.Printf("[bus] handler error on %s: %v", topic, err)
		}
	}

	return nil
}

// Subscribe registers a handler for a topic. The group is ignored; every
// subscriber receives every message.
func (m *Memory) Subscribe(ctx context.Context, topic, group string, handler func([]byte) error) {
	m.mu.Lock()
	m.handlers[topic] = append(m.handlers[topic], handler)
	m.mu.Unlock()
}

var _ Bus = (*Memory)(nil)
