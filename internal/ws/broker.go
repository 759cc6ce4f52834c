package ws

import (
	"context"
	"sync"
)

// Broker carries published topic events back to every subscribed process. The
// in-process implementation below is the default; RedisBroker swaps in for
// multi-process deployments without changing any component contract.
type Broker interface {
	// Publish delivers payload to every process subscribed to topic,
	// preserving per-topic publish order.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Start registers the delivery callback and begins receiving. Must be
	// called once before Publish.
	Start(deliver func(topic string, payload []byte)) error
	Close() error
}

// MemoryBroker loops published events straight back to the local deliver
// callback. Delivery is synchronous, so per-topic ordering follows publish
// order as long as publishers to one topic are themselves serialized (the
// room boundary guarantees that for room topics).
type MemoryBroker struct {
	mu      sync.RWMutex
	deliver func(topic string, payload []byte)
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{}
}

func (b *MemoryBroker) Start(deliver func(topic string, payload []byte)) error {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()
	return nil
}

func (b *MemoryBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	deliver := b.deliver
	b.mu.RUnlock()
	if deliver != nil {
		deliver(topic, payload)
	}
	return nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	b.deliver = nil
	b.mu.Unlock()
	return nil
}
