package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Hub keeps the per-process registry of which clients are subscribed to which
// topic and dispatches broker deliveries to them. Publishing always goes
// through the broker so every process (including this one) sees the event.
type Hub struct {
	broker Broker

	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
}

func NewHub(broker Broker) (*Hub, error) {
	h := &Hub{
		broker: broker,
		topics: make(map[string]map[*Client]struct{}),
	}
	if err := broker.Start(h.dispatch); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hub) Subscribe(topic string, c *Client) {
	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][c] = struct{}{}
	h.mu.Unlock()
	c.hub = h
	c.trackTopic(topic)
}

func (h *Hub) Unsubscribe(topic string, c *Client) {
	h.mu.Lock()
	if m := h.topics[topic]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()
	c.dropTopic(topic)
}

// SubscriberCount reports how many local clients listen on topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish marshals the event and hands it to the broker.
func (h *Hub) Publish(topic string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.broker.Publish(context.Background(), topic, data)
}

// dispatch delivers one broker event to every local subscriber of its topic.
// A subscriber whose send buffer is full loses this event instead of stalling
// delivery to the rest.
func (h *Hub) dispatch(topic string, payload []byte) {
	h.mu.RLock()
	m := h.topics[topic]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		if !c.trySend(payload) {
			log.Printf("ws: dropping event on %s for slow connection %s", topic, c.ConnID)
		}
	}
}
