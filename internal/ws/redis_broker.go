package ws

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces stafflink topics inside the Redis instance.
const channelPrefix = "stafflink:"

// RedisBroker fans events out through Redis Pub/Sub so several server
// processes share one set of topics. Redis preserves per-channel publish
// order, which keeps the per-room ordering guarantee intact across processes.
type RedisBroker struct {
	client *redis.Client
	pubsub *redis.PubSub
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBroker{client: client, ctx: ctx, cancel: cancel}
}

func (b *RedisBroker) Start(deliver func(topic string, payload []byte)) error {
	b.pubsub = b.client.PSubscribe(b.ctx, channelPrefix+"*")
	// Force the subscription before Publish can race ahead of it.
	if _, err := b.pubsub.Receive(b.ctx); err != nil {
		return err
	}
	ch := b.pubsub.Channel()
	go func() {
		for msg := range ch {
			topic := msg.Channel[len(channelPrefix):]
			deliver(topic, []byte(msg.Payload))
		}
	}()
	return nil
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, channelPrefix+topic, payload).Err(); err != nil {
		log.Printf("redis publish %s: %v", topic, err)
		return err
	}
	return nil
}

func (b *RedisBroker) Close() error {
	b.cancel()
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}
