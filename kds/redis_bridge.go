package kds

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/table-order-app/utils"
)

// RedisBridge shares events between server instances. As a Sink it publishes
// locally raised events; Listen feeds events from other instances back into
// the local hub, which reloads its own snapshot for them.
type RedisBridge struct {
	client     *redis.Client
	channel    string
	instanceID string
}

func NewRedisBridge(client *redis.Client, channel, instanceID string) *RedisBridge {
	return &RedisBridge{client: client, channel: channel, instanceID: instanceID}
}

func (b *RedisBridge) Name() string { return "redis" }

func (b *RedisBridge) Deliver(ctx context.Context, msg Message) error {
	if msg.Event.Source != "" {
		return nil
	}
	ev := msg.Event
	ev.Source = b.instanceID
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Listen blocks until ctx is done.
func (b *RedisBridge) Listen(ctx context.Context, hub *Hub) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	utils.InfoLogger.WithField("channel", b.channel).Info("Redis KDS bridge subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				utils.ErrorLogger.Printf("Error decoding bridged event: %v", err)
				continue
			}
			if ev.Source == "" || ev.Source == b.instanceID {
				continue
			}
			hub.Publish(ev)
		}
	}
}
