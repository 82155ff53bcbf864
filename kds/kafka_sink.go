package kds

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// OrderEventRecord is the Kafka value for one change event.
type OrderEventRecord struct {
	Seq         uint64    `json:"seq"`
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id,omitempty"`
	TableID     string    `json:"table_id,omitempty"`
	ActiveCount int       `json:"active_orders"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// KafkaSink appends locally raised events to a topic. Messages are keyed by
// table so one table's events stay on one partition.
type KafkaSink struct {
	w *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Close() error { return k.w.Close() }

func (k *KafkaSink) Deliver(ctx context.Context, msg Message) error {
	if msg.Event.Source != "" {
		return nil
	}
	return k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(recordKey(msg.Event)),
		Value: encodeRecord(msg),
	})
}

func recordKey(ev Event) string {
	if ev.TableID != "" {
		return ev.TableID
	}
	return ev.OrderID
}

func encodeRecord(msg Message) []byte {
	b, _ := json.Marshal(OrderEventRecord{
		Seq:         msg.Seq,
		Type:        msg.Event.Type,
		OrderID:     msg.Event.OrderID,
		TableID:     msg.Event.TableID,
		ActiveCount: len(msg.Orders),
		OccurredAt:  msg.SentAt,
	})
	return b
}
