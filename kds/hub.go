package kds

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yeremiapane/table-order-app/models"
	"github.com/yeremiapane/table-order-app/utils"
)

// Event types
const (
	EventOrderCreated       = "order_created"
	EventOrderItemAdded     = "order_item_added"
	EventOrderItemUpdated   = "order_item_updated"
	EventOrderItemRemoved   = "order_item_removed"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderDeleted       = "order_deleted"
	EventTableLocked        = "table_locked"
	EventTableUnlocked      = "table_unlocked"
	EventTableChanged       = "table_changed"
	EventMenuChanged        = "menu_changed"
)

// Event describes one committed mutation. Source is empty for events raised
// in this process and carries the origin instance for bridged events.
type Event struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id,omitempty"`
	TableID string `json:"table_id,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Message is what subscribers receive: the event plus the full active-order
// snapshot taken after it.
type Message struct {
	Seq    uint64         `json:"seq"`
	Event  Event          `json:"event"`
	Orders []models.Order `json:"orders"`
	SentAt time.Time      `json:"sent_at"`
}

// SnapshotLoader returns the active orders, oldest first.
type SnapshotLoader func(ctx context.Context) ([]models.Order, error)

// Sink receives every message after the websocket fan-out.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}

const (
	defaultQueueSize  = 256
	subscriberBuffer  = 16
	snapshotTimeout   = 5 * time.Second
	sinkDeliveryLimit = 5 * time.Second
)

// Hub serializes change events: one goroutine takes them in publish order,
// loads a snapshot, stamps a sequence number and fans it out.
type Hub struct {
	loader SnapshotLoader
	queue  chan Event
	seq    atomic.Uint64

	mu    sync.Mutex
	subs  map[*Subscriber]struct{}
	sinks []Sink
}

func NewHub(loader SnapshotLoader) *Hub {
	return &Hub{
		loader: loader,
		queue:  make(chan Event, defaultQueueSize),
		subs:   make(map[*Subscriber]struct{}),
	}
}

// AddSink registers an extra destination. Call before Run.
func (h *Hub) AddSink(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, s)
}

// Publish enqueues ev without blocking. When the queue is full the event is
// dropped: the next delivered snapshot still reflects its mutation.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	select {
	case h.queue <- ev:
	default:
		utils.InfoLogger.WithField("event", ev.Type).Warn("KDS queue full, event dropped")
	}
}

// Seq is the sequence number of the last delivered message.
func (h *Hub) Seq() uint64 {
	return h.seq.Load()
}

// Run processes the queue until ctx is done, then closes all subscribers.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.queue:
			h.dispatch(ctx, ev)
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, ev Event) {
	loadCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	orders, err := h.loader(loadCtx)
	cancel()
	if err != nil {
		utils.ErrorLogger.Printf("Error loading KDS snapshot: %v", err)
		return
	}

	msg := Message{
		Seq:    h.seq.Add(1),
		Event:  ev,
		Orders: orders,
		SentAt: time.Now().UTC(),
	}

	h.mu.Lock()
	for sub := range h.subs {
		select {
		case sub.ch <- msg:
		default:
			// client terlalu lambat, putuskan
			delete(h.subs, sub)
			sub.close()
			utils.InfoLogger.Println("Dropped slow KDS subscriber")
		}
	}
	sinks := append([]Sink(nil), h.sinks...)
	h.mu.Unlock()

	for _, s := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, sinkDeliveryLimit)
		if err := s.Deliver(sinkCtx, msg); err != nil {
			utils.ErrorLogger.WithField("sink", s.Name()).Printf("Error delivering KDS message: %v", err)
		}
		cancel()
	}
}

// Snapshot builds a message for pollers and new subscribers without
// advancing the sequence.
func (h *Hub) Snapshot(ctx context.Context) (Message, error) {
	orders, err := h.loader(ctx)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Seq:    h.seq.Load(),
		Event:  Event{Type: "snapshot"},
		Orders: orders,
		SentAt: time.Now().UTC(),
	}, nil
}

// Subscriber is one receiving end. C is closed when the hub drops it or
// shuts down.
type Subscriber struct {
	C    <-chan Message
	ch   chan Message
	once sync.Once
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

func (h *Hub) Subscribe() *Subscriber {
	ch := make(chan Message, subscriberBuffer)
	sub := &Subscriber{C: ch, ch: ch}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		sub.close()
	}
	h.mu.Unlock()
}

// SubscriberCount is exposed for tests and metrics.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.close()
	}
}
