package services

import "github.com/yeremiapane/table-order-app/kds"

// EventPublisher receives change events after their transaction commits.
// *kds.Hub implements it.
type EventPublisher interface {
	Publish(ev kds.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(kds.Event) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// pendingEvents collects events inside a transaction so they are only
// published once it commits.
type pendingEvents []kds.Event

func (p *pendingEvents) add(typ, orderID, tableID string) {
	*p = append(*p, kds.Event{Type: typ, OrderID: orderID, TableID: tableID})
}

func (p pendingEvents) flush(pub EventPublisher) {
	for _, ev := range p {
		pub.Publish(ev)
	}
}
