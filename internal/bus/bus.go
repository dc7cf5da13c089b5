package bus

import (
	"github.com/brandonschabell/alphaflow/internal/event"
)

// Subscriber receives events for the topics it declares.
//
// ReadEvent may itself publish further events through the bus; dispatch
// is synchronous and stack-based, so a nested publish fully drains
// before control returns to the remaining subscribers of the outer one.
type Subscriber interface {
	TopicSubscriptions() []event.Topic
	ReadEvent(e event.Event) error
}

// Bus is a topic-keyed, single-threaded, synchronous dispatcher.
type Bus struct {
	subscribers map[event.Topic][]Subscriber
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subscribers: make(map[event.Topic][]Subscriber)}
}

// Subscribe registers a subscriber for a topic. Registrations are
// append-only and duplicates are allowed; dispatch follows insertion
// order.
func (b *Bus) Subscribe(topic event.Topic, sub Subscriber) {
	b.subscribers[topic] = append(b.subscribers[topic], sub)
}

// Unsubscribe removes the first matching registration for the topic.
// It is a no-op when the subscriber is not registered.
func (b *Bus) Unsubscribe(topic event.Topic, sub Subscriber) {
	subs := b.subscribers[topic]
	for i, s := range subs {
		if s == sub {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every current subscriber of the topic,
// in subscription order. The first subscriber error stops dispatch and
// is returned to the publisher, unwinding any nested publishes with it.
func (b *Bus) Publish(topic event.Topic, e event.Event) error {
	for _, sub := range b.subscribers[topic] {
		if err := sub.ReadEvent(e); err != nil {
			return err
		}
	}
	return nil
}
