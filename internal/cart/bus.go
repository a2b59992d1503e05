package cart

import "sync"

// Topic names the two cart broadcasts: Changed means "recount your badge and
// re-read", Open means "open the cart drawer".
type Topic string

const (
	TopicChanged Topic = "cart.changed"
	TopicOpen    Topic = "cart.open"
)

// Event is one broadcast delivered to subscribers.
type Event struct {
	Topic    Topic
	DeviceID string
}

type subscription struct {
	topic Topic
	fn    func(Event)
}

// Bus is the explicit subscribe/notify contract between the cart store and
// every surface that renders it. Delivery is synchronous and in subscription
// order; handlers must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registers fn for a topic and returns its unsubscribe function.
func (b *Bus) Subscribe(topic Topic, fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{topic: topic, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish fans the event out to every subscriber of its topic.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.topic == e.Topic {
			fns = append(fns, sub.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
