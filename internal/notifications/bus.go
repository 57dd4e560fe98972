package notifications

import (
	"sync"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// feedScope identifies one subscriber feed. Admin-wide notifications use a
// nil recipient and reach every admin subscriber.
type feedScope struct {
	role      enums.Role
	recipient uuid.UUID
}

// Bus is the in-process broadcast tier of the fan-out. Delivery is
// best-effort: a subscriber that is not draining its channel misses events
// rather than blocking the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[feedScope]map[int]chan Event
	nextID int
	closed bool
}

// Event is what subscribers receive.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	OrderID   *uuid.UUID             `json:"order_id,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

func NewBus() *Bus {
	return &Bus{subs: make(map[feedScope]map[int]chan Event)}
}

// Subscribe registers a feed listener. The returned cancel func must be
// called to release the subscription.
func (b *Bus) Subscribe(role enums.Role, recipient uuid.UUID, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	scope := feedScope{role: role, recipient: recipient}
	if b.subs[scope] == nil {
		b.subs[scope] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	b.subs[scope][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if listeners, ok := b.subs[scope]; ok {
			if _, ok := listeners[id]; ok {
				delete(listeners, id)
				close(ch)
			}
			if len(listeners) == 0 {
				delete(b.subs, scope)
			}
		}
	}
	return ch, cancel
}

// Publish delivers an event to every listener of the scope without
// blocking. Admin-wide events (nil recipient) reach every admin scope.
func (b *Bus) Publish(role enums.Role, recipient *uuid.UUID, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for scope, listeners := range b.subs {
		if scope.role != role {
			continue
		}
		if recipient != nil && scope.recipient != *recipient {
			continue
		}
		for _, ch := range listeners {
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// Close stops the bus and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for scope, listeners := range b.subs {
		for id, ch := range listeners {
			delete(listeners, id)
			close(ch)
		}
		delete(b.subs, scope)
	}
}
