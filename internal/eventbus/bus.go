package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is a record of a single mutation, published after the primary write
// succeeds. Consumers (e.g. the activity recorder) run detached from the
// request; a slow or failing consumer never affects the mutation itself.
type Event struct {
	ID         string
	UserID     string
	EntityType string
	EntityID   string
	Action     string
	Changes    map[string]any
	CreatedAt  time.Time
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

// PublishNew stamps and publishes a mutation event.
func (b *Bus) PublishNew(userID, entityType, entityID, action string, changes map[string]any) {
	b.Publish(&Event{
		ID:         ulid.Make().String(),
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		CreatedAt:  time.Now(),
	})
}
