package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := New()
	_, ch1 := bus.Subscribe(4)
	_, ch2 := bus.Subscribe(4)

	bus.PublishNew("u1", "task", "t1", "create", map[string]any{"name": "x"})

	for _, ch := range []<-chan *Event{ch1, ch2} {
		select {
		case e := <-ch:
			assert.Equal(t, "u1", e.UserID)
			assert.Equal(t, "task", e.EntityType)
			assert.Equal(t, "t1", e.EntityID)
			assert.Equal(t, "create", e.Action)
			assert.NotEmpty(t, e.ID)
			assert.False(t, e.CreatedAt.IsZero())
		default:
			t.Fatal("expected event on subscriber channel")
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	bus := New()
	_, ch := bus.Subscribe(1)

	bus.PublishNew("u1", "task", "t1", "create", nil)
	bus.PublishNew("u1", "task", "t2", "create", nil)

	e := <-ch
	assert.Equal(t, "t1", e.EntityID)
	select {
	case e := <-ch:
		t.Fatalf("expected second event to be dropped, got %v", e.EntityID)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)

	bus.Unsubscribe(id)
	_, ok := <-ch
	require.False(t, ok)

	// publishing after unsubscribe must not panic
	bus.PublishNew("u1", "task", "t1", "create", nil)
}
