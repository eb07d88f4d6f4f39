package activity

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nexboard/nexboard/internal/eventbus"
)

// Recorder drains mutation events from the bus into the activity log. It is
// the only writer of the log. Append failures are logged and dropped so the
// audit trail can never block or fail a mutation.
type Recorder struct {
	repo Repository
	bus  *eventbus.Bus
}

func NewRecorder(repo Repository, bus *eventbus.Bus) *Recorder {
	return &Recorder{repo: repo, bus: bus}
}

// Start consumes events until ctx is done. Call it in its own goroutine.
func (r *Recorder) Start(ctx context.Context) {
	id, ch := r.bus.Subscribe(256)
	defer r.bus.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			r.record(ctx, event)
		}
	}
}

func (r *Recorder) record(ctx context.Context, event *eventbus.Event) {
	changes := ""
	if len(event.Changes) > 0 {
		data, err := json.Marshal(event.Changes)
		if err != nil {
			slog.ErrorContext(ctx, "failed to serialize activity changes",
				slog.String("entity_type", event.EntityType),
				slog.String("entity_id", event.EntityID),
				slog.String("error.message", err.Error()))
		} else {
			changes = string(data)
		}
	}
	l := &Log{
		ID:         event.ID,
		UserID:     event.UserID,
		Timestamp:  event.CreatedAt,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Action:     event.Action,
		Changes:    changes,
	}
	if err := r.repo.Append(ctx, l); err != nil {
		slog.ErrorContext(ctx, "failed to append activity log",
			slog.String("entity_type", event.EntityType),
			slog.String("entity_id", event.EntityID),
			slog.String("action", event.Action),
			slog.String("error.message", err.Error()))
	}
}
