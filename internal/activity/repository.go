package activity

import "context"

type Filter struct {
	UserID     string
	EntityType string
	Limit      int
	Offset     int
}

type Repository interface {
	Append(ctx context.Context, l *Log) error
	// List returns entries newest first.
	List(ctx context.Context, f Filter) ([]*Log, error)
}
