package comment

import "context"

type Repository interface {
	Create(ctx context.Context, c *Comment) error
	Get(ctx context.Context, id string) (*Comment, error)
	ListByTask(ctx context.Context, taskID string) ([]*Comment, error)
	Delete(ctx context.Context, id string) error
}

type LikeRepository interface {
	Create(ctx context.Context, l *Like) error
	// Resolve returns the user's like on a comment, or (nil, nil) when absent.
	Resolve(ctx context.Context, commentID, userID string) (*Like, error)
	CountByComment(ctx context.Context, commentID string) (int, error)
	Delete(ctx context.Context, id string) error
}
