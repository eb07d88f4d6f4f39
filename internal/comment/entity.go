package comment

import "time"

// Comment is attached to a task. ParentID links a reply to the comment it
// answers; top-level comments leave it empty.
type Comment struct {
	ID          string    `yaml:"id" json:"id"`
	TaskID      string    `yaml:"task_id" json:"taskId"`
	WorkspaceID string    `yaml:"workspace_id" json:"workspaceId"`
	AuthorID    string    `yaml:"author_id" json:"authorId"`
	Content     string    `yaml:"content" json:"content"`
	ParentID    string    `yaml:"parent_id,omitempty" json:"parentId,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updatedAt"`
}

// Like is one user's like on one comment. At most one per (comment, user).
type Like struct {
	ID        string    `yaml:"id" json:"id"`
	CommentID string    `yaml:"comment_id" json:"commentId"`
	UserID    string    `yaml:"user_id" json:"userId"`
	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`
}
