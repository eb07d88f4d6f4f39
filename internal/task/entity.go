package task

import "time"

// Status is the closed set of board columns a task moves through.
type Status string

const (
	StatusBacklog    Status = "BACKLOG"
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusInReview   Status = "IN_REVIEW"
	StatusDone       Status = "DONE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Type string

const (
	TypeFeature     Type = "FEATURE"
	TypeBug         Type = "BUG"
	TypeChore       Type = "CHORE"
	TypeImprovement Type = "IMPROVEMENT"
)

func (t Type) Valid() bool {
	switch t {
	case TypeFeature, TypeBug, TypeChore, TypeImprovement:
		return true
	}
	return false
}

// Task is one card on the board. AssigneeID references a member record;
// CreatorID references a user and never changes after creation. Position is
// a sparse integer ordering tasks within a (workspace, status) column.
type Task struct {
	ID          string     `yaml:"id" json:"id"`
	WorkspaceID string     `yaml:"workspace_id" json:"workspaceId"`
	ProjectID   string     `yaml:"project_id" json:"projectId"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Status      Status     `yaml:"status" json:"status"`
	Priority    Priority   `yaml:"priority,omitempty" json:"priority,omitempty"`
	Type        Type       `yaml:"type,omitempty" json:"type,omitempty"`
	DueDate     time.Time  `yaml:"due_date" json:"dueDate"`
	StoryPoint  int        `yaml:"story_point,omitempty" json:"storyPoint,omitempty"`
	Position    int        `yaml:"position" json:"position"`
	AssigneeID  string     `yaml:"assignee_id" json:"assigneeId"`
	CreatorID   string     `yaml:"creator_id" json:"creatorId"`
	StartedAt   *time.Time `yaml:"started_at,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `yaml:"updated_at" json:"updatedAt"`
}
