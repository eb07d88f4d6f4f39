package project

import (
	"context"
	"sort"
	"time"

	"github.com/nexboard/nexboard/internal/member"
	"github.com/nexboard/nexboard/internal/task"
	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/pkg/cerr"
)

// Analytics compares the current calendar month against the previous one
// and reports how the project's task distribution looks right now.
type Analytics struct {
	TaskCount            int `json:"taskCount"`
	TaskDifference       int `json:"taskDifference"`
	AssignedTaskCount    int `json:"assignedTaskCount"`
	AssignedDifference   int `json:"assignedTaskDifference"`
	CompletedTaskCount   int `json:"completedTaskCount"`
	CompletedDifference  int `json:"completedTaskDifference"`
	IncompleteTaskCount  int `json:"incompleteTaskCount"`
	IncompleteDifference int `json:"incompleteTaskDifference"`
	OverdueTaskCount     int `json:"overdueTaskCount"`
	OverdueDifference    int `json:"overdueTaskDifference"`

	StatusDistribution   map[task.Status]int   `json:"statusDistribution"`
	PriorityDistribution map[task.Priority]int `json:"priorityDistribution"`
	TypeDistribution     map[task.Type]int     `json:"typeDistribution"`
}

type monthStats struct {
	tasks      int
	assigned   int
	completed  int
	incomplete int
	overdue    int
}

// Analytics aggregates the project's tasks for the caller. Assigned counts
// are relative to the caller's own membership.
func (s *Server) Analytics(ctx context.Context, actor *user.User, projectID string, now time.Time) (*Analytics, error) {
	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	m, err := member.Require(ctx, s.members, p.WorkspaceID, actor.ID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, task.Filter{WorkspaceID: p.WorkspaceID, ProjectID: p.ID})
	if err != nil {
		return nil, err
	}

	thisMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := thisMonthStart.AddDate(0, -1, 0)

	a := &Analytics{
		StatusDistribution:   map[task.Status]int{},
		PriorityDistribution: map[task.Priority]int{},
		TypeDistribution:     map[task.Type]int{},
	}
	var this, last monthStats
	for _, t := range tasks {
		a.StatusDistribution[t.Status]++
		if t.Priority != "" {
			a.PriorityDistribution[t.Priority]++
		}
		if t.Type != "" {
			a.TypeDistribution[t.Type]++
		}

		var bucket *monthStats
		switch {
		case !t.CreatedAt.Before(thisMonthStart):
			bucket = &this
		case !t.CreatedAt.Before(lastMonthStart):
			bucket = &last
		default:
			continue
		}
		bucket.tasks++
		if t.AssigneeID == m.ID {
			bucket.assigned++
		}
		if t.Status == task.StatusDone {
			bucket.completed++
		} else {
			bucket.incomplete++
			if t.DueDate.Before(now) {
				bucket.overdue++
			}
		}
	}

	a.TaskCount = this.tasks
	a.TaskDifference = this.tasks - last.tasks
	a.AssignedTaskCount = this.assigned
	a.AssignedDifference = this.assigned - last.assigned
	a.CompletedTaskCount = this.completed
	a.CompletedDifference = this.completed - last.completed
	a.IncompleteTaskCount = this.incomplete
	a.IncompleteDifference = this.incomplete - last.incomplete
	a.OverdueTaskCount = this.overdue
	a.OverdueDifference = this.overdue - last.overdue
	return a, nil
}

// WorkloadEntry summarizes one assignee's slice of a project.
type WorkloadEntry struct {
	AssigneeID   string  `json:"assigneeId"`
	Name         string  `json:"name"`
	TaskCount    int     `json:"taskCount"`
	StoryPoints  int     `json:"storyPoints"`
	AvgCycleDays float64 `json:"avgCycleTimeDays"`
	Percentage   float64 `json:"percentage"`
}

// Workload groups the project's tasks by assignee, heaviest load first.
// Cycle time averages completedAt minus startedAt over finished tasks.
func (s *Server) Workload(ctx context.Context, actor *user.User, projectID string) ([]*WorkloadEntry, error) {
	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := member.Require(ctx, s.members, p.WorkspaceID, actor.ID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, task.Filter{WorkspaceID: p.WorkspaceID, ProjectID: p.ID})
	if err != nil {
		return nil, err
	}

	type acc struct {
		entry     *WorkloadEntry
		cycleSum  time.Duration
		completed int
	}
	byAssignee := map[string]*acc{}
	for _, t := range tasks {
		if t.AssigneeID == "" {
			continue
		}
		a, ok := byAssignee[t.AssigneeID]
		if !ok {
			a = &acc{entry: &WorkloadEntry{AssigneeID: t.AssigneeID, Name: "Unknown"}}
			byAssignee[t.AssigneeID] = a
		}
		a.entry.TaskCount++
		a.entry.StoryPoints += t.StoryPoint
		if t.StartedAt != nil && t.CompletedAt != nil {
			a.cycleSum += t.CompletedAt.Sub(*t.StartedAt)
			a.completed++
		}
	}

	total := 0
	out := make([]*WorkloadEntry, 0, len(byAssignee))
	for id, a := range byAssignee {
		if a.completed > 0 {
			a.entry.AvgCycleDays = a.cycleSum.Hours() / 24 / float64(a.completed)
		}
		if mem, err := s.members.Get(ctx, id); err == nil {
			if u, err := s.users.Get(ctx, mem.UserID); err == nil {
				a.entry.Name = u.DisplayName()
			}
		} else if !cerr.IsCode(err, cerr.NotFound) {
			return nil, err
		}
		total += a.entry.TaskCount
		out = append(out, a.entry)
	}
	for _, e := range out {
		if total > 0 {
			e.Percentage = float64(e.TaskCount) / float64(total) * 100
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskCount != out[j].TaskCount {
			return out[i].TaskCount > out[j].TaskCount
		}
		return out[i].AssigneeID < out[j].AssigneeID
	})
	return out, nil
}
