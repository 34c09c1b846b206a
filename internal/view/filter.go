package view

import (
	"slices"
	"strings"

	"github.com/nhle/workhub/internal/model"
)

// NoLeader is the leader filter value that selects groups without a
// leader.
const NoLeader = "no-leader"

// GroupSort is a sort key for the group list.
type GroupSort string

const (
	SortGroupsByName           GroupSort = "name"
	SortGroupsByMemberCount    GroupSort = "member_count"
	SortGroupsByCompletionRate GroupSort = "completion_rate"
	SortGroupsByCreatedAt      GroupSort = "created_at"
)

// AllGroupSorts lists every GroupSort value.
var AllGroupSorts = []GroupSort{
	SortGroupsByName,
	SortGroupsByMemberCount,
	SortGroupsByCompletionRate,
	SortGroupsByCreatedAt,
}

// Label returns the display name of the sort key.
func (s GroupSort) Label() string {
	switch s {
	case SortGroupsByName:
		return "Name"
	case SortGroupsByMemberCount:
		return "Members"
	case SortGroupsByCompletionRate:
		return "Completion"
	case SortGroupsByCreatedAt:
		return "Newest"
	}
	return "Default"
}

// GroupCriteria narrows and orders the group list.
type GroupCriteria struct {
	// Name matches groups whose name contains it, ignoring case.
	Name string

	// Leader is "" for any leader, NoLeader for groups without one, or a
	// leader id.
	Leader string

	// SortBy is empty to keep server order.
	SortBy GroupSort
}

// FilterGroups returns the groups matching c in the requested order. The
// input slice is never modified. Ties keep their original relative order.
func FilterGroups(groups []model.Group, c GroupCriteria) []model.Group {
	name := strings.ToLower(c.Name)

	out := make([]model.Group, 0, len(groups))
	for _, g := range groups {
		if !strings.Contains(strings.ToLower(g.Name), name) {
			continue
		}
		if !leaderMatches(g, c.Leader) {
			continue
		}
		out = append(out, g)
	}

	switch c.SortBy {
	case SortGroupsByName:
		slices.SortStableFunc(out, func(a, b model.Group) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortGroupsByMemberCount:
		slices.SortStableFunc(out, func(a, b model.Group) int {
			return b.MemberCount - a.MemberCount
		})
	case SortGroupsByCompletionRate:
		slices.SortStableFunc(out, func(a, b model.Group) int {
			return compareDesc(a.CompletionPercent(), b.CompletionPercent())
		})
	case SortGroupsByCreatedAt:
		slices.SortStableFunc(out, func(a, b model.Group) int {
			return b.CreatedAt.Compare(a.CreatedAt.Time)
		})
	}
	return out
}

func leaderMatches(g model.Group, leader string) bool {
	switch leader {
	case "":
		return true
	case NoLeader:
		return !g.HasLeader()
	}
	return g.HasLeader() && leader == formatID(*g.LeaderID)
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

// TaskSort is a sort key for the task list.
type TaskSort string

const (
	SortTasksByCreated  TaskSort = "created"
	SortTasksByDeadline TaskSort = "deadline"
	SortTasksByPriority TaskSort = "priority"
)

// AllTaskSorts lists every TaskSort value.
var AllTaskSorts = []TaskSort{SortTasksByCreated, SortTasksByDeadline, SortTasksByPriority}

// TaskCriteria narrows and orders the task list.
type TaskCriteria struct {
	Status   model.TaskStatus
	Priority model.TaskPriority

	// Query matches title or description, ignoring case.
	Query string

	SortBy TaskSort
}

// FilterTasks returns the tasks matching c in the requested order. Tasks
// without a deadline sort after those with one.
func FilterTasks(tasks []model.Task, c TaskCriteria) []model.Task {
	query := strings.ToLower(strings.TrimSpace(c.Query))

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if c.Status != "" && t.Status != c.Status {
			continue
		}
		if c.Priority != "" && t.Priority != c.Priority {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		out = append(out, t)
	}

	switch c.SortBy {
	case SortTasksByCreated:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt.Time)
		})
	case SortTasksByDeadline:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			switch {
			case a.Deadline == nil && b.Deadline == nil:
				return 0
			case a.Deadline == nil:
				return 1
			case b.Deadline == nil:
				return -1
			}
			return a.Deadline.Compare(b.Deadline.Time)
		})
	case SortTasksByPriority:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	}
	return out
}
