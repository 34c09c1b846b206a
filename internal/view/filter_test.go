package view

import (
	"testing"
	"time"

	"github.com/nhle/workhub/internal/model"
)

func ids[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func groupIDs(gs []model.Group) []int64 { return ids(gs, func(g model.Group) int64 { return g.ID }) }
func taskIDs(ts []model.Task) []int64   { return ids(ts, func(t model.Task) int64 { return t.ID }) }

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func day(d int) model.Timestamp {
	return model.NewTimestamp(time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC))
}

var sampleGroups = []model.Group{
	{ID: 1, Name: "ops", LeaderID: int64p(10), MemberCount: 2, CompletionRate: "40%", CreatedAt: day(3)},
	{ID: 2, Name: "Design", MemberCount: 5, CompletionRate: "90%", CreatedAt: day(1)},
	{ID: 3, Name: "Backend Ops", LeaderID: int64p(11), MemberCount: 5, CompletionRate: "12.5%", CreatedAt: day(7)},
	{ID: 4, Name: "alpha", LeaderID: int64p(10), MemberCount: 0, CompletionRate: "", CreatedAt: day(5)},
}

func TestFilterGroups(t *testing.T) {
	tests := []struct {
		name string
		c    GroupCriteria
		want []int64
	}{
		{"no criteria keeps order", GroupCriteria{}, []int64{1, 2, 3, 4}},
		{"name ignores case", GroupCriteria{Name: "OPS"}, []int64{1, 3}},
		{"no leader", GroupCriteria{Leader: NoLeader}, []int64{2}},
		{"by leader id", GroupCriteria{Leader: "10"}, []int64{1, 4}},
		{"sort by name", GroupCriteria{SortBy: SortGroupsByName}, []int64{4, 3, 2, 1}},
		{"sort by members is stable", GroupCriteria{SortBy: SortGroupsByMemberCount}, []int64{2, 3, 1, 4}},
		{"sort by completion", GroupCriteria{SortBy: SortGroupsByCompletionRate}, []int64{2, 1, 3, 4}},
		{"sort by newest", GroupCriteria{SortBy: SortGroupsByCreatedAt}, []int64{3, 4, 1, 2}},
		{"combined", GroupCriteria{Name: "o", Leader: "10", SortBy: SortGroupsByName}, []int64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := groupIDs(FilterGroups(sampleGroups, tt.c))
			if !equalIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterGroupsDoesNotMutateInput(t *testing.T) {
	in := append([]model.Group(nil), sampleGroups...)
	_ = FilterGroups(in, GroupCriteria{SortBy: SortGroupsByName})
	if !equalIDs(groupIDs(in), []int64{1, 2, 3, 4}) {
		t.Errorf("input reordered: %v", groupIDs(in))
	}
}

func TestGroupSortLabels(t *testing.T) {
	for _, s := range AllGroupSorts {
		if s.Label() == "Default" {
			t.Errorf("%s has no label", s)
		}
	}
}

func TestFilterTasks(t *testing.T) {
	d2, d5 := day(2), day(5)
	tasks := []model.Task{
		{ID: 1, Title: "Write docs", Status: model.TaskStatusTodo, Priority: model.TaskPriorityLow, CreatedAt: day(1), Deadline: &d5},
		{ID: 2, Title: "Fix login", Description: "docs link broken", Status: model.TaskStatusDoing, Priority: model.TaskPriorityHigh, CreatedAt: day(3)},
		{ID: 3, Title: "Deploy", Status: model.TaskStatusDone, Priority: model.TaskPriorityMedium, CreatedAt: day(2), Deadline: &d2},
	}

	tests := []struct {
		name string
		c    TaskCriteria
		want []int64
	}{
		{"all", TaskCriteria{}, []int64{1, 2, 3}},
		{"status", TaskCriteria{Status: model.TaskStatusDoing}, []int64{2}},
		{"priority", TaskCriteria{Priority: model.TaskPriorityMedium}, []int64{3}},
		{"query matches description", TaskCriteria{Query: " DOCS "}, []int64{1, 2}},
		{"newest first", TaskCriteria{SortBy: SortTasksByCreated}, []int64{2, 3, 1}},
		{"deadline, missing last", TaskCriteria{SortBy: SortTasksByDeadline}, []int64{3, 1, 2}},
		{"priority high first", TaskCriteria{SortBy: SortTasksByPriority}, []int64{2, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := taskIDs(FilterTasks(tasks, tt.c))
			if !equalIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
