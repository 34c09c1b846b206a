package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/store"
	"github.com/nhle/workhub/internal/testutil"
)

var _ store.Store = (*store.SQLiteStore)(nil)

func ptr(v int64) *int64 { return &v }

func TestGroupsRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	created := model.NewTimestamp(time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC))

	groups := []model.Group{
		{ID: 4, Name: "Zeta", LeaderID: ptr(9), LeaderName: "Kim", MemberCount: 3, CompletionRate: "50%", CreatedAt: created},
		{ID: 2, Name: "Alpha", Description: "first", CompletionRate: "0%"},
	}
	if err := s.SaveGroups(ctx, 1, groups); err != nil {
		t.Fatalf("SaveGroups: %v", err)
	}

	got, err := s.LoadGroups(ctx, 1)
	if err != nil {
		t.Fatalf("LoadGroups: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("groups = %d, want 2", len(got))
	}
	if got[0].ID != 4 || got[1].ID != 2 {
		t.Errorf("order = %d,%d, want saved order 4,2", got[0].ID, got[1].ID)
	}
	if got[0].LeaderID == nil || *got[0].LeaderID != 9 || got[0].LeaderName != "Kim" {
		t.Errorf("leader = %v %q", got[0].LeaderID, got[0].LeaderName)
	}
	if !got[0].CreatedAt.Equal(created.Time) {
		t.Errorf("created_at = %v, want %v", got[0].CreatedAt.Time, created.Time)
	}
	if got[1].LeaderID != nil {
		t.Errorf("nil leader came back as %v", *got[1].LeaderID)
	}
}

func TestSaveGroupsReplaces(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveGroups(ctx, 1, []model.Group{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}); err != nil {
		t.Fatalf("SaveGroups: %v", err)
	}
	if err := s.SaveGroups(ctx, 1, []model.Group{{ID: 3, Name: "c"}}); err != nil {
		t.Fatalf("SaveGroups: %v", err)
	}
	got, err := s.LoadGroups(ctx, 1)
	if err != nil {
		t.Fatalf("LoadGroups: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("groups = %+v", got)
	}
}

func TestGroupsAreScopedPerUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveGroups(ctx, 1, []model.Group{{ID: 1, Name: "mine"}}); err != nil {
		t.Fatalf("SaveGroups: %v", err)
	}
	got, err := s.LoadGroups(ctx, 2)
	if err != nil {
		t.Fatalf("LoadGroups: %v", err)
	}
	if got != nil {
		t.Errorf("user 2 sees %+v", got)
	}
}

func TestNotificationsRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	readAt := model.NewTimestamp(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))

	page := &model.NotificationPage{
		Notifications: []model.Notification{
			{ID: 11, Title: "Assigned", Message: "Fix bug", Type: model.NotificationTaskAssigned, TaskID: ptr(5)},
			{ID: 10, Title: "Joined", Type: model.NotificationGroupJoined, IsRead: true, IsImportant: true, ReadAt: &readAt, GroupID: ptr(2)},
		},
		Total:       14,
		UnreadCount: 6,
	}
	if err := s.SaveNotifications(ctx, 3, page); err != nil {
		t.Fatalf("SaveNotifications: %v", err)
	}

	got, err := s.LoadNotifications(ctx, 3)
	if err != nil {
		t.Fatalf("LoadNotifications: %v", err)
	}
	if got.Total != 14 || got.UnreadCount != 6 || len(got.Notifications) != 2 {
		t.Fatalf("page = %+v", got)
	}
	first, second := got.Notifications[0], got.Notifications[1]
	if first.ID != 11 || first.TaskID == nil || *first.TaskID != 5 || first.IsRead {
		t.Errorf("first = %+v", first)
	}
	if !second.IsRead || !second.IsImportant || second.ReadAt == nil || !second.ReadAt.Equal(readAt.Time) {
		t.Errorf("second = %+v", second)
	}
	if second.Type != model.NotificationGroupJoined {
		t.Errorf("type = %q", second.Type)
	}
}

func TestLoadNotificationsEmptyCache(t *testing.T) {
	s := testutil.NewTestStore(t)
	got, err := s.LoadNotifications(context.Background(), 99)
	if err != nil {
		t.Fatalf("LoadNotifications: %v", err)
	}
	if got != nil {
		t.Errorf("page = %+v, want nil", got)
	}
}

func TestEmptyFeedIsCached(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	if err := s.SaveNotifications(ctx, 1, &model.NotificationPage{}); err != nil {
		t.Fatalf("SaveNotifications: %v", err)
	}
	got, err := s.LoadNotifications(ctx, 1)
	if err != nil {
		t.Fatalf("LoadNotifications: %v", err)
	}
	if got == nil || len(got.Notifications) != 0 {
		t.Errorf("page = %+v, want empty non-nil page", got)
	}
}

func TestPurge(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveGroups(ctx, 1, []model.Group{{ID: 1, Name: "a"}}); err != nil {
		t.Fatalf("SaveGroups: %v", err)
	}
	if err := s.SaveNotifications(ctx, 1, &model.NotificationPage{Notifications: []model.Notification{{ID: 1, Title: "x", Type: model.NotificationRoleChanged}}}); err != nil {
		t.Fatalf("SaveNotifications: %v", err)
	}
	if err := s.SaveGroups(ctx, 2, []model.Group{{ID: 1, Name: "a"}}); err != nil {
		t.Fatalf("SaveGroups: %v", err)
	}

	if err := s.Purge(ctx, 1); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if groups, _ := s.LoadGroups(ctx, 1); groups != nil {
		t.Errorf("groups after purge = %+v", groups)
	}
	if page, _ := s.LoadNotifications(ctx, 1); page != nil {
		t.Errorf("page after purge = %+v", page)
	}
	if groups, _ := s.LoadGroups(ctx, 2); len(groups) != 1 {
		t.Error("purge touched another user")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.SaveGroups(ctx, 1, []model.Group{{ID: 7, Name: "kept"}}); err != nil {
		t.Fatalf("SaveGroups: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s.Close()

	got, err := s.LoadGroups(ctx, 1)
	if err != nil {
		t.Fatalf("LoadGroups: %v", err)
	}
	if len(got) != 1 || got[0].Name != "kept" {
		t.Errorf("groups = %+v", got)
	}
}
