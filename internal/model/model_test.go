package model

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"server layout", `"2026-02-03 04:05:06"`, time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)},
		{"rfc3339", `"2026-02-03T04:05:06Z"`, time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)},
		{"date only", `"2026-02-03"`, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"null", `null`, time.Time{}},
		{"empty", `""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("got %v, want %v", ts.Time, tt.want)
			}
		})
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := json.Unmarshal([]byte(`12`), &ts); err == nil {
		t.Error("expected error for non-string")
	}
}

func TestTimestampMarshal(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"2026-01-02 03:04:05"` {
		t.Errorf("got %s", data)
	}
	if ts.ServerString() != "2026-01-02 03:04:05" {
		t.Errorf("ServerString = %q", ts.ServerString())
	}

	var zero Timestamp
	if data, _ := json.Marshal(zero); string(data) != "null" {
		t.Errorf("zero marshals to %s, want null", data)
	}
	if zero.ServerString() != "" {
		t.Errorf("zero ServerString = %q", zero.ServerString())
	}
}

func TestParsePercent(t *testing.T) {
	tests := map[string]float64{
		"80%":   80,
		"12.5%": 12.5,
		" 7 % ": 7,
		"0%":    0,
		"":      0,
		"n/a":   0,
	}
	for in, want := range tests {
		if got := ParsePercent(in); got != want {
			t.Errorf("ParsePercent(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGroupHasLeader(t *testing.T) {
	zero := int64(0)
	one := int64(1)
	if (Group{}).HasLeader() {
		t.Error("nil leader counted")
	}
	if (Group{LeaderID: &zero}).HasLeader() {
		t.Error("zero leader counted")
	}
	if !(Group{LeaderID: &one}).HasLeader() {
		t.Error("leader not detected")
	}
}

func TestNavigationFor(t *testing.T) {
	tests := []struct {
		name string
		sess *Session
		want Navigation
	}{
		{"logged out", nil, Navigation{LoginButton: true}},
		{"employee", &Session{UserID: 1, Role: RoleEmployee}, Navigation{UserMenu: true, Notifications: true, Groups: true}},
		{"leader", &Session{UserID: 1, Role: RoleLeader}, Navigation{UserMenu: true, Notifications: true, Groups: true, AdminLeaderOnly: true}},
		{"admin", &Session{UserID: 1, Role: RoleAdmin}, Navigation{UserMenu: true, Notifications: true, Groups: true, AdminLeaderOnly: true, AdminOnly: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NavigationFor(tt.sess); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSessionClone(t *testing.T) {
	s := &Session{UserID: 1, Group: &GroupRef{ID: 2}}
	c := s.Clone()
	c.Group.ID = 3
	if s.Group.ID != 2 {
		t.Error("Clone shares the group pointer")
	}
	var nilSess *Session
	if nilSess.Clone() != nil {
		t.Error("nil Clone not nil")
	}
}

func TestPriorityRankOrdersHighFirst(t *testing.T) {
	if !(TaskPriorityHigh.Rank() < TaskPriorityMedium.Rank() && TaskPriorityMedium.Rank() < TaskPriorityLow.Rank()) {
		t.Error("priority ranks out of order")
	}
	if TaskPriority("urgent").Rank() <= TaskPriorityLow.Rank() {
		t.Error("unknown priority should sort last")
	}
}

func TestNotificationTypeValid(t *testing.T) {
	for _, nt := range AllNotificationTypes {
		if !nt.Valid() {
			t.Errorf("%s not valid", nt)
		}
	}
	if NotificationType("party").Valid() {
		t.Error("unknown type reported valid")
	}
}

func TestCountUnread(t *testing.T) {
	ns := []Notification{{IsRead: true}, {}, {}}
	if got := CountUnread(ns); got != 2 {
		t.Errorf("CountUnread = %d, want 2", got)
	}
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.BaseURL != DefaultBaseURL {
		t.Errorf("base url = %q", cfg.Server.BaseURL)
	}
	if cfg.Notifications.PollIntervalSec != DefaultPollIntervalSec || cfg.Notifications.Limit != DefaultNotificationCap {
		t.Errorf("notifications = %+v", cfg.Notifications)
	}
	if cfg.Alerts.MaxVisible != DefaultMaxAlerts {
		t.Errorf("alerts = %+v", cfg.Alerts)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("WORKHUB_SERVER_BASE_URL", "https://example.test/api/")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.BaseURL != "https://example.test/api" {
		t.Errorf("base url = %q, want trailing slash trimmed override", cfg.Server.BaseURL)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Server.BaseURL = "http://api.internal:8080/api"
	cfg.Notifications.PollIntervalSec = 15
	cfg.Alerts.MaxVisible = 3

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Server.BaseURL != cfg.Server.BaseURL {
		t.Errorf("base url = %q", got.Server.BaseURL)
	}
	if got.Notifications.PollIntervalSec != 15 {
		t.Errorf("poll interval = %d", got.Notifications.PollIntervalSec)
	}
	if got.Alerts.MaxVisible != 3 {
		t.Errorf("max visible = %d", got.Alerts.MaxVisible)
	}
}
