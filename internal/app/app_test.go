package app

import (
	"testing"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/credential"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/session"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := &model.AppConfig{
		Server:        model.ServerConfig{BaseURL: "http://127.0.0.1:1", TimeoutSec: 1},
		Notifications: model.NotificationConfig{PollIntervalSec: 3600, Limit: 10},
		Alerts:        model.AlertConfig{MaxVisible: 5, DurationMS: 60000},
	}
	sessions := session.NewStore(credential.New(keyring.NewArrayKeyring(nil)))
	m := New(cfg, "", sessions, nil)
	t.Cleanup(func() {
		m.sync.Stop()
		m.alerts.Close()
		m.cancel()
	})
	return m
}

func pressKey(t *testing.T, m Model, r rune) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func TestDismissKeys(t *testing.T) {
	m := newTestModel(t)
	m.currentView = ViewGroups

	m.alerts.Show(alert.Info, "older")
	m.alerts.Show(alert.Danger, "newer")

	m = pressKey(t, m, 'z')
	active := m.alerts.Active()
	if len(active) != 1 || active[0].Message != "older" {
		t.Fatalf("after z, active = %+v, want only older", active)
	}

	m.alerts.Show(alert.Warning, "another")
	m = pressKey(t, m, 'Z')
	if n := len(m.alerts.Active()); n != 0 {
		t.Errorf("after Z, active = %d, want 0", n)
	}
}

func TestDismissCommands(t *testing.T) {
	m := newTestModel(t)

	m.alerts.Show(alert.Info, "one")
	m.alerts.Show(alert.Info, "two")
	m.alerts.Show(alert.Info, "three")

	next, _ := m.executeCommand("dismiss")
	m = next.(Model)
	if n := len(m.alerts.Active()); n != 2 {
		t.Fatalf("after dismiss, active = %d, want 2", n)
	}

	next, _ = m.executeCommand("dismiss all")
	m = next.(Model)
	if n := len(m.alerts.Active()); n != 0 {
		t.Errorf("after dismiss all, active = %d, want 0", n)
	}
}
