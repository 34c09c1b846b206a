package notifications

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/workhub/internal/keys"
	"github.com/nhle/workhub/internal/model"
	appsync "github.com/nhle/workhub/internal/sync"
)

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestDeleteSelected(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetSnapshot(appsync.Snapshot{
		Notifications: []model.Notification{{ID: 4, Title: "a", IsRead: true}, {ID: 5, Title: "b"}},
		UnreadCount:   1,
	})

	_, cmd := m.Update(keyPress('d'))
	if cmd == nil {
		t.Fatal("no command for delete")
	}
	msg, ok := cmd().(DeleteMsg)
	if !ok || msg.ID != 4 {
		t.Errorf("msg = %+v, want DeleteMsg{ID: 4}", msg)
	}
}

func TestDeleteOnEmptyFeed(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	if _, cmd := m.Update(keyPress('d')); cmd != nil {
		t.Errorf("delete on empty feed returned %T", cmd())
	}
}
