package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Alerts
	Dismiss    key.Binding
	DismissAll key.Binding

	// Screens
	Groups        key.Binding
	Tasks         key.Binding
	Notifications key.Binding
	Profile       key.Binding
	Requests      key.Binding
	Settings      key.Binding

	// Group actions
	Join    key.Binding
	Leave   key.Binding
	Approve key.Binding
	Reject  key.Binding
	Assign  key.Binding
	Remove  key.Binding
	Promote key.Binding

	// Notification actions
	MarkRead    key.Binding
	MarkAllRead key.Binding
	Delete      key.Binding
	ClearAll    key.Binding

	// Sort
	CycleSort key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "dismiss alert"),
		),
		DismissAll: key.NewBinding(
			key.WithKeys("Z"),
			key.WithHelp("Z", "dismiss all alerts"),
		),
		Groups: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "groups"),
		),
		Tasks: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "my tasks"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		Profile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "profile"),
		),
		Requests: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "join requests"),
		),
		Settings: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "settings"),
		),
		Join: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "join / request"),
		),
		Leave: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "leave group"),
		),
		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "approve request"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reject request"),
		),
		Assign: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "assign task"),
		),
		Remove: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "remove member"),
		),
		Promote: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "promote member"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear all"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle sort"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Notifications,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.CycleSort, k.Command, k.Help, k.Refresh},
		{k.Dismiss, k.DismissAll},
		{k.Groups, k.Tasks, k.Notifications, k.Profile, k.Requests, k.Settings},
		{k.Join, k.Leave, k.Approve, k.Reject},
		{k.Assign, k.Remove, k.Promote},
		{k.MarkRead, k.MarkAllRead, k.Delete, k.ClearAll},
	}
}
