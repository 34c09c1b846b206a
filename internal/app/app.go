package app

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/keys"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/session"
	"github.com/nhle/workhub/internal/store"
	appsync "github.com/nhle/workhub/internal/sync"
	"github.com/nhle/workhub/internal/ui"
	"github.com/nhle/workhub/internal/ui/command"
	"github.com/nhle/workhub/internal/ui/config"
	"github.com/nhle/workhub/internal/ui/confirm"
	"github.com/nhle/workhub/internal/ui/detail"
	"github.com/nhle/workhub/internal/ui/grouplist"
	helpview "github.com/nhle/workhub/internal/ui/help"
	"github.com/nhle/workhub/internal/ui/login"
	"github.com/nhle/workhub/internal/ui/notifications"
	"github.com/nhle/workhub/internal/ui/requests"
	"github.com/nhle/workhub/internal/ui/taskform"
	"github.com/nhle/workhub/internal/ui/tasklist"
	"github.com/nhle/workhub/internal/view"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewGroups
	ViewGroupDetail
	ViewRequests
	ViewTasks
	ViewNotifications
	ViewProfile
	ViewAssign
	ViewSettings
	ViewConfirm
	ViewHelp
	ViewCommand
)

const confirmClear = "clear-notifications"

// startMsg triggers the first routing decision after the stored session
// is restored.
type startMsg struct{}

// Model is the root Bubble Tea model. It routes input between the views
// and runs controller and synchronizer calls as tea.Cmds so the render
// loop never blocks on the network.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	sessions *session.Store
	alerts   *alert.Surface
	sync     *appsync.Synchronizer
	groups   *view.GroupsController
	tasks    *view.TasksController
	account  *view.AccountController
	events   *events

	cfg        model.AppConfig
	configPath string

	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	loginView    login.Model
	groupList    grouplist.Model
	detailView   detail.Model
	requestsView requests.Model
	taskList     tasklist.Model
	notifView    notifications.Model
	taskForm     taskform.Model
	settingsView config.Model
	confirmView  confirm.Model
	helpView     helpview.Model
	commandView  command.Model

	feed     appsync.Snapshot
	mounted  bool
	busy     int
	ready    bool
	quitting bool
}

// New wires the session store, gateway, synchronizer and controllers
// from cfg, which was loaded from configPath. cache may be nil to run
// without the snapshot cache.
func New(cfg *model.AppConfig, configPath string, sessions *session.Store, cache store.Store) Model {
	ctx, cancel := context.WithCancel(context.Background())
	ev := newEvents()

	alerts := alert.NewSurface(
		alert.WithMaxVisible(cfg.Alerts.MaxVisible),
		alert.WithDuration(time.Duration(cfg.Alerts.DurationMS)*time.Millisecond),
		alert.WithOnChange(func([]alert.Alert) { ev.alertsChanged() }),
	)
	sessions.Subscribe(func(*model.Session, model.Navigation) { ev.sessionChanged() })

	gateway := api.NewGateway(cfg.Server.BaseURL, sessions, alerts,
		api.WithTimeout(time.Duration(cfg.Server.TimeoutSec)*time.Second),
	)

	syncOpts := []appsync.Option{
		appsync.WithInterval(time.Duration(cfg.Notifications.PollIntervalSec) * time.Second),
		appsync.WithLimit(cfg.Notifications.Limit),
	}
	var groupCache view.GroupCache
	if cache != nil {
		syncOpts = append(syncOpts, appsync.WithCache(cache))
		groupCache = cache
	}
	synchronizer := appsync.New(gateway, sessions, alerts, syncOpts...)

	busy := view.WithBusy(ev.setBusy)
	changed := view.WithOnChange(ev.dataChanged)
	groups := view.NewGroupsController(gateway, sessions, alerts, groupCache, busy, changed)
	tasks := view.NewTasksController(gateway, sessions, alerts, busy, changed)
	account := view.NewAccountController(gateway, sessions, alerts, busy)

	tasks.OnAssigned(func(ctx context.Context) {
		if d := groups.Snapshot().Detail; d != nil {
			if _, err := groups.ViewDetail(ctx, d.ID); err != nil {
				log.Printf("app: reloading group %d: %v", d.ID, err)
			}
		}
	})
	account.OnLogout(func(ctx context.Context, userID int64) {
		synchronizer.Reset()
		if cache == nil {
			return
		}
		if err := cache.Purge(ctx, userID); err != nil {
			log.Printf("app: purging cache for user %d: %v", userID, err)
		}
	})

	k := keys.DefaultKeyMap()
	return Model{
		ctx:          ctx,
		cancel:       cancel,
		sessions:     sessions,
		alerts:       alerts,
		sync:         synchronizer,
		groups:       groups,
		tasks:        tasks,
		account:      account,
		events:       ev,
		cfg:          *cfg,
		configPath:   configPath,
		currentView:  ViewLogin,
		keys:         k,
		loginView:    login.New(80, 24),
		groupList:    grouplist.New(k, 80, 24),
		detailView:   detail.New(k, 80, 24),
		requestsView: requests.New(k, 80, 24),
		taskList:     tasklist.New(k, 80, 24),
		notifView:    notifications.New(k, 80, 24),
		taskForm:     taskform.New(80, 24),
		settingsView: config.New(k, 80, 24),
		confirmView:  confirm.New(80),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
	}
}

// Init restores the persisted session, starts the synchronizer and
// begins listening for background events.
func (m Model) Init() tea.Cmd {
	m.sessions.Load()
	m.account.Mount(m.ctx)
	if err := m.sync.Start(m.ctx); err != nil {
		log.Printf("app: starting synchronizer: %v", err)
	}
	return tea.Batch(
		m.events.wait(),
		m.sync.WaitForUpdate(),
		func() tea.Msg { return startMsg{} },
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.groupList.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.requestsView.SetSize(w, h)
		m.taskList.SetSize(w, h)
		m.notifView.SetSize(w, h)
		m.taskForm.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.confirmView.SetSize(w)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case startMsg:
		return m.onSessionChanged()

	case sessionChangedMsg:
		next, cmd := m.onSessionChanged()
		return next, tea.Batch(cmd, m.events.wait())

	case alertsChangedMsg:
		return m, m.events.wait()

	case busyMsg:
		if msg {
			m.busy++
		} else if m.busy > 0 {
			m.busy--
		}
		return m, m.events.wait()

	case appsync.UpdateMsg:
		m.feed = msg.Snapshot
		cmd := m.notifView.SetSnapshot(msg.Snapshot)
		return m, tea.Batch(cmd, m.sync.WaitForUpdate())

	case dataMsg:
		cmd := m.syncViews()
		return m, tea.Batch(cmd, m.events.wait())

	case callDoneMsg:
		cmd := m.syncViews()
		return m, cmd

	case login.SubmitMsg:
		return m, m.login(msg.Email, msg.Password)

	case login.CancelMsg:
		m.quitting = true
		return m, m.quit()

	case loginFailedMsg:
		cmd := m.loginView.Start()
		return m, cmd

	case grouplist.SelectedGroupMsg:
		m.previousView = ViewGroups
		m.currentView = ViewGroupDetail
		m.detailView.SetLoading(true)
		return m, m.viewGroup(msg.GroupID)

	case grouplist.CriteriaMsg:
		m.groups.ApplyFilter(msg.Criteria)
		cmd := m.syncViews()
		return m, cmd

	case detail.BackMsg:
		m.groups.CloseDetail()
		m.currentView = ViewGroups
		return m, nil

	case detail.AssignMsg:
		return m, m.openAssign(msg)

	case assignReadyMsg:
		m.previousView = ViewGroupDetail
		m.currentView = ViewAssign
		cmd := m.taskForm.Start(msg.groupID, msg.members, msg.preselected, msg.parents)
		return m, cmd

	case taskform.SubmitMsg:
		m.currentView = ViewGroupDetail
		return m, m.assign(msg)

	case taskform.CancelMsg:
		m.currentView = ViewGroupDetail
		return m, nil

	case detail.RemoveMemberMsg:
		return m, m.run(func(ctx context.Context) error { return m.groups.RemoveMember(ctx, msg.UserID) })

	case detail.PromoteMsg:
		return m, m.run(func(ctx context.Context) error { return m.groups.Promote(ctx, msg.GroupID, msg.UserID) })

	case requests.ReviewMsg:
		if msg.Approve {
			return m, m.run(func(ctx context.Context) error { return m.groups.Approve(ctx, msg.RequestID, "") })
		}
		return m, m.run(func(ctx context.Context) error { return m.groups.Reject(ctx, msg.RequestID, "") })

	case requests.CloseMsg:
		m.currentView = ViewGroups
		return m, nil

	case tasklist.CriteriaMsg:
		m.tasks.ApplyFilter(msg.Criteria)
		cmd := m.syncViews()
		return m, cmd

	case notifications.CloseMsg:
		m.sync.CloseDropdown()
		m.currentView = m.previousView
		return m, nil

	case notifications.MarkReadMsg:
		return m, m.background(func(ctx context.Context) error { return m.sync.MarkAsRead(ctx, msg.ID) })

	case notifications.DeleteMsg:
		return m, m.background(func(ctx context.Context) error { return m.sync.Delete(ctx, msg.ID) })

	case notifications.MarkAllReadMsg:
		return m, m.background(m.sync.MarkAllAsRead)

	case notifications.ClearAllMsg:
		m.currentView = ViewConfirm
		cmd := m.confirmView.Ask(confirmClear, appsync.ClearPrompt)
		return m, cmd

	case confirm.ResultMsg:
		m.currentView = ViewNotifications
		if msg.Tag == confirmClear && msg.OK {
			return m, m.background(func(ctx context.Context) error {
				return m.sync.ClearAll(ctx, func(string) bool { return true })
			})
		}
		return m, nil

	case config.DoneMsg:
		if m.sessions.Current() == nil {
			m.currentView = ViewLogin
			return m, nil
		}
		m.currentView = ViewGroups
		return m, nil

	case config.SaveConfigMsg:
		return m.saveConfig(msg.Config)

	case config.ChangePasswordMsg:
		return m, m.run(func(ctx context.Context) error {
			return m.account.ChangePassword(ctx, msg.Current, msg.Next, msg.Confirm)
		})

	case config.UploadMsg:
		return m, m.upload(msg.TaskID, msg.Path)

	case config.RegisterMsg:
		if m.sessions.Current() == nil {
			m.currentView = ViewLogin
		}
		return m, m.run(func(ctx context.Context) error { return m.account.Register(ctx, msg.Input) })

	case profileMsg:
		if m.currentView == ViewProfile {
			m.detailView.SetProfile(msg.profile)
		}
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, m.quit()
		}
		if m.currentView == ViewLogin && msg.String() == "ctrl+n" {
			m.currentView = ViewSettings
			cmd := m.settingsView.StartRegister(nil)
			return m, cmd
		}
		if m.acceptsGlobalKeys() {
			if next, cmd, handled := m.handleGlobalKey(msg); handled {
				return next, cmd
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// acceptsGlobalKeys reports whether single-letter shortcuts may be
// interpreted by the root model rather than typed into an input.
func (m Model) acceptsGlobalKeys() bool {
	switch m.currentView {
	case ViewGroups:
		return !m.groupList.Searching()
	case ViewTasks:
		return !m.taskList.Searching()
	case ViewGroupDetail, ViewRequests, ViewNotifications, ViewProfile, ViewHelp:
		return true
	case ViewSettings:
		return m.settingsView.Mode() == config.ModeMenu
	default:
		return false
	}
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		if m.currentView == ViewGroups || m.currentView == ViewTasks {
			m.quitting = true
			return m, m.quit(), true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case "esc":
		if m.currentView == ViewHelp || m.currentView == ViewProfile {
			m.currentView = ViewGroups
			return m, nil, true
		}

	case "g":
		if m.currentView == ViewGroupDetail {
			break
		}
		return m.navigate(ViewGroups), nil, true

	case "t":
		return m.navigate(ViewTasks), m.run(m.tasks.Load), true

	case "n":
		if m.currentView == ViewNotifications {
			break
		}
		return m.navigate(ViewNotifications), m.background(m.sync.OpenDropdown), true

	case "p":
		if m.currentView == ViewProfile {
			break
		}
		m = m.navigate(ViewProfile)
		m.detailView.SetLoading(true)
		return m, m.loadProfile(), true

	case "R":
		m = m.navigate(ViewRequests)
		cmd := m.syncViews()
		return m, cmd, true

	case "S":
		if m.currentView == ViewSettings {
			break
		}
		m = m.navigate(ViewSettings)
		m.settingsView.Open(m.cfg, m.sessions.Current())
		return m, nil, true

	case "r":
		return m, m.refresh(), true

	case "z":
		m.alerts.DismissLatest()
		return m, nil, true

	case "Z":
		m.alerts.DismissAll()
		return m, nil, true
	}

	if m.currentView == ViewGroups {
		g, ok := m.groupList.Selected()
		switch msg.String() {
		case "J":
			if !ok {
				return m, nil, true
			}
			if sess := m.sessions.Current(); sess != nil && !sess.CanManageGroups() {
				return m, m.run(func(ctx context.Context) error { return m.groups.RequestJoin(ctx, g.ID, "") }), true
			}
			return m, m.run(func(ctx context.Context) error { return m.groups.Join(ctx, g.ID) }), true
		case "L":
			return m, m.run(m.groups.Leave), true
		}
	}
	return m, nil, false
}

// navigate switches to v, closing the notification dropdown and the group
// detail when leaving them.
func (m Model) navigate(v ViewState) Model {
	if m.currentView == ViewNotifications {
		m.sync.CloseDropdown()
	}
	if m.currentView == ViewGroupDetail && v != ViewGroupDetail {
		m.groups.CloseDetail()
	}
	m.previousView = m.currentView
	m.currentView = v
	return m
}

// onSessionChanged mounts the controllers after login and returns to the
// login form once the session is gone, whether by logout or a 401.
func (m Model) onSessionChanged() (tea.Model, tea.Cmd) {
	sess := m.sessions.Current()

	if sess == nil {
		if m.mounted {
			m.groups.Unmount()
			m.tasks.Unmount()
			m.sync.Reset()
			m.mounted = false
		}
		if m.currentView != ViewLogin || m.loginView.Idle() {
			m.currentView = ViewLogin
			cmd := m.loginView.Start()
			return m, cmd
		}
		return m, nil
	}

	if m.mounted {
		cmd := m.syncViews()
		return m, cmd
	}
	m.mounted = true
	m.currentView = ViewGroups
	return m, tea.Batch(m.mount(), m.background(func(ctx context.Context) error {
		return m.sync.Refresh(ctx, true)
	}))
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewGroups:
		m.groupList, cmd = m.groupList.Update(msg)
	case ViewGroupDetail, ViewProfile:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewRequests:
		m.requestsView, cmd = m.requestsView.Update(msg)
	case ViewTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewAssign:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewConfirm:
		m.confirmView, cmd = m.confirmView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// syncViews copies controller state into the list views.
func (m *Model) syncViews() tea.Cmd {
	snap := m.groups.Snapshot()

	var mine int64
	sess := m.sessions.Current()
	if sess != nil && sess.Group != nil {
		mine = sess.Group.ID
	}

	cmds := []tea.Cmd{
		m.groupList.SetGroups(snap.Groups, snap.All, mine),
		m.taskList.SetTasks(m.tasks.Tasks()),
	}
	if sess.CanManageGroups() {
		cmds = append(cmds, m.requestsView.SetRequests(snap.Pending, true))
	} else {
		cmds = append(cmds, m.requestsView.SetRequests(snap.Mine, false))
	}
	if snap.Detail != nil && (m.currentView == ViewGroupDetail || m.currentView == ViewAssign) {
		m.detailView.SetGroup(snap.Detail, sess.CanManageGroups())
	}
	return tea.Batch(cmds...)
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "dismiss":
		m.alerts.DismissLatest()
		return m, nil
	case "dismiss all":
		m.alerts.DismissAll()
		return m, nil
	}

	if m.sessions.Current() == nil {
		if cmd == "quit" || cmd == "q" {
			m.quitting = true
			return m, m.quit()
		}
		return m, nil
	}

	switch cmd {
	case "groups":
		return m.navigate(ViewGroups), nil
	case "tasks":
		return m.navigate(ViewTasks), m.run(m.tasks.Load)
	case "notifications":
		return m.navigate(ViewNotifications), m.background(m.sync.OpenDropdown)
	case "profile":
		m = m.navigate(ViewProfile)
		m.detailView.SetLoading(true)
		return m, m.loadProfile()
	case "requests":
		m = m.navigate(ViewRequests)
		c := m.syncViews()
		return m, c
	case "settings":
		m = m.navigate(ViewSettings)
		m.settingsView.Open(m.cfg, m.sessions.Current())
		return m, nil
	case "refresh", "sync":
		return m, m.refresh()
	case "mark all read":
		return m, m.background(m.sync.MarkAllAsRead)
	case "clear notifications":
		m = m.navigate(ViewNotifications)
		m.currentView = ViewConfirm
		c := m.confirmView.Ask(confirmClear, appsync.ClearPrompt)
		return m, c
	case "leave group":
		return m, m.run(m.groups.Leave)
	case "logout":
		return m, m.logout()
	case "quit", "q":
		m.quitting = true
		return m, m.quit()
	default:
		m.alerts.Show(alert.Warning, fmt.Sprintf("Unknown command %q", cmd))
		return m, nil
	}
}

// quit stops background work and exits.
func (m Model) quit() tea.Cmd {
	m.groups.Unmount()
	m.tasks.Unmount()
	m.account.Unmount()
	m.sync.Stop()
	m.alerts.Close()
	m.events.close()
	m.cancel()
	return tea.Quit
}
