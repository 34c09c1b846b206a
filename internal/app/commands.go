package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/ui/detail"
	"github.com/nhle/workhub/internal/ui/taskform"
	"github.com/nhle/workhub/internal/view"
)

// callDoneMsg follows every controller call run from the UI.
type callDoneMsg struct{}

// loginFailedMsg re-arms the login form after a rejected attempt.
type loginFailedMsg struct{}

// assignReadyMsg opens the assignment form once parent options are known.
type assignReadyMsg struct {
	groupID     int64
	members     []model.Member
	preselected []int64
	parents     []model.TaskOption
}

// profileMsg carries the loaded profile screen data.
type profileMsg struct {
	profile *detail.Profile
}

// run executes a controller call off the render loop. Controllers alert
// on failure, so the error is only logged.
func (m Model) run(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil && !quietErr(err) {
			log.Printf("app: %v", err)
		}
		return callDoneMsg{}
	}
}

// background is run for calls whose results arrive through the
// synchronizer's update channel.
func (m Model) background(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil && !quietErr(err) {
			log.Printf("app: %v", err)
		}
		return nil
	}
}

func quietErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, view.ErrNotMounted)
}

// mount mounts the data controllers for a fresh session.
func (m Model) mount() tea.Cmd {
	ctx, groups, tasks := m.ctx, m.groups, m.tasks
	return func() tea.Msg {
		var g errgroup.Group
		g.Go(func() error { return groups.Mount(ctx) })
		g.Go(func() error { return tasks.Mount(ctx) })
		if err := g.Wait(); err != nil && !quietErr(err) {
			log.Printf("app: mounting views: %v", err)
		}
		return callDoneMsg{}
	}
}

// refresh reloads every mounted list and the notification feed.
func (m Model) refresh() tea.Cmd {
	return tea.Batch(
		m.run(m.groups.Load),
		m.run(m.tasks.Load),
		m.background(func(ctx context.Context) error { return m.sync.Refresh(ctx, false) }),
	)
}

func (m Model) login(email, password string) tea.Cmd {
	ctx, account := m.ctx, m.account
	return func() tea.Msg {
		if _, err := account.Login(ctx, email, password); err != nil {
			return loginFailedMsg{}
		}
		// The session store notifies the model, which mounts the views.
		return nil
	}
}

func (m Model) logout() tea.Cmd {
	ctx, account := m.ctx, m.account
	return func() tea.Msg {
		if err := account.Logout(ctx); err != nil {
			log.Printf("app: logout: %v", err)
		}
		return nil
	}
}

func (m Model) viewGroup(id int64) tea.Cmd {
	return m.run(func(ctx context.Context) error {
		_, err := m.groups.ViewDetail(ctx, id)
		return err
	})
}

// openAssign loads the parent task options for the selected member and
// then opens the form.
func (m Model) openAssign(msg detail.AssignMsg) tea.Cmd {
	ctx, tasks := m.ctx, m.tasks
	return func() tea.Msg {
		ready := assignReadyMsg{groupID: msg.GroupID, members: msg.Members}
		if msg.Selected == 0 {
			return ready
		}
		ready.preselected = []int64{msg.Selected}
		parents, err := tasks.ParentOptions(ctx, msg.GroupID, msg.Selected)
		if err != nil {
			log.Printf("app: loading parent tasks: %v", err)
		}
		ready.parents = parents
		return ready
	}
}

// assign submits the form to one member or, with several selected, as a
// bulk assignment.
func (m Model) assign(msg taskform.SubmitMsg) tea.Cmd {
	return m.run(func(ctx context.Context) error {
		if len(msg.AssigneeIDs) == 1 {
			return m.tasks.Assign(ctx, msg.AssigneeIDs[0], msg.Form)
		}
		return m.tasks.BulkAssign(ctx, msg.AssigneeIDs, msg.Form)
	})
}

// loadProfile fetches the user record, uploaded files and reports
// concurrently. Partial results are still shown.
func (m Model) loadProfile() tea.Cmd {
	ctx, account := m.ctx, m.account
	return func() tea.Msg {
		p := &detail.Profile{}
		var g errgroup.Group
		g.Go(func() error {
			u, err := account.Profile(ctx)
			p.User = u
			return err
		})
		g.Go(func() error {
			f, err := account.Files(ctx)
			p.Files = f
			return err
		})
		g.Go(func() error {
			r, err := account.Reports(ctx)
			p.Reports = r
			return err
		})
		if err := g.Wait(); err != nil && !quietErr(err) {
			log.Printf("app: loading profile: %v", err)
		}
		return profileMsg{profile: p}
	}
}

// saveConfig persists cfg. The running client keeps its settings until
// restart.
func (m Model) saveConfig(cfg model.AppConfig) (tea.Model, tea.Cmd) {
	if err := model.SaveConfig(m.configPath, &cfg); err != nil {
		log.Printf("app: %v", err)
		m.alerts.Show(alert.Danger, "Failed to save settings")
		return m, nil
	}
	m.cfg = cfg
	m.alerts.Show(alert.Success, "Settings saved. Restart workhub to apply them.")
	return m, nil
}

// upload reads path from disk and attaches it to taskID.
func (m Model) upload(taskID int64, path string) tea.Cmd {
	ctx, account, alerts := m.ctx, m.account, m.alerts
	return func() tea.Msg {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("app: reading upload: %v", err)
			alerts.Show(alert.Danger, fmt.Sprintf("Could not read %s", filepath.Base(path)))
			return nil
		}
		if err := account.Upload(ctx, taskID, filepath.Base(path), content); err != nil && !quietErr(err) {
			log.Printf("app: upload: %v", err)
		}
		return nil
	}
}
