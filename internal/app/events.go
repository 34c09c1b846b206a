package app

import (
	tea "github.com/charmbracelet/bubbletea"
)

// sessionChangedMsg reports that the session store was mutated; the new
// state is read from the store.
type sessionChangedMsg struct{}

// alertsChangedMsg reports that the visible alerts changed.
type alertsChangedMsg struct{}

// dataMsg reports that a controller finished loading or mutating data.
type dataMsg struct{}

// busyMsg reports a controller mutation starting (true) or ending.
type busyMsg bool

// events fans callbacks from the session store, the alert surface and the
// controllers into the Bubble Tea loop. Session, alert and data signals are
// coalesced: a pending signal already means "re-read the state".
type events struct {
	session chan struct{}
	alerts  chan struct{}
	data    chan struct{}
	busy    chan bool
	done    chan struct{}
}

func newEvents() *events {
	return &events{
		session: make(chan struct{}, 1),
		alerts:  make(chan struct{}, 1),
		data:    make(chan struct{}, 1),
		busy:    make(chan bool, 32),
		done:    make(chan struct{}),
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (e *events) sessionChanged() { signal(e.session) }
func (e *events) alertsChanged()  { signal(e.alerts) }
func (e *events) dataChanged()    { signal(e.data) }

func (e *events) setBusy(on bool) {
	select {
	case e.busy <- on:
	case <-e.done:
	}
}

func (e *events) close() {
	close(e.done)
}

// wait returns a tea.Cmd that blocks until the next event. Call it again
// after handling each message to keep listening.
func (e *events) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-e.session:
			return sessionChangedMsg{}
		case <-e.alerts:
			return alertsChangedMsg{}
		case <-e.data:
			return dataMsg{}
		case on := <-e.busy:
			return busyMsg(on)
		case <-e.done:
			return nil
		}
	}
}
