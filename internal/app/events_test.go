package app

import "testing"

func TestEventsCoalesceSignals(t *testing.T) {
	e := newEvents()
	defer e.close()

	e.sessionChanged()
	e.sessionChanged()

	if _, ok := e.wait()().(sessionChangedMsg); !ok {
		t.Fatal("expected sessionChangedMsg")
	}

	e.alertsChanged()
	if _, ok := e.wait()().(alertsChangedMsg); !ok {
		t.Fatal("second session signal should have been coalesced")
	}
}

func TestEventsBusy(t *testing.T) {
	e := newEvents()
	defer e.close()

	e.setBusy(true)
	msg, ok := e.wait()().(busyMsg)
	if !ok || !bool(msg) {
		t.Fatalf("got %#v, want busyMsg(true)", msg)
	}
}

func TestEventsWaitReturnsNilAfterClose(t *testing.T) {
	e := newEvents()
	e.close()

	if msg := e.wait()(); msg != nil {
		t.Fatalf("got %#v after close, want nil", msg)
	}
	// Must not block once closed.
	e.setBusy(false)
}
