package config

import (
	"testing"

	"github.com/nhle/workhub/internal/keys"
	"github.com/nhle/workhub/internal/model"
)

func TestOpenOffersRegistrationToAdminsOnly(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	m.Open(model.AppConfig{}, &model.Session{UserID: 1, Role: model.RoleEmployee})
	if len(m.entries) != 3 {
		t.Fatalf("employee entries = %d, want 3", len(m.entries))
	}

	m.Open(model.AppConfig{}, &model.Session{UserID: 1, Role: model.RoleAdmin})
	if got := m.entries[len(m.entries)-1].mode; got != ModeRegister {
		t.Fatalf("last admin entry = %v, want register", got)
	}
}

func TestServerSubmission(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	cfg := model.AppConfig{}
	cfg.Server.BaseURL = "http://old"
	cfg.Cache.Path = "/tmp/cache.db"
	m.Open(cfg, &model.Session{UserID: 1})
	m.start(ModeServer)

	if m.fb.baseURL != "http://old" {
		t.Fatalf("form not prefilled: %q", m.fb.baseURL)
	}
	m.fb.baseURL = " http://new/api/ "
	m.fb.timeout = "10"
	m.fb.pollInterval = "15"
	m.fb.limit = "20"
	m.fb.maxAlerts = "3"

	msg, ok := m.submission().(SaveConfigMsg)
	if !ok {
		t.Fatalf("got %T, want SaveConfigMsg", m.submission())
	}
	got := msg.Config
	if got.Server.BaseURL != "http://new/api" || got.Server.TimeoutSec != 10 {
		t.Errorf("server = %+v", got.Server)
	}
	if got.Notifications.PollIntervalSec != 15 || got.Notifications.Limit != 20 {
		t.Errorf("notifications = %+v", got.Notifications)
	}
	if got.Alerts.MaxVisible != 3 {
		t.Errorf("alerts = %+v", got.Alerts)
	}
	if got.Cache.Path != "/tmp/cache.db" {
		t.Errorf("cache path lost: %q", got.Cache.Path)
	}
}

func TestRegisterRoleOnlyForAdmins(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.StartRegister(nil)
	m.fb.name = "Ann"
	m.fb.email = "ann@example.com"
	m.fb.password = "secret1"
	m.fb.role = model.RoleAdmin

	msg := m.submission().(RegisterMsg)
	if msg.Input.Role != "" {
		t.Errorf("role = %q for a self-registration, want empty", msg.Input.Role)
	}

	m.StartRegister(&model.Session{UserID: 1, Role: model.RoleAdmin})
	m.fb.role = model.RoleLeader
	msg = m.submission().(RegisterMsg)
	if msg.Input.Role != model.RoleLeader {
		t.Errorf("role = %q, want leader", msg.Input.Role)
	}
}

func TestValidators(t *testing.T) {
	if validateURL("localhost:5000") == nil {
		t.Error("URL without scheme accepted")
	}
	if err := validateURL("http://localhost:5000/api"); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	if validatePositive("n")("0") == nil || validatePositive("n")("x") == nil {
		t.Error("non-positive value accepted")
	}
	if validateMinLength("p", 6)("12345") == nil {
		t.Error("short password accepted")
	}
}
