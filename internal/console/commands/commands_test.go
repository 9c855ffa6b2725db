package commands

import (
	"net/http"
	"testing"
	"time"

	"github.com/ecogate-dev/ecogate/internal/console/cookiestore"
	"github.com/ecogate-dev/ecogate/internal/console/guard"
)

// mockCookieStore is an in-memory session store for testing
type mockCookieStore struct {
	sessions map[string][]*http.Cookie
}

func newMockCookieStore() *mockCookieStore {
	return &mockCookieStore{sessions: make(map[string][]*http.Cookie)}
}

func (m *mockCookieStore) SaveCookies(host string, cookies []*http.Cookie) error {
	m.sessions[host] = cookies
	return nil
}

func (m *mockCookieStore) LoadCookies(host string) ([]*http.Cookie, error) {
	cookies, exists := m.sessions[host]
	if !exists {
		return nil, cookiestore.ErrNotFound
	}
	return cookies, nil
}

func (m *mockCookieStore) DeleteCookies(host string) error {
	delete(m.sessions, host)
	return nil
}

// isolateConfigDir points os.UserConfigDir at a temp dir so pending reset
// state doesn't leak into the real one
func isolateConfigDir(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoginRequiresEmail(t *testing.T) {
	t.Setenv("ECOGATE_EMAIL", "")
	t.Setenv("ECOGATE_PASSWORD", "")

	err := runLogin("", "password123", "", newMockCookieStore())
	if err == nil {
		t.Fatal("expected error when email is missing, got nil")
	}

	expected := "email is required (use --email flag or ECOGATE_EMAIL env var)"
	if err.Error() != expected {
		t.Errorf("expected error '%s', got '%s'", expected, err.Error())
	}
}

func TestResetPasswordRequiresPendingReset(t *testing.T) {
	isolateConfigDir(t)

	err := runResetPassword("123456", "", newMockCookieStore())
	if err == nil {
		t.Fatal("expected error without a pending reset, got nil")
	}

	expected := "no password reset in progress. Run 'ecogate forgot-password' first"
	if err.Error() != expected {
		t.Errorf("expected error '%s', got '%s'", expected, err.Error())
	}
}

func TestForgotPasswordEnforcesCooldown(t *testing.T) {
	isolateConfigDir(t)

	state := pendingReset{
		Email:         "chief@agency.gov",
		LastEmailSent: time.Now().Add(-10 * time.Second),
	}
	if err := savePendingReset(state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The cooldown check runs before any config or network access
	err := runForgotPassword("chief@agency.gov", "", newMockCookieStore())
	if err == nil {
		t.Fatal("expected cooldown error, got nil")
	}
	if got := err.Error(); len(got) == 0 || got[:24] != "a code was sent recently" {
		t.Errorf("expected cooldown error, got '%s'", got)
	}
}

func TestPendingResetRoundTrip(t *testing.T) {
	isolateConfigDir(t)

	// Nothing saved yet: the guard rejects the zero state
	nav := loadPendingReset()
	if d := guard.PasswordReset(nav); d.Outcome != guard.OutcomeRedirect {
		t.Error("expected redirect for missing reset state")
	}

	sent := time.Now()
	if err := savePendingReset(pendingReset{Email: "chief@agency.gov", LastEmailSent: sent}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nav = loadPendingReset()
	if nav.Email != "chief@agency.gov" {
		t.Errorf("unexpected email: %s", nav.Email)
	}
	if d := guard.PasswordReset(nav); d.Outcome != guard.OutcomeAllow {
		t.Error("expected allow for complete reset state")
	}

	clearPendingReset()
	nav = loadPendingReset()
	if d := guard.PasswordReset(nav); d.Outcome != guard.OutcomeRedirect {
		t.Error("expected redirect after clearing reset state")
	}
}

func TestValidateNewPassword(t *testing.T) {
	if err := validateNewPassword("password123", "password456"); err == nil || err.Error() != "passwords do not match" {
		t.Errorf("expected mismatch error, got %v", err)
	}
	if err := validateNewPassword("short1", "short1"); err == nil || err.Error() != "password must be at least 8 characters long" {
		t.Errorf("expected length error, got %v", err)
	}
	if err := validateNewPassword("password123", "password123"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCommandStructure(t *testing.T) {
	loginCmd := NewLoginCmd()
	if loginCmd.Use != "login" {
		t.Errorf("expected Use to be 'login', got %s", loginCmd.Use)
	}
	for _, flag := range []string{"email", "password", "server"} {
		if loginCmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to exist", flag)
		}
	}

	usersCmd := NewUsersCmd()
	if !usersCmd.HasSubCommands() {
		t.Error("expected users command to have subcommands")
	}
}
