package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecogate-dev/ecogate/internal/console/client"
)

// mockAPI is a scripted API for driving the store through its states
type mockAPI struct {
	authenticated bool
	user          *client.User
	loginErr      error
	logoutOK      bool
	logoutCalls   int
}

func (m *mockAPI) IsAuthenticated() bool {
	return m.authenticated
}

func (m *mockAPI) Login(email, password string) (*client.LoginResponse, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &client.LoginResponse{Success: true, User: m.user}, nil
}

func (m *mockAPI) Logout() bool {
	m.logoutCalls++
	return m.logoutOK
}

func (m *mockAPI) Me() (*client.User, error) {
	return m.user, nil
}

func TestStoreStartsLoading(t *testing.T) {
	store := NewStore(&mockAPI{})
	assert.Equal(t, StateLoading, store.Current().State)
	assert.Nil(t, store.Current().User)
}

func TestInitResolvesAuthenticated(t *testing.T) {
	user := &client.User{ID: "u1", Email: "chief@agency.gov"}
	store := NewStore(&mockAPI{authenticated: true, user: user})

	sess := store.Init()
	assert.Equal(t, StateAuthenticated, sess.State)
	require.NotNil(t, sess.User)
	assert.Equal(t, "chief@agency.gov", sess.User.Email)
}

func TestInitResolvesUnauthenticated(t *testing.T) {
	store := NewStore(&mockAPI{authenticated: false})

	sess := store.Init()
	assert.Equal(t, StateUnauthenticated, sess.State)
	assert.Nil(t, sess.User)
}

func TestLoginMovesToAuthenticated(t *testing.T) {
	user := &client.User{ID: "u1", Email: "chief@agency.gov"}
	store := NewStore(&mockAPI{user: user})

	got, err := store.Login("chief@agency.gov", "password123")
	require.NoError(t, err)
	assert.Equal(t, user, got)
	assert.Equal(t, StateAuthenticated, store.Current().State)
}

func TestFailedLoginResolvesUnauthenticated(t *testing.T) {
	store := NewStore(&mockAPI{
		loginErr: &client.APIError{Kind: client.KindUnauthorized, Status: 401, Message: "Invalid credentials"},
	})

	_, err := store.Login("chief@agency.gov", "wrong")
	require.Error(t, err)
	assert.Equal(t, StateUnauthenticated, store.Current().State)
	assert.Nil(t, store.Current().User)
}

func TestLogoutClearsStateEvenWhenServerRejects(t *testing.T) {
	user := &client.User{ID: "u1", Email: "chief@agency.gov"}
	api := &mockAPI{authenticated: true, user: user, logoutOK: false}

	store := NewStore(api)
	store.Init()
	require.Equal(t, StateAuthenticated, store.Current().State)

	store.Logout()

	assert.Equal(t, 1, api.logoutCalls, "server logout is still attempted")
	assert.Equal(t, StateUnauthenticated, store.Current().State)
	assert.Nil(t, store.Current().User)
}

func TestSetUserOnlyWhileAuthenticated(t *testing.T) {
	user := &client.User{ID: "u1", Email: "chief@agency.gov"}
	store := NewStore(&mockAPI{authenticated: true, user: user})
	store.Init()

	updated := &client.User{ID: "u1", Email: "chief@agency.gov", FirstName: "Ada"}
	store.SetUser(updated)
	assert.Equal(t, "Ada", store.Current().User.FirstName)

	store.Logout()
	store.SetUser(updated)
	assert.Nil(t, store.Current().User, "stale profile updates must not resurrect a session")
}
