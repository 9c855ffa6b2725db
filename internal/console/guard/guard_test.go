package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ecogate-dev/ecogate/internal/console/client"
	"github.com/ecogate-dev/ecogate/internal/console/session"
)

func loading() session.Session {
	return session.Session{State: session.StateLoading}
}

func unauthenticated() session.Session {
	return session.Session{State: session.StateUnauthenticated}
}

func authenticated(defaultPassword bool) session.Session {
	return session.Session{
		State: session.StateAuthenticated,
		User:  &client.User{ID: "u1", Email: "chief@agency.gov", UsingDefaultPassword: defaultPassword},
	}
}

func TestPrivateWaitsWhileLoading(t *testing.T) {
	d := Private(loading(), RouteDashboard)
	assert.Equal(t, OutcomeWait, d.Outcome)
}

func TestPrivateRedirectsToLoginPreservingFrom(t *testing.T) {
	d := Private(unauthenticated(), RouteEstablishments)
	assert.Equal(t, OutcomeRedirect, d.Outcome)
	assert.Equal(t, RouteLogin, d.RedirectTo)
	assert.Equal(t, RouteEstablishments, d.From)
}

func TestPrivateAllowsAuthenticated(t *testing.T) {
	for _, route := range []string{RouteDashboard, RouteEstablishments, RouteInspection, RouteUserManagement, RouteMaps, RouteReport} {
		d := Private(authenticated(false), route)
		assert.Equal(t, OutcomeAllow, d.Outcome, "route %s", route)
	}
}

func TestPrivateForcesDefaultPasswordChange(t *testing.T) {
	d := Private(authenticated(true), RouteDashboard)
	assert.Equal(t, OutcomeRedirect, d.Outcome)
	assert.Equal(t, RouteChangePassword, d.RedirectTo)

	// The change-password screen itself must stay reachable
	d = Private(authenticated(true), RouteChangePassword)
	assert.Equal(t, OutcomeAllow, d.Outcome)
}

func TestPublicWaitsWhileLoading(t *testing.T) {
	d := Public(loading(), NavState{})
	assert.Equal(t, OutcomeWait, d.Outcome)
}

func TestPublicAllowsUnauthenticated(t *testing.T) {
	d := Public(unauthenticated(), NavState{})
	assert.Equal(t, OutcomeAllow, d.Outcome)
}

func TestPublicBouncesAuthenticatedToDashboard(t *testing.T) {
	d := Public(authenticated(false), NavState{})
	assert.Equal(t, OutcomeRedirect, d.Outcome)
	assert.Equal(t, RouteDashboard, d.RedirectTo)
}

func TestPublicBouncesAuthenticatedToCarriedFrom(t *testing.T) {
	d := Public(authenticated(false), NavState{From: RouteEstablishments})
	assert.Equal(t, OutcomeRedirect, d.Outcome)
	assert.Equal(t, RouteEstablishments, d.RedirectTo)
}

func TestPasswordResetRequiresNavState(t *testing.T) {
	// No state at all (deep link)
	d := PasswordReset(NavState{})
	assert.Equal(t, OutcomeRedirect, d.Outcome)
	assert.Equal(t, RouteForgotPassword, d.RedirectTo)

	// Email without timestamp
	d = PasswordReset(NavState{Email: "chief@agency.gov"})
	assert.Equal(t, OutcomeRedirect, d.Outcome)

	// Timestamp without email
	d = PasswordReset(NavState{LastEmailSent: time.Now()})
	assert.Equal(t, OutcomeRedirect, d.Outcome)

	// Complete state from the forgot-password step
	d = PasswordReset(NavState{Email: "chief@agency.gov", LastEmailSent: time.Now()})
	assert.Equal(t, OutcomeAllow, d.Outcome)
}
