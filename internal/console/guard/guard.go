// Package guard decides whether a navigation target may be entered given the
// current session. Decisions are plain values; callers perform the redirect.
package guard

import (
	"time"

	"github.com/ecogate-dev/ecogate/internal/console/session"
)

// Well-known console routes
const (
	RouteLogin          = "/login"
	RouteDashboard      = "/dashboard"
	RouteChangePassword = "/change-password"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"
	RouteEstablishments = "/establishments"
	RouteInspection     = "/inspection"
	RouteUserManagement = "/user-management"
	RouteProfile        = "/profile"
	RouteMaps           = "/maps"
	RouteReport         = "/report"
)

// Outcome is the category of a guard decision
type Outcome int

const (
	// OutcomeWait means the session is still resolving; render nothing yet
	OutcomeWait Outcome = iota
	OutcomeAllow
	OutcomeRedirect
)

// Decision is the result of evaluating a guard
type Decision struct {
	Outcome    Outcome
	RedirectTo string
	// From is the route the user was trying to reach, carried through a
	// login redirect so they can be returned there afterwards.
	From string
}

func wait() Decision              { return Decision{Outcome: OutcomeWait} }
func allow() Decision             { return Decision{Outcome: OutcomeAllow} }
func redirect(to string) Decision { return Decision{Outcome: OutcomeRedirect, RedirectTo: to} }

func redirectFrom(to, from string) Decision {
	return Decision{Outcome: OutcomeRedirect, RedirectTo: to, From: from}
}

// NavState is contextual state carried between password reset screens. A
// reset entered without it (deep link, refresh) is bounced back to the start
// of the flow.
type NavState struct {
	Email         string
	LastEmailSent time.Time
	From          string
}

// Private guards authenticated-only routes. Unauthenticated users are sent to
// login with the attempted route preserved. Users still on the issued default
// password are forced to change it before reaching anything else.
func Private(sess session.Session, route string) Decision {
	switch sess.State {
	case session.StateLoading:
		return wait()
	case session.StateUnauthenticated:
		return redirectFrom(RouteLogin, route)
	}

	if sess.User != nil && sess.User.UsingDefaultPassword && route != RouteChangePassword {
		return redirect(RouteChangePassword)
	}
	return allow()
}

// Public guards routes that only make sense when signed out, like login.
// Authenticated users bounce to the route they originally wanted, or the
// dashboard when none was carried.
func Public(sess session.Session, nav NavState) Decision {
	switch sess.State {
	case session.StateLoading:
		return wait()
	case session.StateAuthenticated:
		if nav.From != "" {
			return redirect(nav.From)
		}
		return redirect(RouteDashboard)
	}
	return allow()
}

// PasswordReset guards the OTP entry screen. It requires the email and send
// timestamp established by the forgot-password step.
func PasswordReset(nav NavState) Decision {
	if nav.Email == "" || nav.LastEmailSent.IsZero() {
		return redirect(RouteForgotPassword)
	}
	return allow()
}
