// Package guard decides, for each navigation attempt, whether to render the
// requested view, redirect to login, or render an access-denied state. It is
// a pure function of the current session and the route's declared role
// requirement: it holds no state, never returns an error, and is
// re-evaluated on every session change and navigation attempt.
package guard

import "github.com/medipro/backend/domain"

// State is the guard's rendering decision for a navigation attempt.
type State int

const (
	// StateResolving means the session query is still in flight; no
	// navigation decision is made, since deciding on a stale session could
	// bounce an already-authenticated user to the login screen.
	StateResolving State = iota
	// StateUnauthenticated redirects to login, preserving the requested path.
	StateUnauthenticated
	// StateAuthorized renders the requested view.
	StateAuthorized
	// StateForbidden renders an access-denied notice; unlike
	// StateUnauthenticated it does not silently redirect.
	StateForbidden
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthorized:
		return "authorized"
	case StateForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Requirement is a route's declared role class.
type Requirement int

const (
	RequireNone Requirement = iota
	// RequireDoctor is satisfied by DOCTOR or ADMIN; admin access is a
	// superset of doctor-level access, not a disjoint role.
	RequireDoctor
	// RequireAdmin is satisfied only by ADMIN.
	RequireAdmin
)

// Decision is the evaluated outcome for one navigation attempt.
type Decision struct {
	State State
	// From is the originally requested path, carried so the caller can
	// return there after a successful login.
	From string
	// RedirectTo is set only for StateUnauthenticated.
	RedirectTo string
}

// LoginPath is where unauthenticated navigation is redirected.
const LoginPath = "/login"

// Evaluate maps the session and the route requirement to a rendering state.
// Indeterminate input is treated as resolving, never as a failure.
func Evaluate(s domain.Session, req Requirement, path string) Decision {
	if s.Loading {
		return Decision{State: StateResolving, From: path}
	}
	if !s.User.IsActive() {
		// An inactive account is treated identically to "no session".
		return Decision{State: StateUnauthenticated, From: path, RedirectTo: LoginPath}
	}
	if !satisfies(s.User, req) {
		return Decision{State: StateForbidden, From: path}
	}
	return Decision{State: StateAuthorized, From: path}
}

func satisfies(u *domain.User, req Requirement) bool {
	switch req {
	case RequireAdmin:
		return u.IsAdmin()
	case RequireDoctor:
		return u.CanActAsDoctor()
	default:
		return true
	}
}
