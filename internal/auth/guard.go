// Package auth decides what the signed-in user may see and do.
package auth

import (
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/session"
)

const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"
)

type Decision int

const (
	// DecisionPending means the session is still being restored.
	DecisionPending Decision = iota
	DecisionRedirectLogin
	DecisionRedirectLanding
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectLanding:
		return "redirect_landing"
	case DecisionAllow:
		return "allow"
	}
	return "unknown"
}

// Guard decides a protected route. No roles means any signed-in user.
func Guard(snap session.Snapshot, roles ...user.Role) Decision {
	if snap.Loading {
		return DecisionPending
	}
	if !snap.Authenticated() {
		return DecisionRedirectLogin
	}
	if len(roles) > 0 && !snap.User.HasRole(roles...) {
		return DecisionRedirectLanding
	}
	return DecisionAllow
}
