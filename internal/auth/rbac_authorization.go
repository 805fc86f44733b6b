package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/session"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
)

// SessionReader is the read side of the session manager.
type SessionReader interface {
	Current() session.Snapshot
}

type RBACAuthorization struct {
	sessions SessionReader
	checker  PermissionChecker
	logger   *slog.Logger
}

func NewRBACAuthorization(sessions SessionReader, checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	if checker == nil {
		checker = NewPermissionChecker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RBACAuthorization{
		sessions: sessions,
		checker:  checker,
		logger:   logger,
	}
}

func (ra *RBACAuthorization) Checker() PermissionChecker {
	return ra.checker
}

// RequireRoles applies the route guard. Without roles any signed-in user passes.
func (ra *RBACAuthorization) RequireRoles(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := ra.sessions.Current()

			switch Guard(snap, roles...) {
			case DecisionPending:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Session is loading", http.StatusServiceUnavailable)
				return
			case DecisionRedirectLogin:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			case DecisionRedirectLanding:
				ra.logger.InfoContext(r.Context(), "route denied for role",
					"path", r.URL.Path,
					"role", snap.User.Role.String(),
					"required_roles", roles)
				http.Redirect(w, r, LandingPath, http.StatusSeeOther)
				return
			}

			ctx := ContextWithUser(r.Context(), snap.User)
			ctx = logger.With(ctx, "user_id", snap.User.ID, "role", snap.User.Role.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAction gates a mutation. It must run behind RequireRoles.
func (ra *RBACAuthorization) RequireAction(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			if !ra.checker.Can(u, action) {
				ra.logger.WarnContext(r.Context(), "action denied for role",
					"action", string(action),
					"user_id", u.ID,
					"role", u.Role.String())
				http.Redirect(w, r, LandingPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
