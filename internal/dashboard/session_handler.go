package dashboard

import (
	"errors"
	"net/http"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/internal/auth"
	"github.com/frahmantamala/construction-dashboard/internal/backend"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/transport"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
)

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, LoginPage{
		Action:        auth.LoginPath,
		Method:        http.MethodPost,
		Fields:        []string{"username", "password"},
		RegisterPath:  "/register",
		Authenticated: h.Sessions.Current().Authenticated(),
	})
}

// Login signs in and lands on the dashboard. A failure stays on the form
// with the backend's message.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.DecodeBody(r, &req, func(values map[string][]string) {
		req.Username = first(values, "username")
		req.Password = first(values, "password")
	}); err != nil {
		h.writeBackendError(w, r, err, "Invalid login form")
		return
	}

	res := h.Sessions.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if !res.OK {
		logger.From(r.Context()).InfoContext(r.Context(), "login rejected", "username", req.Username)
		h.WriteJSON(w, http.StatusUnauthorized, transport.ErrorResponse{Error: res.Message})
		return
	}

	http.Redirect(w, r, auth.LandingPath, http.StatusSeeOther)
}

// Register creates an account without signing in and sends the caller to
// the login form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterRequest
	if err := h.DecodeBody(r, &req, func(values map[string][]string) {
		req.Username = strings.TrimSpace(first(values, "username"))
		req.Email = strings.TrimSpace(first(values, "email"))
		req.Password = first(values, "password")
		req.Role = user.Role(strings.ToLower(strings.TrimSpace(first(values, "role"))))
		if raw := first(values, "company_id"); raw != "" {
			id := formID(values, "company_id")
			req.CompanyID = &id
		}
	}); err != nil {
		h.writeBackendError(w, r, err, "Invalid registration form")
		return
	}

	res := h.Sessions.Register(r.Context(), &req)
	if !res.OK {
		h.writeFormFailure(w, res.Err, res.Message)
		return
	}

	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context()); err != nil {
		logger.From(r.Context()).WarnContext(r.Context(), "logout could not clear the stored token", "error", err)
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

// writeFormFailure keeps a rejected form inline. Backend outages are 502,
// everything else is the caller's to fix.
func (h *Handler) writeFormFailure(w http.ResponseWriter, err error, message string) {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeValidation {
		resp := transport.ErrorResponse{Error: message, Code: appErr.Code}
		if details, ok := appErr.Details.(internal.ValidationErrors); ok {
			resp.Details = details.Errors
		}
		h.WriteJSON(w, appErr.StatusCode, resp)
		return
	}

	status := http.StatusBadRequest
	var apiErr *backend.APIError
	if err != nil && !errors.As(err, &apiErr) {
		status = http.StatusBadGateway
	} else if apiErr != nil && apiErr.StatusCode >= http.StatusInternalServerError {
		status = http.StatusBadGateway
	}
	h.WriteJSON(w, status, transport.ErrorResponse{Error: message})
}
