// Package dashboard serves the role-gated views and mutations of the local
// dashboard as JSON.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/internal/auth"
	"github.com/frahmantamala/construction-dashboard/internal/backend"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/session"
	"github.com/frahmantamala/construction-dashboard/internal/stats"
	"github.com/frahmantamala/construction-dashboard/internal/transport"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
)

type SessionAPI interface {
	Current() session.Snapshot
	Login(ctx context.Context, username, password string) session.Result
	Register(ctx context.Context, req *user.RegisterRequest) session.Result
	Logout(ctx context.Context) error
}

type StatsAPI interface {
	ForSession(ctx context.Context) stats.Result
}

// ConstructionAPI is the authenticated part of the backend client.
type ConstructionAPI interface {
	ListCompanies(ctx context.Context) ([]construction.CompanySummary, error)
	GetCompany(ctx context.Context, id int64) (*construction.Company, error)
	CreateCompany(ctx context.Context, req *construction.CreateCompanyRequest) (*construction.Company, error)
	DeleteCompany(ctx context.Context, id int64) error
	AddUserToCompany(ctx context.Context, companyID int64, req *construction.AddUserRequest) (*backend.Ack, error)
	RemoveUserFromCompany(ctx context.Context, companyID, userID int64) (*backend.Ack, error)

	ListMyProjects(ctx context.Context, skip, limit int) ([]construction.Project, error)
	GetMyProject(ctx context.Context, id int64) (*construction.Project, error)
	CreateProject(ctx context.Context, req *construction.CreateProjectRequest) (*construction.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	AddProjectEngineers(ctx context.Context, projectID int64, req *construction.EngineersRequest) (*backend.Ack, error)
	RemoveProjectEngineers(ctx context.Context, projectID int64, req *construction.EngineersRequest) (*backend.Ack, error)
	AssignProjectManager(ctx context.Context, projectID int64, req *construction.AssignManagerRequest) (*backend.Ack, error)
	RemoveProjectManager(ctx context.Context, projectID int64) (*backend.Ack, error)

	ListMyDefects(ctx context.Context, skip, limit int) ([]construction.Defect, error)
	GetMyDefect(ctx context.Context, id int64) (*construction.Defect, error)
	CreateDefect(ctx context.Context, req *construction.CreateDefectRequest) (*construction.Defect, error)
	DeleteDefect(ctx context.Context, id int64) error
	AssignDefectEngineer(ctx context.Context, defectID int64, req *construction.AssignEngineerRequest) (*backend.Ack, error)
	RemoveDefectEngineer(ctx context.Context, defectID int64) (*backend.Ack, error)
}

type Handler struct {
	*transport.BaseHandler
	Sessions SessionAPI
	Stats    StatsAPI
	Backend  ConstructionAPI
	Checker  auth.PermissionChecker
}

func NewHandler(baseHandler *transport.BaseHandler, sessions SessionAPI, statsService StatsAPI, api ConstructionAPI, checker auth.PermissionChecker) *Handler {
	if checker == nil {
		checker = auth.NewPermissionChecker()
	}
	return &Handler{
		BaseHandler: baseHandler,
		Sessions:    sessions,
		Stats:       statsService,
		Backend:     api,
		Checker:     checker,
	}
}

// freshStats recomputes the role-scoped counts. They are never cached, so a
// view rendered after a mutation reflects it.
func (h *Handler) freshStats(ctx context.Context) stats.Stats {
	res := h.Stats.ForSession(ctx)
	if res.Err != nil {
		logger.From(ctx).WarnContext(ctx, "stats unavailable", "error", res.Err)
	}
	return res.Stats
}

func (h *Handler) mutated(w http.ResponseWriter, r *http.Request, status int, result interface{}, message string) {
	h.WriteJSON(w, status, MutationResponse{
		Result:  result,
		Message: message,
		Stats:   h.freshStats(r.Context()),
	})
}

// writeBackendError answers a failed backend call. A rejected token has
// already signed the session out, so the caller is sent to the login page.
func (h *Handler) writeBackendError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrNoToken) {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}

	appErr := backend.ToAppError(err, fallback)
	switch appErr.Type {
	case internal.ErrorTypeValidation, internal.ErrorTypeNotFound, internal.ErrorTypeForbidden, internal.ErrorTypeConflict:
		h.WriteAppError(w, appErr)
	default:
		logger.From(r.Context()).ErrorContext(r.Context(), "backend call failed", "error", err)
		h.WriteJSON(w, http.StatusBadGateway, transport.ErrorResponse{Error: fallback, Code: appErr.Code})
	}
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := h.PathID(r, name)
	if err != nil {
		h.writeBackendError(w, r, err, "Invalid id")
		return 0, false
	}
	return id, true
}

// pagination reads optional skip and limit query values.
func pagination(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return skip, limit
}

// formID parses a single form id. Garbage becomes 0 and fails validation.
func formID(values map[string][]string, key string) int64 {
	v := first(values, key)
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// formIDs accepts repeated keys as well as comma separated lists.
func formIDs(values map[string][]string, key string) []int64 {
	var ids []int64
	for _, raw := range values[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				id = 0
			}
			ids = append(ids, id)
		}
	}
	return ids
}

func first(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
