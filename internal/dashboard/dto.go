package dashboard

import (
	"github.com/frahmantamala/construction-dashboard/internal/auth"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/stats"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginPage describes the login form.
type LoginPage struct {
	Action        string   `json:"action"`
	Method        string   `json:"method"`
	Fields        []string `json:"fields"`
	RegisterPath  string   `json:"register_path"`
	Authenticated bool     `json:"authenticated"`
}

type DashboardResponse struct {
	User            *user.User      `json:"user"`
	RoleLabel       string          `json:"role_label"`
	RoleDescription string          `json:"role_description"`
	Stats           stats.Stats     `json:"stats"`
	Menu            []auth.MenuItem `json:"menu"`
	Actions         []auth.Action   `json:"actions"`
	QuickLinks      []auth.MenuItem `json:"quick_links"`
}

type ProfileResponse struct {
	User            *user.User  `json:"user"`
	RoleLabel       string      `json:"role_label"`
	RoleDescription string      `json:"role_description"`
	Stats           stats.Stats `json:"stats"`
}

// MutationResponse follows every successful change, with freshly computed stats.
type MutationResponse struct {
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
	Stats   stats.Stats `json:"stats"`
}

type CompaniesResponse struct {
	Companies []construction.CompanySummary `json:"companies"`
}

type ProjectsResponse struct {
	Projects []construction.Project `json:"projects"`
}

type DefectsResponse struct {
	Defects []construction.Defect `json:"defects"`
}
