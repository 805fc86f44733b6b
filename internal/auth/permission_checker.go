package auth

import "github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"

// Action names a mutation the dashboard may offer.
type Action string

const (
	ActionCreateCompany     Action = "company.create"
	ActionDeleteCompany     Action = "company.delete"
	ActionManageMembers     Action = "company.members"
	ActionCreateProject     Action = "project.create"
	ActionDeleteProject     Action = "project.delete"
	ActionManageEngineers   Action = "project.engineers"
	ActionAssignManager     Action = "project.manager"
	ActionCreateDefect      Action = "defect.create"
	ActionDeleteDefect      Action = "defect.delete"
	ActionAssignDefectOwner Action = "defect.engineer"
)

var (
	adminOnly       = []user.Role{user.RoleAdmin}
	adminOrManager  = []user.Role{user.RoleAdmin, user.RoleManager}
	projectStaff    = []user.Role{user.RoleAdmin, user.RoleManager, user.RoleEngineer}
	actionRoleTable = map[Action][]user.Role{
		ActionCreateCompany:     adminOnly,
		ActionDeleteCompany:     adminOnly,
		ActionManageMembers:     adminOnly,
		ActionCreateProject:     adminOrManager,
		ActionDeleteProject:     adminOrManager,
		ActionManageEngineers:   adminOrManager,
		ActionAssignManager:     adminOrManager,
		ActionCreateDefect:      projectStaff,
		ActionDeleteDefect:      adminOrManager,
		ActionAssignDefectOwner: adminOrManager,
	}
)

type PermissionChecker interface {
	Can(u *user.User, action Action) bool
	AllowedActions(u *user.User) []Action
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

// Can reports whether u may perform action. Unknown actions are denied.
func (c *DefaultPermissionChecker) Can(u *user.User, action Action) bool {
	roles, ok := actionRoleTable[action]
	if !ok {
		return false
	}
	return u.HasRole(roles...)
}

func (c *DefaultPermissionChecker) AllowedActions(u *user.User) []Action {
	ordered := []Action{
		ActionCreateCompany, ActionDeleteCompany, ActionManageMembers,
		ActionCreateProject, ActionDeleteProject, ActionManageEngineers, ActionAssignManager,
		ActionCreateDefect, ActionDeleteDefect, ActionAssignDefectOwner,
	}
	allowed := make([]Action, 0, len(ordered))
	for _, a := range ordered {
		if c.Can(u, a) {
			allowed = append(allowed, a)
		}
	}
	return allowed
}
