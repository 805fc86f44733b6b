package auth

import "github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"

type MenuItem struct {
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Path  string      `json:"path"`
	Roles []user.Role `json:"-"`
}

var allRoles = user.Roles

// Menu lists every navigation entry with the roles that see it.
var Menu = []MenuItem{
	{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Roles: allRoles},
	{Key: "companies", Label: "Companies", Path: "/companies", Roles: []user.Role{user.RoleAdmin}},
	{Key: "projects", Label: "Projects", Path: "/projects", Roles: []user.Role{user.RoleAdmin, user.RoleManager}},
	{Key: "defects", Label: "Defects", Path: "/defects", Roles: []user.Role{user.RoleAdmin, user.RoleManager, user.RoleEngineer}},
	{Key: "company", Label: "My company", Path: "/company", Roles: []user.Role{user.RoleClient, user.RoleAdmin}},
	{Key: "profile", Label: "Profile", Path: "/profile", Roles: allRoles},
}

// VisibleMenu filters Menu down to u's role. It is empty for a nil user.
func VisibleMenu(u *user.User) []MenuItem {
	items := make([]MenuItem, 0, len(Menu))
	for _, item := range Menu {
		if u.HasRole(item.Roles...) {
			items = append(items, item)
		}
	}
	return items
}

// RouteRoles returns the roles a menu path is gated to.
func RouteRoles(key string) []user.Role {
	for _, item := range Menu {
		if item.Key == key {
			return item.Roles
		}
	}
	return nil
}
