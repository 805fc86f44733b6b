package user

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles the backend issues.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEngineer Role = "engineer"
	RoleClient   Role = "client"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleManager, RoleEngineer, RoleClient}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEngineer, RoleClient:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Label is the human name shown in the navigation header and profile.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleEngineer:
		return "Engineer"
	case RoleClient:
		return "Client"
	}
	return string(r)
}

func (r Role) Description() string {
	switch r {
	case RoleAdmin:
		return "Full access to every part of the system"
	case RoleManager:
		return "Manages projects and assigns engineers"
	case RoleEngineer:
		return "Works on defects and projects"
	case RoleClient:
		return "Views information about the company's projects"
	}
	return ""
}

// User is the identity returned by the current-user lookup.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CompanyID *int64 `json:"company_id"`
}

func (u *User) HasCompany() bool {
	return u != nil && u.CompanyID != nil
}

// HasRole reports whether the user's role is any of roles.
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

func (u *User) IsManager() bool {
	return u.HasRole(RoleManager)
}

func (u *User) IsEngineer() bool {
	return u.HasRole(RoleEngineer)
}

func (u *User) IsClient() bool {
	return u.HasRole(RoleClient)
}

// Clone returns a deep copy so callers cannot mutate session-owned state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.CompanyID != nil {
		id := *u.CompanyID
		c.CompanyID = &id
	}
	return &c
}
