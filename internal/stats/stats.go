// Package stats derives role-scoped counts from the backend's list and detail
// endpoints.
package stats

import (
	"errors"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/session"
)

var ErrStale = errors.New("stats: session changed while computing")

type Stats struct {
	Companies int `json:"companies"`
	Projects  int `json:"projects"`
	Defects   int `json:"defects"`
	Engineers int `json:"engineers"`
}

// Identity tags a computation with the session it was computed for.
type Identity struct {
	UserID    int64     `json:"user_id"`
	Role      user.Role `json:"role"`
	CompanyID *int64    `json:"company_id,omitempty"`
	Version   uint64    `json:"version"`
}

func IdentityOf(snap session.Snapshot) Identity {
	id := Identity{Version: snap.Version}
	if !snap.Authenticated() {
		return id
	}
	id.UserID = snap.User.ID
	id.Role = snap.User.Role
	if snap.User.CompanyID != nil {
		companyID := *snap.User.CompanyID
		id.CompanyID = &companyID
	}
	return id
}

func (id Identity) Equal(other Identity) bool {
	if id.UserID != other.UserID || id.Role != other.Role || id.Version != other.Version {
		return false
	}
	if (id.CompanyID == nil) != (other.CompanyID == nil) {
		return false
	}
	return id.CompanyID == nil || *id.CompanyID == *other.CompanyID
}

// Result carries zeroed Stats when Err is set; Err is for logging only.
type Result struct {
	Identity Identity `json:"identity"`
	Stats    Stats    `json:"stats"`
	Err      error    `json:"-"`
}

// Current reports whether r may still be applied to a view of snap.
func (r Result) Current(snap session.Snapshot) bool {
	return r.Identity.Equal(IdentityOf(snap))
}
