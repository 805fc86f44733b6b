package session

import (
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/core/events"
)

// Snapshot is one immutable state of the session. Version increases on every
// transition, so readers can tell which of two snapshots is newer.
type Snapshot struct {
	Version uint64
	Token   string
	User    *user.User
	Loading bool
}

// Authenticated reports whether a validated user is signed in.
func (s Snapshot) Authenticated() bool {
	return s.User != nil && s.Token != ""
}

func (s Snapshot) HasRole(roles ...user.Role) bool {
	if !s.Authenticated() {
		return false
	}
	return s.User.HasRole(roles...)
}

func (s Snapshot) clone() Snapshot {
	s.User = s.User.Clone()
	return s
}

// ChangedEvent is published on the bus after every transition.
type ChangedEvent struct {
	events.BaseEvent
	Snapshot Snapshot `json:"-"`
}

func newChangedEvent(snap Snapshot) *ChangedEvent {
	data := map[string]interface{}{
		"version":       snap.Version,
		"authenticated": snap.Authenticated(),
		"loading":       snap.Loading,
	}
	if snap.User != nil {
		data["user_id"] = snap.User.ID
		data["role"] = snap.User.Role.String()
	}
	return &ChangedEvent{
		BaseEvent: events.NewBaseEvent(events.EventTypeSessionChanged, data),
		Snapshot:  snap,
	}
}

// ForcedLogoutEvent is published when a backend 401 ended the session.
type ForcedLogoutEvent struct {
	events.BaseEvent
	Reason string `json:"reason"`
}

func newForcedLogoutEvent(reason string, version uint64) *ForcedLogoutEvent {
	return &ForcedLogoutEvent{
		BaseEvent: events.NewBaseEvent(events.EventTypeSessionForcedLogout, map[string]interface{}{
			"reason":  reason,
			"version": version,
		}),
		Reason: reason,
	}
}
