package events

const (
	// EventTypeSessionChanged fires after every session state transition.
	EventTypeSessionChanged = "session.changed"
	// EventTypeSessionForcedLogout fires when the backend rejected the token mid-session.
	EventTypeSessionForcedLogout = "session.forced_logout"
)
