package core

// State represents the discovery state of a managed unit.
type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
	StateFailed   State = "failed"
	StateUnknown  State = "unknown"
)

// Unit identifies a single managed background service whose journal can be
// queried. A Unit is immutable once resolved for a session.
type Unit struct {
	Name        string `json:"name"`
	State       State  `json:"state"`
	Description string `json:"description,omitempty"`
}

// MapState converts a systemd ActiveState string to a discovery state.
func MapState(active string) State {
	switch active {
	case "active", "activating", "reloading":
		return StateActive
	case "inactive", "deactivating":
		return StateInactive
	case "failed":
		return StateFailed
	default:
		return StateUnknown
	}
}
