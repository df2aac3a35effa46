package notify

import "log"

// Backend delivers a notification that has come due. Delivery is
// best-effort; a failed delivery is logged, never retried.
type Backend interface {
	// Name returns the backend identifier (e.g. "desktop", "log").
	Name() string

	// IsEnabled checks if the backend is usable on this machine.
	IsEnabled() bool

	// Deliver presents the notification to the user.
	Deliver(content Content) error
}

// BackendFactory creates a new instance of a Backend.
type BackendFactory func(logger *log.Logger) Backend
