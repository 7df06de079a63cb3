package guidance

import "errors"

// Recoverable error kinds surfaced by the guidance core. They abort the
// in-progress operation and are mirrored as GUIDANCE_ERROR events; none of
// them is fatal to the process.
var (
	// ErrInvalidConfiguration is returned for an unrecognized guidance type
	// or missing required fields for a mode.
	ErrInvalidConfiguration = errors.New("invalid guidance configuration")
	// ErrRouteComputation is returned when the routing provider produced no
	// usable geometry.
	ErrRouteComputation = errors.New("route computation failed")
	// ErrNoReconnectionPoint is returned when the main route has no geometry
	// to reconnect to.
	ErrNoReconnectionPoint = errors.New("no reconnection point on main route")
	// ErrNavigationStart is returned when the navigation player refused to
	// start a session.
	ErrNavigationStart = errors.New("navigation player failed to start")
)
