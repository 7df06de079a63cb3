package models

import "time"

// Route is an ordered sequence of geographic coordinates plus summary
// metadata. It is produced by a routing provider and treated as immutable
// afterwards; the session that requested it owns the reference.
type Route struct {
	Geometry       []Coordinates // Ordered polyline of the route.
	DistanceMeters float64       // Total route distance in meters.
	Duration       time.Duration // Estimated total travel time.
	Segments       []Segment     // Optional per-leg breakdown with instructions.
}

// Segment is a sub-route between two named endpoints.
type Segment struct {
	From           string        // Name of the segment start.
	To             string        // Name of the segment end.
	DistanceMeters float64       // Segment distance in meters.
	Duration       time.Duration // Estimated segment travel time.
	Instructions   []string      // Ordered turn-by-turn instructions.
}

// ReconnectionPoint is a coordinate on the main route chosen as the target
// of a correction route.
type ReconnectionPoint struct {
	Position       Coordinates // The chosen coordinate on the main route.
	Index          int         // Index of the coordinate within the route geometry.
	DistanceMeters float64     // Straight-line distance from the user to this point.
	Strategic      bool        // True when chosen by look-ahead rather than nearest-point.
}

// DeviationRecord captures one deviation episode. A record is appended when a
// correction starts and closed out once, when the episode ends; it is never
// mutated otherwise.
type DeviationRecord struct {
	StartedAt                time.Time     // When the deviation was detected.
	Position                 Coordinates   // User position at detection time.
	CorrectionDistanceMeters float64       // Straight-line distance back to the route.
	CompletedAt              time.Time     // When the episode ended (zero while open).
	Duration                 time.Duration // Total episode duration.
	Successful               bool          // Whether the user made it back to the route.
}
