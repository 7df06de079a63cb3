package models

import "time"

// GuidanceType identifies the mutually exclusive guidance modes.
type GuidanceType string

const (
	// GuidanceNone means no guidance session is active.
	GuidanceNone GuidanceType = "none"
	// GuidanceGuidedTour means the visitor follows a planned multi-POI tour.
	GuidanceGuidedTour GuidanceType = "guided_tour"
	// GuidanceBackOnTrack means the visitor is being steered back to the tour route.
	GuidanceBackOnTrack GuidanceType = "back_on_track"
	// GuidanceFreeNavigation means point-to-point navigation without a tour plan.
	GuidanceFreeNavigation GuidanceType = "free_navigation"
)

// Settings holds the user-tunable guidance behavior. Sub-services share one
// Settings value by reference; any change is a full replace, never a partial
// in-place field mutation from outside.
type Settings struct {
	DeviationThresholdMeters float64       // Maximum allowed distance from the active route.
	AudioEnabled             bool          // Whether narration is spoken.
	Language                 string        // Narration language code, e.g. "fr".
	AutoCorrectDeviations    bool          // Whether a detected deviation starts a correction automatically.
	CheckInterval            time.Duration // Minimum spacing between real deviation checks.
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	const (
		defaultThreshold = 50.0
		defaultInterval  = 5 * time.Second
	)

	return &Settings{
		DeviationThresholdMeters: defaultThreshold,
		AudioEnabled:             true,
		Language:                 "fr",
		AutoCorrectDeviations:    true,
		CheckInterval:            defaultInterval,
	}
}
