package models

// POI is a point of interest on a guided tour. A visitor counts as having
// reached the POI once they are within RadiusMeters of its position.
type POI struct {
	ID           string      // ID is the unique identifier of the point of interest.
	Name         string      // Name is the display name shown and narrated to the visitor.
	Description  string      // Description is the text narrated on arrival.
	Position     Coordinates // Position is the geographic location of the POI.
	Order        int         // Order is the sequence position within the tour.
	RadiusMeters float64     // RadiusMeters is the proximity radius at which the POI counts as reached.
}

// Tour is an ordered collection of points of interest.
type Tour struct {
	ID   string // ID is the unique identifier of the tour.
	Name string // Name is the display name of the tour.
	POIs []POI  // POIs are the tour stops, ordered by their sequence.
}

// TourProgress is a snapshot of how far a guided tour has advanced.
type TourProgress struct {
	VisitedCount int    // Number of POIs already reached.
	TotalCount   int    // Total number of POIs on the tour.
	CurrentPOI   *POI   // The POI currently navigated to, nil when the tour is done.
	Route        *Route // The aggregate route across all POIs, used for deviation checks.
}
