package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/litbeFred/langres-guidance-service/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider computes walking routes through the Google Maps
// Directions API.
type GoogleProvider struct {
	client DirectionsAPI // client is the Google Maps API client
	log    *slog.Logger  // log is the logger for logging operations
}

// DirectionsAPI is the narrow slice of the Google Maps client consumed by
// the provider. It allows for easy mocking in tests.
type DirectionsAPI interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// Common errors for the Google provider.
var (
	// ErrEmptyDirections is returned when the Directions API responds with no routes.
	ErrEmptyDirections = errors.New("get empty directions response from Google Maps API")
	// ErrEmptyGeometry is returned when the returned route carries no usable polyline.
	ErrEmptyGeometry = errors.New("google Maps API returned route without geometry")
)

// NewGoogleProvider initializes a new GoogleProvider with the given client and logger.
func NewGoogleProvider(client DirectionsAPI, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// CalculateRoute requests a walking route from start to end and converts the
// first returned route into the internal route model: the overview polyline
// becomes the geometry, legs become named segments with their turn-by-turn
// instructions, and leg distances and durations are summed into the totals.
func (gp *GoogleProvider) CalculateRoute(
	ctx context.Context,
	start, end models.Coordinates,
) (*models.Route, error) {
	gp.log.DebugContext(ctx, "Routing using Google Maps",
		"start_lat", start.Latitude, "start_lon", start.Longitude,
		"end_lat", end.Latitude, "end_lon", end.Longitude)

	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", start.Latitude, start.Longitude),
		Destination: fmt.Sprintf("%f,%f", end.Latitude, end.Longitude),
		Mode:        maps.TravelModeWalking,
	}

	routes, _, err := gp.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate route: %w", err)
	}

	if len(routes) == 0 {
		return nil, ErrEmptyDirections
	}

	return gp.convertRoute(&routes[0])
}

// Distance returns the haversine great-circle distance in meters.
func (gp *GoogleProvider) Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return models.Haversine(lat1, lon1, lat2, lon2)
}

// convertRoute maps a Google Maps route onto the internal route model.
func (gp *GoogleProvider) convertRoute(route *maps.Route) (*models.Route, error) {
	points, err := route.OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode route polyline: %w", err)
	}
	if len(points) == 0 {
		return nil, ErrEmptyGeometry
	}

	geometry := make([]models.Coordinates, 0, len(points))
	for _, point := range points {
		geometry = append(geometry, models.Coordinates{Latitude: point.Lat, Longitude: point.Lng})
	}

	var (
		totalDistance float64
		totalDuration time.Duration
		segments      []models.Segment
	)

	for _, leg := range route.Legs {
		instructions := make([]string, 0, len(leg.Steps))
		for _, step := range leg.Steps {
			if step.HTMLInstructions != "" {
				instructions = append(instructions, step.HTMLInstructions)
			}
		}

		segments = append(segments, models.Segment{
			From:           leg.StartAddress,
			To:             leg.EndAddress,
			DistanceMeters: float64(leg.Distance.Meters),
			Duration:       leg.Duration,
			Instructions:   instructions,
		})

		totalDistance += float64(leg.Distance.Meters)
		totalDuration += leg.Duration
	}

	return &models.Route{
		Geometry:       geometry,
		DistanceMeters: totalDistance,
		Duration:       totalDuration,
		Segments:       segments,
	}, nil
}
