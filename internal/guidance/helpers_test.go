package guidance_test

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/litbeFred/langres-guidance-service/internal/events"
	"github.com/litbeFred/langres-guidance-service/internal/metrics"
	"github.com/litbeFred/langres-guidance-service/internal/models"
	"github.com/litbeFred/langres-guidance-service/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

// newTestMetrics returns metrics registered on a throwaway registry so
// parallel tests never collide on collector names.
func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}

// testSettings returns guidance settings tuned for tests: a 50m threshold,
// narration off, and a check interval short enough that the rate limiter
// never suppresses a check.
func testSettings() *models.Settings {
	return &models.Settings{
		DeviationThresholdMeters: 50,
		AudioEnabled:             false,
		Language:                 "fr",
		AutoCorrectDeviations:    true,
		CheckInterval:            time.Nanosecond,
	}
}

// stubDistance backs the provider's Distance method with the real haversine
// formula so geometric assertions hold.
func stubDistance(provider *mocks.Provider) {
	provider.On("Distance", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(lat1, lon1, lat2, lon2 float64) float64 {
			return models.Haversine(lat1, lon1, lat2, lon2)
		}).Maybe()
}

// stubStraightRoutes makes the provider answer every routing request with a
// two-point straight line between the requested endpoints.
func stubStraightRoutes(provider *mocks.Provider) {
	provider.On("CalculateRoute", mock.Anything, mock.Anything, mock.Anything).
		Return(func(_ context.Context, start, end models.Coordinates) *models.Route {
			return &models.Route{
				Geometry:       []models.Coordinates{start, end},
				DistanceMeters: start.DistanceTo(end),
				Duration:       time.Minute,
			}
		}, nil).Maybe()
}

const metersPerDegreeLatitude = 111320.0

// straightRoute builds a route heading due north from the Langres old town,
// with points spaced roughly stepMeters apart.
func straightRoute(points int, stepMeters float64) *models.Route {
	route := &models.Route{}
	for i := range points {
		route.Geometry = append(route.Geometry, models.Coordinates{
			Latitude:  47.8600 + float64(i)*stepMeters/metersPerDegreeLatitude,
			Longitude: 5.3350,
		})
	}
	route.DistanceMeters = float64(points-1) * stepMeters

	return route
}

// eastOf shifts a coordinate east by roughly the given number of meters.
func eastOf(pos models.Coordinates, meters float64) models.Coordinates {
	metersPerDegree := metersPerDegreeLatitude * math.Cos(pos.Latitude*math.Pi/180)

	return models.Coordinates{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude + meters/metersPerDegree,
	}
}

// eventRecorder accumulates guidance events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) listen(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, evt)
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]events.Event(nil), r.events...)
}

func (r *eventRecorder) byType(eventType events.Type) []events.Event {
	var matched []events.Event
	for _, evt := range r.all() {
		if evt.Type == eventType {
			matched = append(matched, evt)
		}
	}

	return matched
}

func (r *eventRecorder) count(eventType events.Type) int {
	return len(r.byType(eventType))
}

// typeIndex returns the position of the first event of the given type in
// the recorded sequence, or -1.
func (r *eventRecorder) typeIndex(eventType events.Type) int {
	for idx, evt := range r.all() {
		if evt.Type == eventType {
			return idx
		}
	}

	return -1
}
