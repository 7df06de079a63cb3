package routing

import (
	"context"

	"github.com/litbeFred/langres-guidance-service/internal/models"
)

// Provider is an interface that defines the routing operations consumed by
// the guidance core. CalculateRoute computes a walkable route between two
// points; Distance returns the great-circle distance in meters between two
// latitude/longitude pairs.
type Provider interface {
	CalculateRoute(ctx context.Context, start, end models.Coordinates) (*models.Route, error)
	Distance(lat1, lon1, lat2, lon2 float64) float64
}
