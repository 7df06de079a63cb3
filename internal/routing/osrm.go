package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/litbeFred/langres-guidance-service/internal/models"
)

// OSRMProvider implements the Provider interface using the OSRM routing API.
// The public demo server is free with fair-use limits; production setups
// should point BaseURL at a self-hosted instance.
type OSRMProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the OSRM API
	profile string       // Routing profile, "foot" for walking tours
	log     *slog.Logger // Logger for logging operations
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// osrmResponse represents the JSON response from the OSRM route service.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // [lon, lat] pairs
		} `json:"geometry"`
		Legs []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Summary  string  `json:"summary"`
			Steps    []struct {
				Name     string `json:"name"`
				Maneuver struct {
					Type     string `json:"type"`
					Modifier string `json:"modifier"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Common errors for the OSRM provider.
var (
	ErrOSRMEmptyResponse   = errors.New("osrm API returned no routes")
	ErrOSRMInvalidGeometry = errors.New("osrm API returned route without geometry")
)

// NewOSRMProvider creates a new OSRM routing provider against the given base
// URL, or the public demo server when baseURL is empty.
func NewOSRMProvider(baseURL string, log *slog.Logger) *OSRMProvider {
	const timeout = 10
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}

	return &OSRMProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: baseURL,
		profile: "foot",
		log:     log,
	}
}

// NewOSRMProviderWithClient creates an OSRM provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewOSRMProviderWithClient(client HTTPClient, baseURL string, log *slog.Logger) *OSRMProvider {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}

	return &OSRMProvider{
		client:  client,
		baseURL: baseURL,
		profile: "foot",
		log:     log,
	}
}

// CalculateRoute requests a walking route between the two points from the
// OSRM route service and converts the first returned route into the internal
// route model.
func (op *OSRMProvider) CalculateRoute(
	ctx context.Context,
	start, end models.Coordinates,
) (*models.Route, error) {
	op.log.DebugContext(ctx, "Routing using OSRM",
		"start_lat", start.Latitude, "start_lon", start.Longitude,
		"end_lat", end.Latitude, "end_lon", end.Longitude)

	// OSRM expects lon,lat ordering in the path.
	path := fmt.Sprintf("/route/v1/%s/%f,%f;%f,%f",
		op.profile, start.Longitude, start.Latitude, end.Longitude, end.Latitude)

	reqURL, err := url.Parse(op.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("overview", "full")
	query.Set("geometries", "geojson")
	query.Set("steps", "true")
	reqURL.RawQuery = query.Encode()

	op.log.DebugContext(ctx, "OSRM request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := op.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute routing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		op.log.ErrorContext(ctx, "OSRM API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("osrm API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed osrmResponse
	if err = json.Unmarshal(body, &parsed); err != nil {
		op.log.ErrorContext(ctx, "Failed to parse OSRM response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode osrm response: %w", err)
	}

	if len(parsed.Routes) == 0 {
		return nil, ErrOSRMEmptyResponse
	}

	return op.convertRoute(&parsed)
}

// Distance returns the haversine great-circle distance in meters.
func (op *OSRMProvider) Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return models.Haversine(lat1, lon1, lat2, lon2)
}

func (op *OSRMProvider) convertRoute(parsed *osrmResponse) (*models.Route, error) {
	const coordsPairLength = 2

	route := parsed.Routes[0]
	if len(route.Geometry.Coordinates) == 0 {
		return nil, ErrOSRMInvalidGeometry
	}

	geometry := make([]models.Coordinates, 0, len(route.Geometry.Coordinates))
	for _, pair := range route.Geometry.Coordinates {
		if len(pair) != coordsPairLength {
			return nil, ErrOSRMInvalidGeometry
		}
		geometry = append(geometry, models.Coordinates{Latitude: pair[1], Longitude: pair[0]})
	}

	var segments []models.Segment
	for _, leg := range route.Legs {
		instructions := make([]string, 0, len(leg.Steps))
		for _, step := range leg.Steps {
			instructions = append(instructions, formatStep(step.Maneuver.Type, step.Maneuver.Modifier, step.Name))
		}

		segments = append(segments, models.Segment{
			From:           "",
			To:             leg.Summary,
			DistanceMeters: leg.Distance,
			Duration:       time.Duration(leg.Duration * float64(time.Second)),
			Instructions:   instructions,
		})
	}

	return &models.Route{
		Geometry:       geometry,
		DistanceMeters: route.Distance,
		Duration:       time.Duration(route.Duration * float64(time.Second)),
		Segments:       segments,
	}, nil
}

// formatStep renders an OSRM maneuver as a human-readable instruction.
func formatStep(maneuverType, modifier, street string) string {
	parts := []string{maneuverType}
	if modifier != "" {
		parts = append(parts, modifier)
	}

	instruction := strings.Join(parts, " ")
	if street != "" {
		instruction += " onto " + street
	}

	return instruction
}
