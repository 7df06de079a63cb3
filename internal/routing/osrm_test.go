package routing_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/litbeFred/langres-guidance-service/internal/models"
	"github.com/litbeFred/langres-guidance-service/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func TestOSRMProvider_CalculateRoute(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	start := models.Coordinates{Latitude: 47.8625, Longitude: 5.3350}
	end := models.Coordinates{Latitude: 47.8667, Longitude: 5.3333}

	t.Run("successful routing", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Equal(t, "GET", req.Method)
				assert.Contains(t, req.URL.Path, "/route/v1/foot/")
				assert.Contains(t, req.URL.Path, "5.335000,47.862500;5.333300,47.866700")
				assert.Equal(t, "full", req.URL.Query().Get("overview"))
				assert.Equal(t, "geojson", req.URL.Query().Get("geometries"))
				assert.Equal(t, "true", req.URL.Query().Get("steps"))

				// Return mock response
				responseBody := `{
					"code": "Ok",
					"routes": [{
						"distance": 520.3,
						"duration": 390.0,
						"geometry": {"coordinates": [[5.3350, 47.8625], [5.3340, 47.8646], [5.3333, 47.8667]]},
						"legs": [{
							"distance": 520.3,
							"duration": 390.0,
							"summary": "Rue Diderot",
							"steps": [
								{"name": "Rue Diderot", "maneuver": {"type": "depart", "modifier": ""}},
								{"name": "", "maneuver": {"type": "turn", "modifier": "left"}}
							]
						}]
					}]
				}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := routing.NewOSRMProviderWithClient(mockClient, "", logger)
		route, err := provider.CalculateRoute(ctx, start, end)

		require.NoError(t, err)
		require.NotNil(t, route)
		require.Len(t, route.Geometry, 3)
		assert.InEpsilon(t, 47.8625, route.Geometry[0].Latitude, 0.0001)
		assert.InEpsilon(t, 5.3350, route.Geometry[0].Longitude, 0.0001)
		assert.InEpsilon(t, 520.3, route.DistanceMeters, 0.0001)
		assert.Equal(t, 390*time.Second, route.Duration)
		require.Len(t, route.Segments, 1)
		assert.Equal(t, "Rue Diderot", route.Segments[0].To)
		assert.Equal(t, []string{"depart onto Rue Diderot", "turn left"}, route.Segments[0].Instructions)
	})

	t.Run("custom base URL", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "osrm.example.com", req.URL.Host)
				responseBody := `{"code": "Ok", "routes": [{"distance": 1,
					"duration": 1, "geometry": {"coordinates": [[5.0, 47.0], [5.1, 47.1]]}, "legs": []}]}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := routing.NewOSRMProviderWithClient(mockClient, "http://osrm.example.com", logger)
		route, err := provider.CalculateRoute(ctx, start, end)

		require.NoError(t, err)
		require.NotNil(t, route)
	})

	t.Run("empty response from API", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{"code": "NoRoute", "routes": []}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := routing.NewOSRMProviderWithClient(mockClient, "", logger)
		route, err := provider.CalculateRoute(ctx, start, end)

		require.Error(t, err)
		require.Nil(t, route)
		assert.ErrorIs(t, err, routing.ErrOSRMEmptyResponse)
	})

	t.Run("route without geometry", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{"code": "Ok", "routes": [{"distance": 1, "duration": 1,
					"geometry": {"coordinates": []}, "legs": []}]}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := routing.NewOSRMProviderWithClient(mockClient, "", logger)
		route, err := provider.CalculateRoute(ctx, start, end)

		require.Error(t, err)
		require.Nil(t, route)
		assert.ErrorIs(t, err, routing.ErrOSRMInvalidGeometry)
	})

	t.Run("non-200 status code", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusTooManyRequests,
					Body:       io.NopCloser(bytes.NewBufferString("rate limited")),
				}, nil
			},
		}

		provider := routing.NewOSRMProviderWithClient(mockClient, "", logger)
		route, err := provider.CalculateRoute(ctx, start, end)

		require.Error(t, err)
		require.Nil(t, route)
		assert.Contains(t, err.Error(), "osrm API returned status 429")
	})

	t.Run("network error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := routing.NewOSRMProviderWithClient(mockClient, "", logger)
		route, err := provider.CalculateRoute(ctx, start, end)

		require.Error(t, err)
		require.Nil(t, route)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString("not-json")),
				}, nil
			},
		}

		provider := routing.NewOSRMProviderWithClient(mockClient, "", logger)
		route, err := provider.CalculateRoute(ctx, start, end)

		require.Error(t, err)
		require.Nil(t, route)
		assert.Contains(t, err.Error(), "failed to decode osrm response")
	})
}

func TestOSRMProvider_Distance(t *testing.T) {
	provider := routing.NewOSRMProvider("", slog.Default())

	// Porte des Moulins to the cathedral, roughly 900m apart.
	dist := provider.Distance(47.8563, 5.3345, 47.8646, 5.3337)

	assert.InDelta(t, 925.0, dist, 50.0)
}
