package routing_test

import (
	"log/slog"
	"testing"

	"github.com/litbeFred/langres-guidance-service/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	logger := slog.Default()

	t.Run("create Google provider successfully", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:      routing.ProviderTypeGoogle,
			APIKey:    "test-api-key",
			RateLimit: 10,
			Logger:    logger,
		}

		provider, err := routing.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
		// Verify it's a GoogleProvider by type assertion
		_, ok := provider.(*routing.GoogleProvider)
		assert.True(t, ok, "expected provider to be *GoogleProvider")
	})

	t.Run("create Google provider without API key fails", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:      routing.ProviderTypeGoogle,
			APIKey:    "", // Empty API key
			RateLimit: 10,
			Logger:    logger,
		}

		provider, err := routing.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		assert.Contains(t, err.Error(), "API key is required for Google provider")
	})

	t.Run("create Google provider without rate limit", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:      routing.ProviderTypeGoogle,
			APIKey:    "test-api-key",
			RateLimit: 0, // No rate limit
			Logger:    logger,
		}

		provider, err := routing.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
	})

	t.Run("create OSRM provider successfully", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:   routing.ProviderTypeOSRM,
			Logger: logger,
		}

		provider, err := routing.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
		// Verify it's an OSRMProvider by type assertion
		_, ok := provider.(*routing.OSRMProvider)
		assert.True(t, ok, "expected provider to be *OSRMProvider")
	})

	t.Run("create OSRM provider with base URL override", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:    routing.ProviderTypeOSRM,
			BaseURL: "http://localhost:5000",
			Logger:  logger,
		}

		provider, err := routing.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
	})

	t.Run("unsupported provider type", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:   routing.ProviderType("unsupported"),
			Logger: logger,
		}

		provider, err := routing.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		assert.Contains(t, err.Error(), "unsupported provider type: unsupported")
	})

	t.Run("empty provider type", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:   routing.ProviderType(""),
			Logger: logger,
		}

		provider, err := routing.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		assert.Contains(t, err.Error(), "unsupported provider type")
	})
}

func TestProviderType_Constants(t *testing.T) {
	// Verify that provider type constants are correctly defined
	assert.Equal(t, "google", string(routing.ProviderTypeGoogle))
	assert.Equal(t, "osrm", string(routing.ProviderTypeOSRM))
}
