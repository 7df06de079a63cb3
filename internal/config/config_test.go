package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/litbeFred/langres-guidance-service/internal/config"
	"github.com/stretchr/testify/assert"
)

func Test_MustLoadFromEnv(t *testing.T) {
	t.Setenv("GUIDE_ENV", "local")
	t.Setenv("GUIDE_PROVIDER_TYPE", "google")
	t.Setenv("GUIDE_PROVIDER_KEY", "testAPIKey")
	t.Setenv("GUIDE_DEVIATION_THRESHOLD", "75")
	t.Setenv("GUIDE_CHECK_INTERVAL", "10s")
	t.Setenv("GUIDE_LANGUAGE", "en")
	t.Setenv("DB_HOST", "testHost")
	t.Setenv("DB_PORT", "12345")
	t.Setenv("DB_USERNAME", "admin")
	t.Setenv("DB_PASSWORD", "adminpass")
	t.Setenv("DB_NAME", "testName")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "google", cfg.ProviderType)
	assert.Equal(t, "testAPIKey", cfg.APIKey)
	assert.InEpsilon(t, 75.0, cfg.Guidance.DeviationThresholdMeters, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Guidance.CheckInterval)
	assert.Equal(t, "en", cfg.Guidance.Language)
	assert.Equal(t, "testHost", cfg.Database.Host)
	assert.Equal(t, "12345", cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "adminpass", cfg.Database.Password)
	assert.Equal(t, "testName", cfg.Database.Name)
}

func Test_MustLoadDefaults(t *testing.T) {
	cfg := config.MustLoad()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "osrm", cfg.ProviderType)
	assert.InEpsilon(t, 50.0, cfg.Guidance.DeviationThresholdMeters, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.Guidance.CheckInterval)
	assert.Equal(t, "fr", cfg.Guidance.Language)
	assert.True(t, cfg.Guidance.AudioEnabled)
	assert.True(t, cfg.Guidance.AutoCorrectDeviations)
}

func Test_MustLoadFromDotEnv(t *testing.T) {
	defer filet.CleanUp(t)
	filet.File(t, ".env", "GUIDE_OSRM_BASE_URL=http://localhost:5000\n")
	defer os.Unsetenv("GUIDE_OSRM_BASE_URL")

	cfg := config.MustLoad()

	assert.Equal(t, "http://localhost:5000", cfg.OSRMBaseURL)
}

func TestMustLoad_IntervalError(t *testing.T) {
	t.Setenv("GUIDE_CHECK_INTERVAL", "error_value")

	assert.PanicsWithValue(t, "failed to parse check interval from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_ThresholdError(t *testing.T) {
	t.Setenv("GUIDE_DEVIATION_THRESHOLD", "-10")

	assert.PanicsWithValue(
		t,
		"failed to parse deviation threshold from configuration, must be a positive number of meters",
		func() {
			config.MustLoad()
		},
	)
}

func TestMustLoad_PortError(t *testing.T) {
	t.Setenv("GUIDE_HEALTH_PORT", "error_value")

	assert.PanicsWithValue(t, "failed to parse port for monitoring server from configuration", func() {
		config.MustLoad()
	})
}
