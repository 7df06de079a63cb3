package config

import (
	"github.com/joho/godotenv"
	"github.com/litbeFred/langres-guidance-service/internal/models"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the guidance service.
// It includes the environment, monitoring server port, routing provider
// selection, the guidance behavior settings, and database configuration.
//
// Fields:
// - Env: The current environment (e.g., local, dev, prod).
// - Port: The port for the guidance monitoring server.
// - ProviderType: The type of routing provider to use (google, osrm).
// - APIKey: The API key for accessing external services (required for Google).
// - OSRMBaseURL: Base URL override for a self-hosted OSRM instance.
// - Guidance: The live guidance behavior settings shared by sub-services.
// - Database: Configuration settings for the PostgreSQL tour catalog.
type Config struct {
	Env          string          // Env is the current environment: local, dev, prod.
	Port         int             // Port is the guidance monitoring server port.
	ProviderType string          // ProviderType specifies which routing provider to use.
	APIKey       string          // The API key for accessing external services.
	OSRMBaseURL  string          // Base URL for a self-hosted OSRM route service.
	Guidance     models.Settings // Guidance holds the deviation/narration behavior settings.
	Database     PostgresConfig  // Database holds the postgres catalog configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// MustLoad loads the configuration from the environment (with an optional
// .env file) and returns a Config struct. It panics when a value cannot be
// parsed, since the service cannot run with a broken configuration.
func MustLoad() *Config {
	_ = godotenv.Load()

	vpr := viper.New()
	vpr.SetEnvPrefix("GUIDE")
	vpr.AutomaticEnv()

	vpr.SetDefault("env", "production")
	vpr.SetDefault("health_port", 8080)
	vpr.SetDefault("provider_type", "osrm")
	vpr.SetDefault("osrm_base_url", "")
	vpr.SetDefault("deviation_threshold", 50.0)
	vpr.SetDefault("check_interval", "5s")
	vpr.SetDefault("language", "fr")
	vpr.SetDefault("audio_enabled", true)
	vpr.SetDefault("auto_correct", true)

	// The database block is shared infrastructure and keeps its unprefixed names.
	for key, env := range map[string]string{
		"db_host":     "DB_HOST",
		"db_port":     "DB_PORT",
		"db_username": "DB_USERNAME",
		"db_password": "DB_PASSWORD",
		"db_name":     "DB_NAME",
	} {
		_ = vpr.BindEnv(key, env)
	}

	interval := vpr.GetDuration("check_interval")
	if interval <= 0 {
		panic("failed to parse check interval from configuration")
	}

	threshold := vpr.GetFloat64("deviation_threshold")
	if threshold <= 0 {
		panic("failed to parse deviation threshold from configuration, must be a positive number of meters")
	}

	healthPort := vpr.GetInt("health_port")
	if healthPort <= 0 {
		panic("failed to parse port for monitoring server from configuration")
	}

	return &Config{
		Env:          vpr.GetString("env"),
		Port:         healthPort,
		ProviderType: vpr.GetString("provider_type"),
		APIKey:       vpr.GetString("provider_key"),
		OSRMBaseURL:  vpr.GetString("osrm_base_url"),
		Guidance: models.Settings{
			DeviationThresholdMeters: threshold,
			AudioEnabled:             vpr.GetBool("audio_enabled"),
			Language:                 vpr.GetString("language"),
			AutoCorrectDeviations:    vpr.GetBool("auto_correct"),
			CheckInterval:            interval,
		},
		Database: PostgresConfig{
			Host:     vpr.GetString("db_host"),
			Port:     vpr.GetString("db_port"),
			User:     vpr.GetString("db_username"),
			Password: vpr.GetString("db_password"),
			Name:     vpr.GetString("db_name"),
		},
	}
}
