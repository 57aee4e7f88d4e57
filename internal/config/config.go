package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultServerAddr   = "127.0.0.1:8080"
	DefaultFaceAPIURL   = "http://127.0.0.1:8000"
	DefaultTokenTTL     = 24 * time.Hour
	DefaultPollInterval = time.Second

	// office the original deployment fenced
	DefaultGeofenceLat    = 28.5450
	DefaultGeofenceLon    = 77.1926
	DefaultGeofenceRadius = 70.0
)

// Config centralises all environment and runtime configuration.
type Config struct {
	Home        string
	DatabaseDSN string

	JWTSecret string
	TokenTTL  time.Duration

	ServerAddr  string
	CORSOrigins string

	FaceAPIURL       string
	FacePollInterval time.Duration

	Location *time.Location

	GeofenceLat    float64
	GeofenceLon    float64
	GeofenceRadius float64

	LogLevel  string
	LogFormat string
	Debug     bool
}

// Load reads an optional .env file (from the working directory, then ATTENDR_HOME) and builds
// the Config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	_ = godotenv.Load(filepath.Join(home, ".env"))

	cfg := &Config{
		Home:        home,
		DatabaseDSN: getEnvOrDefault("ATTENDR_DB_DSN", filepath.Join(home, "attendr.db")),
		JWTSecret:   os.Getenv("ATTENDR_JWT_SECRET"),
		ServerAddr:  getEnvOrDefault("ATTENDR_SERVER_ADDR", DefaultServerAddr),
		CORSOrigins: getEnvOrDefault("ATTENDR_CORS_ORIGINS", "*"),
		FaceAPIURL:  strings.TrimRight(getEnvOrDefault("ATTENDR_FACE_API_URL", DefaultFaceAPIURL), "/"),
		LogLevel:    getEnvOrDefault("ATTENDR_LOG_LEVEL", "info"),
		LogFormat:   getEnvOrDefault("ATTENDR_LOG_FORMAT", "text"),
		Debug:       parseBoolEnv(os.Getenv("ATTENDR_DEBUG")),
	}

	if cfg.TokenTTL, err = durationEnv("ATTENDR_TOKEN_TTL", DefaultTokenTTL); err != nil {
		return nil, err
	}
	if cfg.FacePollInterval, err = durationEnv("ATTENDR_FACE_POLL_INTERVAL", DefaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.GeofenceLat, err = floatEnv("ATTENDR_GEOFENCE_LAT", DefaultGeofenceLat); err != nil {
		return nil, err
	}
	if cfg.GeofenceLon, err = floatEnv("ATTENDR_GEOFENCE_LON", DefaultGeofenceLon); err != nil {
		return nil, err
	}
	if cfg.GeofenceRadius, err = floatEnv("ATTENDR_GEOFENCE_RADIUS", DefaultGeofenceRadius); err != nil {
		return nil, err
	}

	tz := getEnvOrDefault("ATTENDR_TZ", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid ATTENDR_TZ %q: %w", tz, err)
	}

	return cfg, nil
}

// IsPostgres reports whether the DSN points at a postgres server rather than a sqlite file.
func (c *Config) IsPostgres() bool {
	return IsPostgresDSN(c.DatabaseDSN)
}

// IsPostgresDSN reports whether dsn is a postgres URL or key=value connection string.
func IsPostgresDSN(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// RequireSecret fails when no signing secret is configured. Only the server needs one.
func (c *Config) RequireSecret() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("ATTENDR_JWT_SECRET is required but not set")
	}
	return nil
}

// homeDir returns ATTENDR_HOME or ~/.attendr, creating it if needed
func homeDir() (string, error) {
	dir := os.Getenv("ATTENDR_HOME")
	if dir == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(userHome, ".attendr")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create attendr directory: %w", err)
	}
	return dir, nil
}

func getEnvOrDefault(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseBoolEnv(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration like 30s or 12h", key, val)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return f, nil
}
