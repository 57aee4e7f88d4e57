package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ATTENDR_HOME", home)
	for _, k := range []string{"ATTENDR_DB_DSN", "ATTENDR_TOKEN_TTL", "ATTENDR_TZ", "ATTENDR_GEOFENCE_LAT", "ATTENDR_FACE_API_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DatabaseDSN != filepath.Join(home, "attendr.db") {
		t.Errorf("DatabaseDSN = %q", cfg.DatabaseDSN)
	}
	if cfg.TokenTTL != DefaultTokenTTL {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
	if cfg.GeofenceLat != DefaultGeofenceLat || cfg.GeofenceRadius != DefaultGeofenceRadius {
		t.Errorf("geofence = %v,%v r=%v", cfg.GeofenceLat, cfg.GeofenceLon, cfg.GeofenceRadius)
	}
	if cfg.IsPostgres() {
		t.Errorf("default DSN should be sqlite")
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ATTENDR_HOME", home)
	t.Setenv("ATTENDR_TOKEN_TTL", "")
	t.Setenv("ATTENDR_TZ", "")
	// godotenv never overrides variables that are already set, so unset rather than blank them
	os.Unsetenv("ATTENDR_TOKEN_TTL")
	os.Unsetenv("ATTENDR_TZ")

	env := "ATTENDR_TOKEN_TTL=2h\nATTENDR_TZ=Asia/Kolkata\n"
	if err := os.WriteFile(filepath.Join(home, ".env"), []byte(env), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.TokenTTL)
	}
	if cfg.Location.String() != "Asia/Kolkata" {
		t.Errorf("Location = %v", cfg.Location)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct{ key, val string }{
		{"ATTENDR_TOKEN_TTL", "soon"},
		{"ATTENDR_FACE_POLL_INTERVAL", "-1s"},
		{"ATTENDR_GEOFENCE_RADIUS", "wide"},
		{"ATTENDR_TZ", "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("ATTENDR_HOME", t.TempDir())
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestIsPostgresDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want bool
	}{
		{"postgres://u:p@localhost/attendr", true},
		{"postgresql://localhost/attendr?sslmode=disable", true},
		{"host=localhost user=u dbname=attendr", true},
		{"/home/u/.attendr/attendr.db", false},
		{"file:attendr.db?cache=shared", false},
	}
	for _, tt := range tests {
		if got := IsPostgresDSN(tt.dsn); got != tt.want {
			t.Errorf("IsPostgresDSN(%q) = %v, want %v", tt.dsn, got, tt.want)
		}
	}
}

func TestParseBoolEnv(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", " on "} {
		if !parseBoolEnv(s) {
			t.Errorf("parseBoolEnv(%q) = false", s)
		}
	}
	for _, s := range []string{"", "0", "nope"} {
		if parseBoolEnv(s) {
			t.Errorf("parseBoolEnv(%q) = true", s)
		}
	}
}
