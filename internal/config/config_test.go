package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:           "8766",
		SQLiteDBPath:   "./test.db",
		GeminiAPIKey:   "test-key",
		GeminiModel:    "gemini-flash-latest",
		ExtractTimeout: 15 * time.Second,
		SessionTTL:     12 * time.Hour,
		MaxSessions:    256,
		DataBackend:    "sqlite",
		LogLevel:       "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid sqlite backend config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid memory backend without db path",
			mutate: func(c *Config) {
				c.DataBackend = "memory"
				c.SQLiteDBPath = ""
			},
			wantErr: false,
		},
		{
			name: "valid without api key: scan disabled, not an error",
			mutate: func(c *Config) {
				c.GeminiAPIKey = ""
				c.GeminiModel = ""
			},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			mutate:      func(c *Config) { c.Port = "0" },
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			wantErr:     true,
			errorString: "invalid data backend 'sheets'",
		},
		{
			name: "sqlite backend missing database path",
			mutate: func(c *Config) {
				c.DataBackend = "sqlite"
				c.SQLiteDBPath = ""
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name: "api key without model name",
			mutate: func(c *Config) {
				c.GeminiAPIKey = "key"
				c.GeminiModel = ""
			},
			wantErr:     true,
			errorString: "Gemini model name cannot be empty",
		},
		{
			name:        "extract timeout too short",
			mutate:      func(c *Config) { c.ExtractTimeout = 100 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid extract timeout",
		},
		{
			name:        "extract timeout too long",
			mutate:      func(c *Config) { c.ExtractTimeout = time.Hour },
			wantErr:     true,
			errorString: "invalid extract timeout",
		},
		{
			name:        "session ttl too short",
			mutate:      func(c *Config) { c.SessionTTL = time.Second },
			wantErr:     true,
			errorString: "invalid session TTL",
		},
		{
			name:        "max sessions below one",
			mutate:      func(c *Config) { c.MaxSessions = 0 },
			wantErr:     true,
			errorString: "invalid max sessions",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			// Keep filesystem side effects inside the test dir.
			if cfg.SQLiteDBPath != "" {
				cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "test.db")
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errorString)
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Fatalf("expected error containing %q, got %q", tt.errorString, err.Error())
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.DataBackend = "bogus"
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid port", "invalid data backend", "invalid log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("combined error missing %q: %v", want, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	saved := saveEnv(t, "PORT", "SQLITE_DB_PATH", "GEMINI_API_KEY", "GEMINI_MODEL",
		"EXTRACT_TIMEOUT", "SESSION_TTL", "MAX_SESSIONS", "DATA_BACKEND", "LOG_LEVEL")
	defer restoreEnv(saved)

	cfg := Load()

	if cfg.Port != "8766" {
		t.Errorf("Port = %s, want 8766", cfg.Port)
	}
	if cfg.SQLiteDBPath != "./data/kakeibo.db" {
		t.Errorf("SQLiteDBPath = %s, want ./data/kakeibo.db", cfg.SQLiteDBPath)
	}
	if cfg.GeminiModel != "gemini-flash-latest" {
		t.Errorf("GeminiModel = %s, want gemini-flash-latest", cfg.GeminiModel)
	}
	if cfg.ExtractTimeout != 15*time.Second {
		t.Errorf("ExtractTimeout = %v, want 15s", cfg.ExtractTimeout)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, want 12h", cfg.SessionTTL)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %s, want sqlite", cfg.DataBackend)
	}
	if cfg.ScanEnabled() {
		t.Error("ScanEnabled must be false without GEMINI_API_KEY")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	saved := saveEnv(t, "PORT", "GEMINI_API_KEY", "EXTRACT_TIMEOUT", "DATA_BACKEND", "MAX_SESSIONS")
	defer restoreEnv(saved)

	os.Setenv("PORT", "9000")
	os.Setenv("GEMINI_API_KEY", "abc123")
	os.Setenv("EXTRACT_TIMEOUT", "30s")
	os.Setenv("DATA_BACKEND", "memory")
	os.Setenv("MAX_SESSIONS", "16")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Port = %s, want 9000", cfg.Port)
	}
	if !cfg.ScanEnabled() {
		t.Error("ScanEnabled must be true when GEMINI_API_KEY is set")
	}
	if cfg.ExtractTimeout != 30*time.Second {
		t.Errorf("ExtractTimeout = %v, want 30s", cfg.ExtractTimeout)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %s, want memory", cfg.DataBackend)
	}
	if cfg.MaxSessions != 16 {
		t.Errorf("MaxSessions = %d, want 16", cfg.MaxSessions)
	}
}

func TestLoad_IgnoresMalformedEnvValues(t *testing.T) {
	saved := saveEnv(t, "EXTRACT_TIMEOUT", "MAX_SESSIONS")
	defer restoreEnv(saved)

	os.Setenv("EXTRACT_TIMEOUT", "not-a-duration")
	os.Setenv("MAX_SESSIONS", "many")

	cfg := Load()

	if cfg.ExtractTimeout != 15*time.Second {
		t.Errorf("malformed duration should fall back to default, got %v", cfg.ExtractTimeout)
	}
	if cfg.MaxSessions != 256 {
		t.Errorf("malformed int should fall back to default, got %d", cfg.MaxSessions)
	}
}

// saveEnv snapshots and clears the given variables so tests control them fully.
func saveEnv(t *testing.T, keys ...string) map[string]string {
	t.Helper()
	saved := make(map[string]string, len(keys))
	for _, k := range keys {
		saved[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	return saved
}

func restoreEnv(saved map[string]string) {
	for k, v := range saved {
		if v == "" {
			os.Unsetenv(k)
		} else {
			os.Setenv(k, v)
		}
	}
}
