// Package config loads host-process settings from the environment.
//
// The host is env-first: every knob has a KISAME_* variable and a sane
// default, and a .env file is honored for development. Backend URL
// resolution is intentionally NOT done here — see internal/backend, which
// re-reads its config chain on every call.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port      int
	Env       string
	LogLevel  string
	LogFormat string

	// Remote backend
	BackendURLOverride string // KISAME_BACKEND_URL, highest-priority source
	BackendConfigFile  string // KISAME_BACKEND_CONFIG, explicit config file path

	// Local fallback engine
	PythonBin   string // KISAME_PYTHON, interpreter override
	EngineEntry string // KISAME_ENGINE_ENTRY, entry-point override
	MaxPackets  int    // KISAME_MAX_PACKETS, 0 means no cap
	NoSkipHash  bool   // KISAME_NO_SKIP_HASH, force hashing even when asked to skip
}

// Load reads configuration from the environment, honoring a .env file when
// present. envFile may be empty.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, err
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Port:               getEnvAsInt("PORT", 8717),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		BackendURLOverride: getEnv("KISAME_BACKEND_URL", ""),
		BackendConfigFile:  getEnv("KISAME_BACKEND_CONFIG", ""),
		PythonBin:          getEnv("KISAME_PYTHON", ""),
		EngineEntry:        getEnv("KISAME_ENGINE_ENTRY", ""),
		MaxPackets:         getEnvAsInt("KISAME_MAX_PACKETS", 0),
		NoSkipHash:         getEnvAsBool("KISAME_NO_SKIP_HASH", false),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
