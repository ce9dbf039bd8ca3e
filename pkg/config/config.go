package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultTargetURL is the repository listing starred by the zero-argument
// invocation.
const DefaultTargetURL = "https://github.com/karpathy?tab=repositories"

// DefaultProfileDir is the persistent browser profile used to remember a
// manual sign-in across runs. The directory is created on first use.
const DefaultProfileDir = "~/.repo-starrer/profile"

// Config holds the application configuration
type Config struct {
	// Starrer
	TargetURL    string
	ProfileDir   string
	StorageState string
	Headless     bool

	// Persistence
	MySQLDSN string

	// Temporal
	TemporalHost string

	// API Server
	APIPort string

	// Screenshots
	ScreenshotDir string
}

// Load loads the configuration from environment variables
func Load() *Config {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		TargetURL:     getEnv("TARGET_URL", DefaultTargetURL),
		ProfileDir:    getEnv("PROFILE_DIR", DefaultProfileDir),
		StorageState:  getEnv("STORAGE_STATE", ""),
		Headless:      getEnvBool("HEADLESS", false),
		MySQLDSN:      getEnv("MYSQL_DSN", "starrer:starrer@tcp(localhost:3306)/starrer?parseTime=true"),
		TemporalHost:  getEnv("TEMPORAL_HOST", "localhost:7233"),
		APIPort:       getEnv("PORT", "8080"),
		ScreenshotDir: getEnv("SCREENSHOT_DIR", "/tmp/screenshots"),
	}
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
