// Package config provides centralized configuration for the Lute API.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/luteorg/lute-api/tools"
)

// Version is the application version reported by /api/appinfo.
// Overridden at build time with -ldflags "-X github.com/luteorg/lute-api/config.Version=...".
var Version = "dev"

// Config holds all application configuration values.
type Config struct {
	Port           string        // HTTP server port (e.g., ":5001")
	DataDir        string        // Directory holding the database and user files
	DBPath         string        // Path to the SQLite database file
	DBURL          string        // Remote libsql URL; takes precedence over DBPath when set
	DBToken        string        // Auth token for DBURL
	AudioDir       string        // Directory for uploaded book audio
	ParserTypes    []string      // Parser types the running install supports
	CORSOrigins    []string      // Allowed CORS origins (empty allows none, "*" allows all)
	RequestTimeout time.Duration // Per-request timeout
	MaxRequestBody int64         // Maximum request body size in bytes
	MaxPageSize    int           // Clamp for table page size (0 = unlimited)
	LogLevel       string        // debug, info, warn, error
	IsDocker       bool          // Running inside the official container image
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() Config {
	// Ignore error if file doesn't exist
	godotenv.Load()

	dataDir := getEnv("LUTE_DATA_DIR", "data")

	requestTimeout := 30
	if val := os.Getenv("LUTE_REQUEST_TIMEOUT"); val != "" {
		if t, err := strconv.Atoi(val); err == nil && t > 0 {
			requestTimeout = t
		}
	}

	maxPageSize := 0
	if val := os.Getenv("LUTE_MAX_PAGE_SIZE"); val != "" {
		if s, err := strconv.Atoi(val); err == nil && s >= 0 {
			maxPageSize = s
		}
	}

	return Config{
		Port:           getEnv("PORT", ":5001"),
		DataDir:        dataDir,
		DBPath:         getEnv("LUTE_DB_PATH", filepath.Join(dataDir, "lute.db")),
		DBURL:          os.Getenv("LUTE_DB_URL"),
		DBToken:        os.Getenv("LUTE_DB_TOKEN"),
		AudioDir:       getEnv("LUTE_AUDIO_DIR", filepath.Join(dataDir, "useraudio")),
		ParserTypes:    tools.SplitCommas(getEnv("LUTE_PARSER_TYPES", "spacedel,classicalchinese,turkish")),
		CORSOrigins:    tools.SplitCommas(os.Getenv("LUTE_CORS_ORIGINS")),
		RequestTimeout: time.Duration(requestTimeout) * time.Second,
		MaxRequestBody: 1 << 20, // 1MB
		MaxPageSize:    maxPageSize,
		LogLevel:       getEnv("LUTE_LOG_LEVEL", "info"),
		IsDocker:       strings.ToLower(os.Getenv("LUTE_IS_DOCKER")) == "true",
	}
}

// DBFilename returns the base name of the database file, or the remote URL when
// a remote database is configured.
func (c Config) DBFilename() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	return filepath.Base(c.DBPath)
}

// getEnv returns the environment variable value or a default if not set.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
