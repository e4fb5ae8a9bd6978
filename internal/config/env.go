package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Env holds process-level configuration that is not user editable.
type Env struct {
	Dev          bool
	SettingsPath string
	Log          LogConfig
	Results      ResultsConfig
	Web          WebConfig
	MetricsAddr  string
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string // trace|debug|info|warn|error
	Format string // json|console
}

// ResultsConfig selects the backend of the result slot.
type ResultsConfig struct {
	Backend       string // memory|redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// WebConfig configures the HTTP bridge.
type WebConfig struct {
	Port        string
	FrontendDir string
	BodyLimit   int
}

// LoadEnv reads an optional .env file and the process environment.
// A missing .env file is not an error; the returned flag reports whether one was found.
func LoadEnv(files ...string) (Env, bool) {
	found := godotenv.Load(files...) == nil

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return Env{
		Dev:          getEnvAsBool("DEV", false),
		SettingsPath: getEnv("SETTINGS_PATH", filepath.Join(homeDir, ".spam-trainer", "settings.yaml")),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Results: ResultsConfig{
			Backend:       strings.ToLower(getEnv("RESULTS_BACKEND", "memory")),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			TTL:           getEnvAsDuration("RESULTS_TTL", "12h"),
		},
		Web: WebConfig{
			Port:        getEnv("PORT", "8080"),
			FrontendDir: getEnv("FRONTEND_DIR", "./frontend"),
			BodyLimit:   getEnvAsInt("BODY_LIMIT", 20*1024*1024),
		},
		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}, found
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if duration, err := time.ParseDuration(getEnv(key, defaultValue)); err == nil && duration > 0 {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
