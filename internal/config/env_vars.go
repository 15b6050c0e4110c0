package config

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	appNameVar    = "APP_NAME"
	backendURLVar = "BACKEND_BASE_URL"
	logLevelVar   = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Kenesis Engine")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetBackendBaseURL returns the base URL of the Kenesis backend API
// (e.g. "https://api.kenesis.io"). All REST calls are made relative to it.
func (EnvVars) GetBackendBaseURL() string {
	return GetEnv(backendURLVar, "http://localhost:5000")
}

// LoadDotEnv loads a .env file if present. Missing files are not an error;
// deployed environments configure through real environment variables.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
