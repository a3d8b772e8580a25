// Package config provides configuration management for KeyGate.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// ServerConfig holds server-level configuration loaded from environment variables.
type ServerConfig struct {
	Environment Environment
	Port        int

	// DataFile is the path of the JSON state document.
	DataFile string

	// AdminKeyHash is the sha256 hex of the admin key. Empty disables the
	// admin-key login path entirely.
	AdminKeyHash string

	// AdminEmails are externally authenticated users who receive the admin
	// role at session creation.
	AdminEmails []string

	// AccountServiceURL is the base URL of the external game account service.
	AccountServiceURL string

	SaveIntervalSeconds  int // periodic persistence flush (default: 60)
	SweepIntervalSeconds int // session sweep cadence (default: 3600)
	SessionMaxAgeHours   int // idle session lifetime (default: 24)

	// AuthRateLimit caps requests per minute on the unauthenticated auth
	// endpoints, 0 to disable.
	AuthRateLimit int
}

// LoadServerConfig reads server configuration from environment variables.
func LoadServerConfig() ServerConfig {
	env := Environment(os.Getenv("ENV"))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		env = EnvDevelopment
	}

	port := getEnvInt("PORT", 8080)
	if port < 1 || port > 65535 {
		port = 8080
	}

	dataFile := os.Getenv("DATA_FILE")
	if dataFile == "" {
		dataFile = "data/keygate-state.json"
	}

	saveInterval := getEnvInt("SAVE_INTERVAL", 60)
	if saveInterval < 1 {
		saveInterval = 60
	}

	sweepInterval := getEnvInt("SESSION_SWEEP_INTERVAL", 3600)
	if sweepInterval < 1 {
		sweepInterval = 3600
	}

	maxAge := getEnvInt("SESSION_MAX_AGE_HOURS", 24)
	if maxAge < 1 {
		maxAge = 24
	}

	rateLimit := getEnvInt("AUTH_RATE_LIMIT", 30)
	if rateLimit < 0 {
		rateLimit = 0
	}

	return ServerConfig{
		Environment:          env,
		Port:                 port,
		DataFile:             dataFile,
		AdminKeyHash:         strings.TrimSpace(os.Getenv("ADMIN_KEY_HASH")),
		AdminEmails:          getEnvList("ADMIN_EMAILS"),
		AccountServiceURL:    strings.TrimRight(os.Getenv("ACCOUNT_SERVICE_URL"), "/"),
		SaveIntervalSeconds:  saveInterval,
		SweepIntervalSeconds: sweepInterval,
		SessionMaxAgeHours:   maxAge,
		AuthRateLimit:        rateLimit,
	}
}

// IsAdminEmail reports whether email is on the admin allowlist. Comparison
// is case-insensitive.
func (c ServerConfig) IsAdminEmail(email string) bool {
	for _, a := range c.AdminEmails {
		if strings.EqualFold(a, email) {
			return true
		}
	}
	return false
}

// getEnvList reads a comma-separated list from an environment variable,
// trimming whitespace and dropping empty entries.
func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
