package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string // identity provider's JWKS endpoint; empty disables auth (dev only)
	CORSOrigins string
	TablePrefix string
	LogDir      string // when set, logs are written to rotating files here as well as stdout
	// AI configuration
	DefaultModel string
	PricingFile  string // optional YAML override for the pricing table
	// Budget policy: the ledger's decision is advisory unless this is set,
	// in which case Submit denies over-budget requests outright.
	BudgetEnforce bool
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   env,
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		JWKSURL:       getEnv("JWKS_URL", ""),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:   tablePrefix,
		LogDir:        getEnv("LOG_DIR", ""),
		DefaultModel:  getEnv("DEFAULT_MODEL", "claude-haiku-4-5"),
		PricingFile:   getEnv("PRICING_FILE", ""),
		BudgetEnforce: getEnv("BUDGET_ENFORCE", "false") == "true",
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
