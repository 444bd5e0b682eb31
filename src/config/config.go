package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string
	Version      string

	// Enable Banking provider settings
	BankingAppID      string
	BankingPrivateKey string
	BankingURL        string
	ConnectionTimeout time.Duration
	UseCache          bool

	// Namespace for deterministic fallback transaction ids (UUIDv5)
	ImporterNamespace string

	// Callback URL settings; the provider rejects plaintext redirect targets,
	// so the derived callback URL is coerced to HTTPS before use.
	CallbackBaseURL string

	// Ledger API settings
	LedgerURL   string
	LedgerToken string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// Version is stamped at build time via -ldflags.
var Version = "1.0.0"

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	connectionTimeout := getEnvAsDuration("CONNECTION_TIMEOUT", 30*time.Second)

	apiBaseURL := getEnv("API_BASE_URL", "http://localhost:8080")
	callbackBaseURL := getEnv("CALLBACK_BASE_URL", apiBaseURL)

	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./ledgerlink.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Version:      Version,

		// Provider
		BankingAppID:      getEnv("ENABLE_BANKING_APP_ID", ""),
		BankingPrivateKey: getEnv("ENABLE_BANKING_PRIVATE_KEY", ""),
		BankingURL:        getEnv("ENABLE_BANKING_URL", "https://api.enablebanking.com"),
		ConnectionTimeout: connectionTimeout,
		UseCache:          getEnvAsBool("USE_CACHE", true),

		ImporterNamespace: getEnv("IMPORTER_NAMESPACE", "c4d3aa8c-b0b4-4d1c-9e18-0f9e2b8caf2b"),

		CallbackBaseURL: callbackBaseURL,

		// Ledger
		LedgerURL:   getEnv("LEDGER_URL", ""),
		LedgerToken: getEnv("LEDGER_TOKEN", ""),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, BankingURL=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.BankingURL)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start securely.", key)
	}
	return value
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
