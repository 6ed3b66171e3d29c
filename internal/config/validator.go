package config

import (
	"fmt"
	"os"
	"strings"
)

// RequiredPostgresEnvVars must be set when STORE_DRIVER=postgres
var RequiredPostgresEnvVars = []string{
	"DB_USER",
	"DB_PASSWORD",
	"DB_HOST",
	"DB_PORT",
	"DB_NAME",
}

// ValidateEnv checks that the variables required by the selected store
// driver are set
func ValidateEnv() error {
	if !strings.EqualFold(os.Getenv("STORE_DRIVER"), StoreDriverPostgres) {
		return nil
	}

	var missing []string
	for _, envVar := range RequiredPostgresEnvVars {
		if os.Getenv(envVar) == "" {
			missing = append(missing, envVar)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateEnvWithWarnings checks environment variables and returns warnings
// for non-critical issues (like using default values)
func ValidateEnvWithWarnings() ([]string, error) {
	if err := ValidateEnv(); err != nil {
		return nil, err
	}

	var warnings []string
	if os.Getenv("DB_PASSWORD") == "change_this_secure_password" {
		warnings = append(warnings, "DB_PASSWORD appears to be using the example value - please use a secure password")
	}
	if os.Getenv("REDIS_ADDR") == "" {
		warnings = append(warnings, "REDIS_ADDR not set - progression notifications stay in process")
	}
	return warnings, nil
}
