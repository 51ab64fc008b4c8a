package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config captures environment driven configuration values for the circulation
// service.
type Config struct {
	HTTPPort       int
	SQLiteDSN      string
	LoanPeriodDays int
	LoanLimit      int
	AdminEmail     string
	AdminPassword  string
}

// Load parses configuration values from the current process environment.
//
// Every field has a default, so an empty environment yields a runnable
// configuration. Invalid values are accumulated and reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		SQLiteDSN:      "file:sgbc.db?_pragma=foreign_keys(1)",
		LoanPeriodDays: 14,
		LoanLimit:      3,
		AdminEmail:     "admin@rede.com",
		AdminPassword:  "admin123",
	}

	invalid := make([]string, 0, 3)

	if portValue := strings.TrimSpace(os.Getenv("SGBC_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SGBC_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SGBC_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if periodValue := strings.TrimSpace(os.Getenv("SGBC_LOAN_PERIOD_DAYS")); periodValue != "" {
		period, err := strconv.Atoi(periodValue)
		if err != nil || period <= 0 {
			invalid = append(invalid, "SGBC_LOAN_PERIOD_DAYS")
		} else {
			cfg.LoanPeriodDays = period
		}
	}

	if limitValue := strings.TrimSpace(os.Getenv("SGBC_LOAN_LIMIT")); limitValue != "" {
		limit, err := strconv.Atoi(limitValue)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "SGBC_LOAN_LIMIT")
		} else {
			cfg.LoanLimit = limit
		}
	}

	if email := strings.TrimSpace(os.Getenv("SGBC_ADMIN_EMAIL")); email != "" {
		cfg.AdminEmail = strings.ToLower(email)
	}

	if password := os.Getenv("SGBC_ADMIN_PASSWORD"); password != "" {
		cfg.AdminPassword = password
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente com valores inválidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
