package config

import (
	"fmt"
	"os"
	"strconv"

	"practice-scheduler-server/internal/recurrence"
)

// Config holds all configuration for our application
type Config struct {
	Port        string
	Origin      string
	Environment string
	JWTSecret   string
	LogLevel    string
	Database    DatabaseConfig
	Recurrence  recurrence.Limits
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "mysql"),
		Host:     getEnv("DB_HOST", "localhost"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "practice"),
		DSN:      getEnv("DB_DSN", ""),
	}

	switch dbConfig.Driver {
	case "mysql":
		dbConfig.Port = getEnv("DB_PORT", "3306")
	case "postgres":
		dbConfig.Port = getEnv("DB_PORT", "5432")
	case "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: expected mysql, postgres or sqlite", dbConfig.Driver)
	}

	// An explicit DSN wins over the individual connection settings
	if dbConfig.DSN == "" {
		dbConfig.DSN = buildDSN(dbConfig)
	}

	maxWeeks, err := getEnvInt("RECURRENCE_MAX_WEEKS", recurrence.DefaultLimits.MaxWeeks)
	if err != nil {
		return nil, err
	}
	maxMonths, err := getEnvInt("RECURRENCE_MAX_MONTHS", recurrence.DefaultLimits.MaxMonths)
	if err != nil {
		return nil, err
	}
	maxYears, err := getEnvInt("RECURRENCE_MAX_YEARS", recurrence.DefaultLimits.MaxYears)
	if err != nil {
		return nil, err
	}
	maxInstances, err := getEnvInt("RECURRENCE_MAX_INSTANCES", recurrence.DefaultLimits.MaxInstances)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:        getEnv("PORT", "3001"),
		Origin:      getEnv("ORIGIN", "http://localhost:4200"),
		Environment: getEnv("NODE_ENV", "development"),
		JWTSecret:   getEnv("JWT_SECRET", "default_jwt_secret"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		Database:    dbConfig,
		Recurrence: recurrence.Limits{
			MaxWeeks:     maxWeeks,
			MaxMonths:    maxMonths,
			MaxYears:     maxYears,
			MaxInstances: maxInstances,
		},
	}, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func buildDSN(db DatabaseConfig) string {
	switch db.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			db.Host, db.Port, db.Username, db.Password, db.Name)
	case "sqlite":
		return db.Name + ".db"
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			db.Username, db.Password, db.Host, db.Port, db.Name)
	}
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return value, nil
}
