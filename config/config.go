package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	AppName                       string
	Port                          int
	LogLevel                      string
	PrettyLogs                    bool
	HttpServerWriteTimeoutSeconds int
	HttpServerReadTimeoutSeconds  int
	HttpServerIdleTimeoutSeconds  int
	StartupMaxAttempts            int

	// PostgreSQL
	DatabaseDriver                string
	DatabaseHost                  string
	DatabasePort                  string
	DatabaseUserName              string
	DatabasePassword              string
	DatabaseName                  string
	DatabaseSSLMode               string
	DatabaseMaxOpenConns          int
	DatabaseMaxIdleConns          int
	DatabaseConnMaxLifetime       time.Duration
	DatabaseMigrationFolderPath   string
	DatabaseMigrationVersion      int
	DatabaseMigrationForce        int
	DatabaseMigrationAutoRollback bool

	// Kafka Producer settings
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaOutputTopic  string
	KafkaBatchSize    int
	KafkaBatchTimeout time.Duration
	KafkaRequiredAcks int
	KafkaCompression  string

	// Dedup matching policy
	DedupMatchThreshold      int
	DedupMinPhoneDigits      int
	DedupNameSimilarityFloor float64
	DedupMinExactNameLength  int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		AppName:                       getEnvOrDefault("APP_NAME", "clover-api"),
		Port:                          getEnvAsIntOrDefault("PORT", 3004),
		LogLevel:                      getEnvOrDefault("LOG_LEVEL", "info"),
		PrettyLogs:                    getEnvAsBoolOrDefault("PRETTY_LOGS", false),
		HttpServerWriteTimeoutSeconds: getEnvAsIntOrDefault("HTTP_SERVER_WRITE_TIMEOUT_SECONDS", 10),
		HttpServerReadTimeoutSeconds:  getEnvAsIntOrDefault("HTTP_SERVER_READ_TIMEOUT_SECONDS", 10),
		HttpServerIdleTimeoutSeconds:  getEnvAsIntOrDefault("HTTP_SERVER_IDLE_TIMEOUT_SECONDS", 10),
		StartupMaxAttempts:            getEnvAsIntOrDefault("STARTUP_MAX_ATTEMPTS", 5),

		DatabaseDriver:                getEnvOrDefault("DB_DRIVER", "postgres"),
		DatabaseHost:                  getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:                  getEnvOrDefault("DB_PORT", "5432"),
		DatabaseUserName:              getEnvOrDefault("DB_USER_NAME", ""),
		DatabasePassword:              getEnvOrDefault("DB_PASSWORD", ""),
		DatabaseName:                  getEnvOrDefault("DB_NAME", "clover"),
		DatabaseSSLMode:               getEnvOrDefault("DB_SSL_MODE", "disable"),
		DatabaseMaxOpenConns:          getEnvAsIntOrDefault("DB_MAX_OPEN_CONNS", 25),
		DatabaseMaxIdleConns:          getEnvAsIntOrDefault("DB_MAX_IDLE_CONNS", 10),
		DatabaseConnMaxLifetime:       getEnvAsDurationOrDefault("DB_CONN_MAX_LIFETIME", 10*time.Second),
		DatabaseMigrationFolderPath:   getEnvOrDefault("DB_MIGRATION_FOLDER_PATH", "db/pg"),
		DatabaseMigrationVersion:      getEnvAsIntOrDefault("DB_MIGRATION_VERSION", 0),
		DatabaseMigrationForce:        getEnvAsIntOrDefault("DB_MIGRATION_FORCE", 0),
		DatabaseMigrationAutoRollback: getEnvAsBoolOrDefault("DB_MIGRATION_AUTO_ROLLBACK", true),

		KafkaEnabled:      getEnvAsBoolOrDefault("KAFKA_ENABLED", true),
		KafkaBrokers:      getEnvAsSliceOrDefault("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaOutputTopic:  getEnvOrDefault("KAFKA_OUTPUT_TOPIC", "customer-events"),
		KafkaBatchSize:    getEnvAsIntOrDefault("KAFKA_BATCH_SIZE", 100),
		KafkaBatchTimeout: getEnvAsDurationOrDefault("KAFKA_BATCH_TIMEOUT", 100*time.Millisecond),
		KafkaRequiredAcks: getEnvAsIntOrDefault("KAFKA_REQUIRED_ACKS", 1),
		KafkaCompression:  getEnvOrDefault("KAFKA_COMPRESSION", "snappy"),

		DedupMatchThreshold:      getEnvAsIntOrDefault("DEDUP_MATCH_THRESHOLD", 70),
		DedupMinPhoneDigits:      getEnvAsIntOrDefault("DEDUP_MIN_PHONE_DIGITS", 10),
		DedupNameSimilarityFloor: getEnvAsFloatOrDefault("DEDUP_NAME_SIMILARITY_FLOOR", 0.8),
		DedupMinExactNameLength:  getEnvAsIntOrDefault("DEDUP_MIN_EXACT_NAME_LENGTH", 3),
	}

	return cfg, nil
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the value of an environment variable as an integer or a default value
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
