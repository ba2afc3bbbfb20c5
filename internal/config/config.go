package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Dispatch DispatchConfig
	Routing  RoutingConfig
	Payment  PaymentConfig
	NewRelic NewRelicConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the event bus configuration. When disabled the
// in-process bus is used instead.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	GroupID string
}

// DispatchConfig holds the broadcast loop parameters.
type DispatchConfig struct {
	ProviderTimeout    time.Duration
	ProvidersPerRound  int
	MaxBroadcastRounds int
	SearchRadiusKm     float64
	OfferLockSlack     time.Duration
}

// RoutingConfig selects the routing provider for distance and duration
// estimates.
type RoutingConfig struct {
	// Provider is "haversine" or "google".
	Provider     string
	GoogleAPIKey string
	AvgSpeedKmh  float64
}

// PaymentConfig holds card gateway retry settings.
type PaymentConfig struct {
	ChargeAttempts int
	ChargeBackoff  time.Duration
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "dispatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "dispatch"),
		},
		Dispatch: DispatchConfig{
			ProviderTimeout:    getDurationEnv("DISPATCH_PROVIDER_TIMEOUT", 15*time.Second),
			ProvidersPerRound:  getIntEnv("DISPATCH_PROVIDERS_PER_ROUND", 5),
			MaxBroadcastRounds: getIntEnv("DISPATCH_MAX_ROUNDS", 3),
			SearchRadiusKm:     getFloatEnv("DISPATCH_SEARCH_RADIUS_KM", 5.0),
			OfferLockSlack:     getDurationEnv("DISPATCH_OFFER_LOCK_SLACK", 2*time.Second),
		},
		Routing: RoutingConfig{
			Provider:     getEnv("ROUTING_PROVIDER", "haversine"),
			GoogleAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
			AvgSpeedKmh:  getFloatEnv("ROUTING_AVG_SPEED_KMH", 30.0),
		},
		Payment: PaymentConfig{
			ChargeAttempts: getIntEnv("PAYMENT_CHARGE_ATTEMPTS", 3),
			ChargeBackoff:  getDurationEnv("PAYMENT_CHARGE_BACKOFF", 500*time.Millisecond),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "trip-dispatch"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
