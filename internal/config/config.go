package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Identity ServiceConfig
	Checkout CheckoutConfig
	Features FeatureFlags
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers        []string
	StockTopic     string
	OrdersTopic    string
	ApprovalsTopic string
	ConsumerGroup  string
}

type ServiceConfig struct {
	BaseURL   string
	Timeout   time.Duration
	JWTSecret string
}

type CheckoutConfig struct {
	// MaxRetries bounds optimistic transaction restarts before Conflict
	// surfaces to the caller.
	MaxRetries int
	// StartingBalance seeds newly provisioned accounts.
	StartingBalance decimal.Decimal
	// CreateMissingAccounts controls the placeholder-account fallback when a
	// checkout arrives for an email with no account document.
	CreateMissingAccounts bool
}

type FeatureFlags struct {
	EnableStockEvents  bool
	EnableCatalogCache bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "tuckshop"),
			Password:     getEnvString("DB_PASSWORD", "tuckshop"),
			Name:         getEnvString("DB_NAME", "tuckshop"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL", 120)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:        strings.Split(getEnvString("KAFKA_BROKERS", "localhost:9092"), ","),
			StockTopic:     getEnvString("KAFKA_STOCK_TOPIC", "tuckshop.stock"),
			OrdersTopic:    getEnvString("KAFKA_ORDERS_TOPIC", "tuckshop.orders"),
			ApprovalsTopic: getEnvString("KAFKA_APPROVALS_TOPIC", "tuckshop.approvals"),
			ConsumerGroup:  getEnvString("KAFKA_CONSUMER_GROUP", "tuckshop-service"),
		},
		Identity: ServiceConfig{
			BaseURL:   getEnvString("IDENTITY_SERVICE_URL", "http://localhost:8081"),
			Timeout:   time.Duration(getEnvInt("IDENTITY_SERVICE_TIMEOUT", 10)) * time.Second,
			JWTSecret: getEnvString("IDENTITY_JWT_SECRET", "dev-secret-change-me"),
		},
		Checkout: CheckoutConfig{
			MaxRetries:            getEnvInt("CHECKOUT_MAX_RETRIES", 5),
			StartingBalance:       getEnvDecimal("CHECKOUT_STARTING_BALANCE", "100.00"),
			CreateMissingAccounts: getEnvBool("CHECKOUT_CREATE_MISSING_ACCOUNTS", true),
		},
		Features: FeatureFlags{
			EnableStockEvents:  getEnvBool("FEATURE_STOCK_EVENTS", true),
			EnableCatalogCache: getEnvBool("FEATURE_CATALOG_CACHE", true),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(defaultValue)
	return d
}
