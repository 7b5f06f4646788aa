package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	AppEnv         string
	LogLevel       string
	Port           string
	StoreDriver    string
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration
	RequestTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaBrokers      []string
	NotificationTopic string

	JaegerEndpoint string
	WebhookSecret  string

	MerchantUPI  string
	MerchantName string

	AdminEmail    string
	AdminPassword string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration without touching .env files.
func FromEnv() Config {
	return Config{
		AppEnv:         getEnvOrDefault("APP_ENV", "development"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		Port:           getEnvOrDefault("PORT", "8080"),
		StoreDriver:    getEnvOrDefault("STORE_DRIVER", "mongo"),
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 1440, time.Minute),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 5, time.Second),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheTTL:      getDurationEnv("CACHE_TTL", 300, time.Second),

		KafkaBrokers:      getListEnv("KAFKA_BROKERS"),
		NotificationTopic: getEnvOrDefault("NOTIFICATION_TOPIC", "storefront.notifications"),

		JaegerEndpoint: getEnvOrDefault("JAEGER_ENDPOINT", ""),
		WebhookSecret:  getEnvOrDefault("PAYMENT_WEBHOOK_SECRET", ""),

		MerchantUPI:  getEnvOrDefault("MERCHANT_UPI_ID", "merchant@upi"),
		MerchantName: getEnvOrDefault("MERCHANT_NAME", "Ambika International"),

		AdminEmail:    getEnvOrDefault("ADMIN_EMAIL", ""),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", ""),
	}
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
