package config

import (
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // FARE_TIMEZONE must resolve in minimal containers

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// defaultJWTSecret only exists so a local run works without a .env file.
const defaultJWTSecret = "supersecret"

// Settings is everything the server reads from the environment.
type Settings struct {
	HTTPAddr    string
	JWTSecret   string
	CORSOrigins string

	LogFile  string
	LogLevel string

	InterpolationPoints int
	FareTimezone        *time.Location
	ExportMaxRows       int
	ClockSkewWarn       time.Duration

	RedisAddr     string
	RouteCacheTTL time.Duration

	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
}

// Load reads .env (if present) and the process environment.
func Load() Settings {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	tzName := getEnv("FARE_TIMEZONE", "UTC")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		logrus.WithError(err).WithField("FARE_TIMEZONE", tzName).Warn("Unknown fare timezone, using UTC")
		tz = time.UTC
	}

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		logrus.Warn("JWT_SECRET is not set, signing tokens with the built-in development secret")
		secret = defaultJWTSecret
	}

	return Settings{
		HTTPAddr:            getEnv("HTTP_ADDR", "0.0.0.0:8080"),
		JWTSecret:           secret,
		CORSOrigins:         getEnv("CORS_ALLOWED_ORIGINS", ""),
		LogFile:             getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		InterpolationPoints: getEnvInt("INTERPOLATION_POINTS", 5),
		FareTimezone:        tz,
		ExportMaxRows:       getEnvInt("EXPORT_MAX_ROWS", 50000),
		ClockSkewWarn:       time.Duration(getEnvInt("CLOCK_SKEW_WARN_SECONDS", 300)) * time.Second,
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RouteCacheTTL:       getEnvDuration("ROUTE_CACHE_TTL", 24*time.Hour),
		MQTTBroker:          getEnv("MQTT_BROKER", ""),
		MQTTClientID:        getEnv("MQTT_CLIENT_ID", "trip-tracker"),
		MQTTTopic:           getEnv("MQTT_TOPIC", "rides/+/checkpoints"),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logrus.WithField(key, v).Warn("Ignoring invalid integer setting")
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField(key, v).Warn("Ignoring invalid duration setting")
		return defaultValue
	}
	return d
}
