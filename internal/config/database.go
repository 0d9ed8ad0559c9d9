package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"trip_tracker/internal/models"
)

// activeFareConfigIndex keeps at most one active fare config per vehicle type.
const activeFareConfigIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_fare_configs_active_vehicle
ON fare_configs (vehicle_type) WHERE is_active`

// DSN builds the Postgres data source name from DB_* variables.
func DSN() string {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "password")
	dbname := getEnv("DB_NAME", "tracker")
	sslmode := getEnv("DB_SSLMODE", "disable")
	timezone := getEnv("DB_TIMEZONE", "UTC")

	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone,
	)
}

// InitDB opens the connection and migrates the schema.
func InitDB(dsn string, log gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         log,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables and the indexes GORM tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Ride{}, &models.Checkpoint{}, &models.FareConfig{}); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	if err := db.Exec(activeFareConfigIndex).Error; err != nil {
		return fmt.Errorf("create active fare config index: %w", err)
	}
	return nil
}
