package database

import (
	"fmt"
	"time"

	"github.com/mvxid/indexer/internal/config"
	"github.com/mvxid/indexer/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres database and migrates the schema
func Connect(cfg config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
	)

	// Configure GORM with optimized settings
	gormConfig := &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true, // Prepare statement for better performance
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	// Set connection pool limits
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Migrate database schema
	if err := MigrateSchema(db); err != nil {
		return nil, err
	}

	return db, nil
}

// MigrateSchema migrates the domain registry tables and supporting indexes
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Domain{},
		&models.DomainProfile{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Add composite indexes for common query patterns
	db.Exec("CREATE INDEX IF NOT EXISTS idx_domains_owner_subdomain ON domains(owner_address, is_subdomain)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_domains_owner_primary ON domains(owner_address) WHERE primary_address IS NOT NULL")

	return nil
}
