package database

import (
	"fmt"
	"log"

	"inspection-service/internal/model"
	"inspection-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB initializes the database connection with the provided configuration
func InitDB(cfg *config.Config) error {
	var err error

	// Connect with DisableAutoPrepare to prevent "prepared statement
	// already exists" errors behind connection poolers
	pgConfig := postgres.Config{
		DSN:                  cfg.DB.GetDSN(),
		PreferSimpleProtocol: true,
	}

	DB, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.DB.LogLevel),
		// Unique-index violations become gorm.ErrDuplicatedKey, which
		// handlers use as the duplicate signal
		TranslateError: true,
	})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return err
	}

	// Configure connection pool
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("Failed to get database connection: %v", err)
		return err
	}

	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	// AutoMigrate will automatically create or update the table structure
	err = DB.AutoMigrate(
		&model.User{},
		&model.Property{},
		&model.Room{},
		&model.Report{},
		&model.Photo{},
		&model.PhotoTag{},
		&model.ReportPhoto{},
	)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	if err := BackfillPhotoReports(DB); err != nil {
		// The backfill is a one-time repair of legacy rows; a failure must
		// not keep the service from starting
		log.Printf("Warning: photo report backfill failed: %v", err)
	}

	fmt.Println("Database connected and migrated successfully")
	return nil
}

// BackfillPhotoReports copies legacy report_photos join rows into the
// photos.report_id column where it is still unset, so runtime reads never
// have to branch to the association table.
func BackfillPhotoReports(db *gorm.DB) error {
	return db.Exec(`
		UPDATE photos p
		SET report_id = rp.report_id
		FROM report_photos rp
		WHERE rp.photo_id = p.id AND p.report_id IS NULL
	`).Error
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
