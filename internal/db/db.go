package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hostel-allocation-backend/config"
	"hostel-allocation-backend/internal/model"
)

// Init opens the configured database, sizes the connection pool and runs migrations.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Info("running database migrations", zap.String("driver", cfg.Driver))
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database initialization complete")
	return db, nil
}

// Open connects to the database without migrating it.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table and then applies the constraints
// gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Hostel{},
		&model.Room{},
		&model.Student{},
		&model.Bunk{},
		&model.Booking{},
		&model.SwapRequest{},
		&model.SwapDetail{},
		&model.CancellationRequest{},
		&model.Rating{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	if err := applyConstraintDDL(db); err != nil {
		return err
	}
	return nil
}

// applyConstraintDDL adds the partial unique indexes backing the
// one-active-booking and one-pending-request rules. The statements are valid
// on both postgres and sqlite.
func applyConstraintDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS uniq_bookings_active_student " +
			"ON bookings (student_id) WHERE status = 'active';",

		"CREATE UNIQUE INDEX IF NOT EXISTS uniq_swap_requests_pending_student " +
			"ON swap_requests (student_id) WHERE status = 'pending';",

		"CREATE UNIQUE INDEX IF NOT EXISTS uniq_cancellation_requests_pending_student " +
			"ON cancellation_requests (student_id) WHERE status = 'pending';",

		// Swap approval picks the lowest free bunk id in a room.
		"CREATE INDEX IF NOT EXISTS idx_bunks_room_free ON bunks (room_id, occupied, id);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
