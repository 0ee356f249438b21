package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hastingtx/config"
	"hastingtx/logger"
	"hastingtx/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the configured store. MySQL is the production backend;
// SQLite serves single-node installs and tests.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		dialector = sqlite.Open(fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	gormDB, err := OpenDialector(dialector, logger.NewGormLogger(cfg.DBLogLevel))
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		// One writer at a time; SQLite locks the whole file anyway.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Info("connected to catalog database", logger.String("driver", cfg.DBDriver))
	return gormDB, nil
}

// OpenDialector opens a GORM handle with the catalog's settings.
func OpenDialector(dialector gorm.Dialector, gormLogger *logger.GormLogger) (*gorm.DB, error) {
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		// Cascades are done explicitly inside repository transactions.
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}
	return gormDB, nil
}

// Close closes the underlying connection pool.
func Close(gormDB *gorm.DB) error {
	if gormDB == nil {
		return nil
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or extends the catalog tables. AutoMigrate only adds
// tables, columns and indexes, so it is safe to run on every start.
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.SetupJoinTable(&model.Song{}, "Tags", &model.SongTag{}); err != nil {
		return fmt.Errorf("failed to set up song_tags join table: %w", err)
	}
	if err := gormDB.AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Info("catalog schema migrated")
	return nil
}
