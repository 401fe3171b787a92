package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cms0/internal/config"
	"cms0/internal/models"
	"cms0/internal/modules"
	console "cms0/internal/utils/logger"
)

var DB *gorm.DB
var log = console.New("DB")

func dialector(cfg *config.Config) (gorm.Dialector, string) {
	if cfg.Database.Driver == "sqlite" {
		return sqlite.Open(cfg.Database.Path), "sqlite:" + cfg.Database.Path
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.Database.Host,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.Port,
		cfg.Database.SSLMode,
	)
	safe := fmt.Sprintf("postgres://%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	return postgres.Open(dsn), safe
}

func Connect(cfg *config.Config) error {
	dial, target := dialector(cfg)

	log.Info("Connecting to database %s...", target)
	maxRetries := 5
	var err error
	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(dial, &gorm.Config{
			Logger:                                   logger.Default.LogMode(logger.Warn),
			DisableForeignKeyConstraintWhenMigrating: true,
			PrepareStmt:                              cfg.Database.Driver == "postgres",
			AllowGlobalUpdate:                        false,
		})
		if err == nil {
			log.Success("Connected to database")

			sqlDB, err := DB.DB()
			if err != nil {
				return log.Error("Failed to get underlying *sql.DB instance", err)
			}

			if cfg.Database.Driver == "sqlite" {
				// one writer; sqlite serialises anyway
				sqlDB.SetMaxOpenConns(1)
			} else {
				sqlDB.SetMaxOpenConns(100)
				sqlDB.SetMaxIdleConns(10)
				sqlDB.SetConnMaxLifetime(time.Hour)
				sqlDB.SetConnMaxIdleTime(time.Minute * 30)
			}

			if err := Migrate(DB); err != nil {
				return log.Error("Failed to run migrations", err)
			}

			log.Success("Migrations completed")

			return nil
		}
		log.Warn("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(time.Second * 5)
	}
	return log.Error("Failed to connect to database", fmt.Errorf("giving up after %d attempts: %w", maxRetries, err))
}

// Migrate creates or updates every table, including one physical catalog
// table per distinct module table.
func Migrate(db *gorm.DB) error {
	log.Info("Running migrations...")
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Session{},
			&models.Media{},
			&models.FileTombstone{},
			&models.Plugin{},
		); err != nil {
			return err
		}

		for _, table := range modules.Tables() {
			if err := tx.Table(table).AutoMigrate(&models.CatalogRecord{}); err != nil {
				return fmt.Errorf("migrate %s: %w", table, err)
			}
			// table comes from the module allowlist, never from input
			stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_owner_scope ON %s (users_id, related_table, status, id)", table, table)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index %s: %w", table, err)
			}
			// rows written before search_title existed
			backfill := fmt.Sprintf("UPDATE %s SET search_title = LOWER(title) WHERE search_title IS NULL", table)
			if err := tx.Exec(backfill).Error; err != nil {
				return fmt.Errorf("backfill %s: %w", table, err)
			}
		}
		return nil
	})
}

// OpenSQLite opens and migrates a sqlite database on a single connection.
// Tests use it with ":memory:".
func OpenSQLite(path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(gdb); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return gdb, nil
}

func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}
