package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"piqle_tournament/config"
	"piqle_tournament/models"
)

// DB is the process wide connection, set by InitDB.
var DB *gorm.DB

// InitDB connects to the configured database, migrates it and sets DB.
func InitDB(cfg *config.Config, log logrus.FieldLogger) error {
	g, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = g
	log.WithField("driver", cfg.DB.Driver).Info("Database connection established and migrated successfully.")
	return nil
}

// Open connects with the driver named in cfg and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DB.DSN)
	default:
		dialector = sqlite.Open(sqliteDSN(cfg.DB.DSN))
	}

	gormConfig := &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true}
	if cfg.IsDevelopment() {
		gormConfig.Logger = logger.Default.LogMode(logger.Info) // Log SQL queries in development
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	g, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB, err := g.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if err := Migrate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// sqliteDSN makes writers wait for each other. Transactions take the write
// lock at BEGIN and queue for up to five seconds, so a lost race surfaces as a
// version conflict rather than a lock upgrade failure.
func sqliteDSN(dsn string) string {
	params := []struct{ key, value string }{
		{"busy_timeout", "_pragma=busy_timeout(5000)"},
		{"_txlock", "_txlock=immediate"},
	}
	for _, p := range params {
		if strings.Contains(dsn, p.key) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.value
	}
	return dsn
}

// OpenMemory returns a migrated private in-memory sqlite database. The pool is
// capped at one connection because every new connection would see an empty
// database.
func OpenMemory() (*gorm.DB, error) {
	g, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Migrate creates or updates every table. Relations are kept in the model
// only; regeneration hard deletes games before their matches.
func Migrate(g *gorm.DB) error {
	err := g.AutoMigrate(
		&models.Division{},
		&models.Pool{},
		&models.Team{},
		&models.Player{},
		&models.Match{},
		&models.Game{},
		&models.Tiebreaker{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
