package gormrepo

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MigrationsTable records the applied schema version.
const MigrationsTable = "tsw_schema_migrations"

//go:embed migrations
var migrationsFS embed.FS

func databaseDriver(dbType string, sqlDB *sql.DB) (database.Driver, error) {
	switch dbType {
	case "postgres":
		return migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{MigrationsTable: MigrationsTable})
	case "mysql":
		return migratemysql.WithInstance(sqlDB, &migratemysql.Config{MigrationsTable: MigrationsTable})
	case "sqlite":
		return migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{MigrationsTable: MigrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", dbType)
	}
}

// MigrateSchema applies the pending schema migrations of dbType. It works on a
// connection pool of its own because the migrate drivers close the pool on Close.
func MigrateSchema(dbType, dsn string) error {
	dialector, err := NewDialector(dbType, dsn)
	if err != nil {
		return err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return fmt.Errorf("failed to open %s run repository for migration: %w", dbType, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+dbType)
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to read %s migrations: %w", dbType, err)
	}
	driver, err := databaseDriver(dbType, sqlDB)
	if err != nil {
		source.Close()
		sqlDB.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, dbType, driver)
	if err != nil {
		driver.Close()
		source.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate run repository schema: %w", err)
	}
	return nil
}
