package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func RunMigrations(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	driver := DriverSQLite
	goDialect := "sqlite3"
	if db.Dialector.Name() == "postgres" {
		driver = DriverPostgres
		goDialect = "postgres"
	}

	if err := goose.SetDialect(goDialect); err != nil {
		return err
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.UpContext(ctx, sqlDB, path.Join("migrations", driver)); err != nil {
		return fmt.Errorf("migrate %s: %w", driver, err)
	}

	return nil
}
