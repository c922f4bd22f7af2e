package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	menudomain "github.com/smallbiznis/bistro/internal/menu/domain"
	ratingdomain "github.com/smallbiznis/bistro/internal/rating/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Run brings the schema up to date. Postgres uses the versioned SQL
// migrations; the other dialects fall back to AutoMigrate, which creates the
// same tables and unique indexes from the model tags.
func Run(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	if conn.Dialector.Name() != "postgres" {
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&menudomain.MealSlot{}, &ratingdomain.Rating{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := backfillDescriptionSearch(conn); err != nil {
		return fmt.Errorf("backfill description_search: %w", err)
	}
	return nil
}

// backfillDescriptionSearch fills description_search for rows written before
// the column existed.
func backfillDescriptionSearch(conn *gorm.DB) error {
	var rows []struct {
		ID          int64
		Description string
	}
	err := conn.Raw(
		`SELECT id, description FROM meal_slots
		 WHERE description <> '' AND description_search = ''`,
	).Scan(&rows).Error
	if err != nil {
		return err
	}

	for _, row := range rows {
		err := conn.Exec(
			`UPDATE meal_slots SET description_search = ? WHERE id = ?`,
			menudomain.SearchText(row.Description),
			row.ID,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB

	return nil
}
