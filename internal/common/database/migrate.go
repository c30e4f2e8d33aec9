// internal/common/database/migrate.go
package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const DefaultMigrationsDir = "file://migrations"

// Migrate applies the schema migrations in dir against the postgres URL.
// steps == 0 runs every pending migration in the given direction.
func Migrate(dir, databaseURL, direction string, steps int) error {
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	if steps < 0 {
		return fmt.Errorf("steps must not be negative")
	}

	m, err := migrate.New(dir, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("unknown direction: %s", direction)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
