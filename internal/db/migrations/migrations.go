// Package migrations owns the postgres schema of the links table and applies
// it with tern.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
)

// VersionTable records the applied schema version.
const VersionTable = "schema_version"

var (
	mu sync.Mutex

	//go:embed sql/*.sql
	files embed.FS
)

// Up migrates the database behind connString to the latest version.
func Up(ctx context.Context, logger *slog.Logger, connString string) error {
	mu.Lock()
	defer mu.Unlock()

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, VersionTable)
	if err != nil {
		return fmt.Errorf("constructing migrator: %w", err)
	}

	sub, err := fs.Sub(files, "sql")
	if err != nil {
		return err
	}
	if err := m.LoadMigrations(sub); err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	if logger != nil {
		m.OnStart = func(sequence int32, name, direction, _ string) {
			logger.Info("applying migration",
				"sequence", sequence,
				"name", name,
				"direction", direction,
			)
		}
	}

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Names lists the embedded migration files in the order tern applies them.
func Names() ([]string, error) {
	return fs.Glob(files, "sql/*.sql")
}
