package shortener

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/sundayezeilo/teenyurl/internal/errx"
	"github.com/sundayezeilo/teenyurl/internal/idgen"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
    id         TEXT     PRIMARY KEY,
    url        TEXT     NOT NULL UNIQUE,
    short_key  TEXT     NOT NULL UNIQUE,
    created_at DATETIME NOT NULL
);
`

const sqliteColumns = `id, url, short_key, created_at`

// sqliteRepo stores links in a SQLite database opened with the mattn
// driver. Uniqueness is enforced by the table's UNIQUE columns.
type sqliteRepo struct {
	db  *sql.DB
	ids idgen.Generator
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and makes sure the
// links table exists.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open SQLite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not apply SQLite schema: %w", err)
	}
	return conn, nil
}

// NewSQLiteRepository returns a Repository over a database prepared by
// OpenSQLite.
func NewSQLiteRepository(conn *sql.DB, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}
	ids := config.IDGenerator
	if ids == nil {
		ids = idgen.NewV7()
	}
	return &sqliteRepo{db: conn, ids: ids, now: time.Now}
}

func mapSQLiteError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errx.E(op, errx.NotFound, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		// The driver reports the column as "UNIQUE constraint failed: links.url".
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "links.url"):
			return errx.E(op, errx.Conflict, fmt.Errorf("%w: %w", ErrURLTaken, err))
		case strings.Contains(msg, "links.short_key"):
			return errx.E(op, errx.Conflict, fmt.Errorf("%w: %w", ErrKeyTaken, err))
		default:
			return errx.E(op, errx.Conflict, err)
		}
	}
	return errx.E(op, errx.Unavailable, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLink(row rowScanner) (Link, error) {
	var (
		link Link
		id   string
	)
	if err := row.Scan(&id, &link.URL, &link.Key, &link.CreatedAt); err != nil {
		return Link{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Link{}, fmt.Errorf("corrupt link id %q: %w", id, err)
	}
	link.ID = parsed
	link.CreatedAt = link.CreatedAt.UTC()
	return link, nil
}

func (r *sqliteRepo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.sqlite.Create"

	if link.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}
		link.ID = id
	}
	link.CreatedAt = r.now().UTC()

	const q = `INSERT INTO links (id, url, short_key, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, link.ID.String(), link.URL, link.Key, link.CreatedAt); err != nil {
		return Link{}, mapSQLiteError(op, err)
	}
	return link, nil
}

func (r *sqliteRepo) Get(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "shortener.sqlite.Get"

	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM links WHERE id = ?`, id.String())
	link, err := scanSQLiteLink(row)
	if err != nil {
		return Link{}, mapSQLiteError(op, err)
	}
	return link, nil
}

func (r *sqliteRepo) List(ctx context.Context, f Filter) ([]Link, error) {
	const op = "shortener.sqlite.List"

	q := `SELECT ` + sqliteColumns + ` FROM links`
	var args []any
	switch f.field {
	case filterURL:
		q += ` WHERE url = ?`
		args = append(args, f.value)
	case filterKey:
		q += ` WHERE short_key = ?`
		args = append(args, f.value)
	}
	q += ` ORDER BY rowid`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapSQLiteError(op, err)
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		link, err := scanSQLiteLink(rows)
		if err != nil {
			return nil, mapSQLiteError(op, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(op, err)
	}
	return links, nil
}

func (r *sqliteRepo) Delete(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "shortener.sqlite.Delete"

	row := r.db.QueryRowContext(ctx,
		`DELETE FROM links WHERE id = ? RETURNING `+sqliteColumns, id.String())
	link, err := scanSQLiteLink(row)
	if err != nil {
		return Link{}, mapSQLiteError(op, err)
	}
	return link, nil
}

func (r *sqliteRepo) DeleteAll(ctx context.Context) error {
	const op = "shortener.sqlite.DeleteAll"

	if _, err := r.db.ExecContext(ctx, `DELETE FROM links`); err != nil {
		return mapSQLiteError(op, err)
	}
	return nil
}
