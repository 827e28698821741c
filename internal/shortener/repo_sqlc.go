package shortener

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	db "github.com/sundayezeilo/teenyurl/internal/db/sqlc"
	"github.com/sundayezeilo/teenyurl/internal/errx"
	"github.com/sundayezeilo/teenyurl/internal/idgen"
)

const (
	pgUniqueViolation   = "23505"
	urlUniqueConstraint = "links_url_unique"
	keyUniqueConstraint = "links_short_key_unique"
)

// querier is an internal interface that abstracts *db.Queries
type querier interface {
	InsertLink(ctx context.Context, arg db.InsertLinkParams) (db.Link, error)
	FindLinkByID(ctx context.Context, id uuid.UUID) (db.Link, error)
	FindLinksByURL(ctx context.Context, url string) ([]db.Link, error)
	FindLinksByShortKey(ctx context.Context, shortKey string) ([]db.Link, error)
	ListLinks(ctx context.Context) ([]db.Link, error)
	DeleteLinkByID(ctx context.Context, id uuid.UUID) (db.Link, error)
	DeleteAllLinks(ctx context.Context) error
}

type repo struct {
	q   querier
	ids idgen.Generator
}

// NewRepository creates a postgres-backed Repository on top of the sqlc
// queries.
func NewRepository(q querier, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	ids := config.IDGenerator
	if ids == nil {
		ids = idgen.NewV7(idgen.WithRetries(1))
	}

	return &repo{
		q:   q,
		ids: ids,
	}
}

func toDomainLink(x db.Link) (Link, error) {
	if !x.CreatedAt.Valid {
		return Link{}, fmt.Errorf("created_at unexpectedly NULL for link %s", x.ID)
	}
	return Link{
		ID:        x.ID,
		URL:       x.Url,
		Key:       x.ShortKey,
		CreatedAt: x.CreatedAt.Time.UTC(),
	}, nil
}

func toDomainLinks(rows []db.Link) ([]Link, error) {
	links := make([]Link, 0, len(rows))
	for _, row := range rows {
		link, err := toDomainLink(row)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// uniqueViolation returns the sentinel matching the violated constraint, or
// nil when err is not a unique violation.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case urlUniqueConstraint:
		return ErrURLTaken
	case keyUniqueConstraint:
		return ErrKeyTaken
	default:
		return fmt.Errorf("unique constraint %s violated", pgErr.ConstraintName)
	}
}

func mapRepoError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errx.E(op, errx.NotFound, err)
	}
	if taken := uniqueViolation(err); taken != nil {
		return errx.E(op, errx.Conflict, fmt.Errorf("%w: %w", taken, err))
	}
	return errx.E(op, errx.Unavailable, err)
}

func (r *repo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.repo.Create"

	if link.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}
		link.ID = id
	}

	row, err := r.q.InsertLink(ctx, db.InsertLinkParams{
		ID:       link.ID,
		Url:      link.URL,
		ShortKey: link.Key,
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	created, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return created, nil
}

func (r *repo) Get(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "shortener.repo.Get"

	row, err := r.q.FindLinkByID(ctx, id)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	link, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (r *repo) List(ctx context.Context, f Filter) ([]Link, error) {
	const op = "shortener.repo.List"

	var (
		rows []db.Link
		err  error
	)
	switch f.field {
	case filterURL:
		rows, err = r.q.FindLinksByURL(ctx, f.value)
	case filterKey:
		rows, err = r.q.FindLinksByShortKey(ctx, f.value)
	default:
		rows, err = r.q.ListLinks(ctx)
	}
	if err != nil {
		return nil, mapRepoError(op, err)
	}

	links, err := toDomainLinks(rows)
	if err != nil {
		return nil, errx.E(op, errx.Internal, err)
	}
	return links, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "shortener.repo.Delete"

	row, err := r.q.DeleteLinkByID(ctx, id)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	link, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (r *repo) DeleteAll(ctx context.Context) error {
	const op = "shortener.repo.DeleteAll"

	if err := r.q.DeleteAllLinks(ctx); err != nil {
		return mapRepoError(op, err)
	}
	return nil
}
