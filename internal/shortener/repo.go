package shortener

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sundayezeilo/teenyurl/internal/idgen"
)

var (
	// ErrURLTaken is wrapped in the Conflict error returned by
	// Repository.Create when another link already holds the URL.
	ErrURLTaken = errors.New("url already mapped")
	// ErrKeyTaken is wrapped in the Conflict error returned by
	// Repository.Create when another link already holds the key.
	ErrKeyTaken = errors.New("key already taken")
)

// Repository is the single source of truth for links. Implementations must
// enforce uniqueness of both URL and Key themselves, so that concurrent
// creates racing on the same URL leave exactly one record behind.
//
// Errors carry an errx.Kind: NotFound for absent records, Conflict (wrapping
// ErrURLTaken or ErrKeyTaken) for uniqueness violations, Unavailable for any
// other backend failure.
type Repository interface {
	// Create persists link, assigning an ID when link.ID is nil.
	Create(ctx context.Context, link Link) (Link, error)
	Get(ctx context.Context, id uuid.UUID) (Link, error)
	// List returns every link matching f in creation order.
	List(ctx context.Context, f Filter) ([]Link, error)
	// Delete removes the link and returns it as it was.
	Delete(ctx context.Context, id uuid.UUID) (Link, error)
	// DeleteAll empties the store. Tests and administrative tooling only.
	DeleteAll(ctx context.Context) error
}

// RepositoryConfig holds configuration shared by the repository
// implementations.
type RepositoryConfig struct {
	IDGenerator idgen.Generator
}
