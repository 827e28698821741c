package shortener

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/teenyurl/internal/errx"
	"github.com/sundayezeilo/teenyurl/internal/idgen"
)

// memoryRepo keeps links in process memory. Both uniqueness indexes are
// checked and updated under one lock, which gives it the same single-winner
// behaviour under concurrent creates as the SQL backends.
type memoryRepo struct {
	mu    sync.RWMutex
	ids   idgen.Generator
	now   func() time.Time
	links map[uuid.UUID]Link
	byURL map[string]uuid.UUID
	byKey map[string]uuid.UUID
	order []uuid.UUID
}

// NewMemoryRepository returns a Repository that lives only as long as the
// process. It backs STORAGE_DRIVER=memory and the service tests.
func NewMemoryRepository(config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}
	ids := config.IDGenerator
	if ids == nil {
		ids = idgen.NewV7()
	}
	return &memoryRepo{
		ids:   ids,
		now:   time.Now,
		links: make(map[uuid.UUID]Link),
		byURL: make(map[string]uuid.UUID),
		byKey: make(map[string]uuid.UUID),
	}
}

func (r *memoryRepo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.memory.Create"

	if err := ctx.Err(); err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}

	if link.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}
		link.ID = id
	}
	link.CreatedAt = r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[link.ID]; ok {
		return Link{}, errx.E(op, errx.Conflict, errors.New("id already exists"))
	}
	if _, ok := r.byURL[link.URL]; ok {
		return Link{}, errx.E(op, errx.Conflict, ErrURLTaken)
	}
	if _, ok := r.byKey[link.Key]; ok {
		return Link{}, errx.E(op, errx.Conflict, ErrKeyTaken)
	}

	r.links[link.ID] = link
	r.byURL[link.URL] = link.ID
	r.byKey[link.Key] = link.ID
	r.order = append(r.order, link.ID)
	return link, nil
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "shortener.memory.Get"

	if err := ctx.Err(); err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[id]
	if !ok {
		return Link{}, errx.E(op, errx.NotFound, errors.New("link not found"))
	}
	return link, nil
}

func (r *memoryRepo) List(ctx context.Context, f Filter) ([]Link, error) {
	const op = "shortener.memory.List"

	if err := ctx.Err(); err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Point lookups go through the indexes; only the unfiltered listing walks
	// every record.
	var index map[string]uuid.UUID
	switch f.field {
	case filterURL:
		index = r.byURL
	case filterKey:
		index = r.byKey
	}
	if index != nil {
		id, ok := index[f.value]
		if !ok {
			return []Link{}, nil
		}
		return []Link{r.links[id]}, nil
	}

	out := make([]Link, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.links[id])
	}
	return out, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "shortener.memory.Delete"

	if err := ctx.Err(); err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if !ok {
		return Link{}, errx.E(op, errx.NotFound, errors.New("link not found"))
	}
	delete(r.links, id)
	delete(r.byURL, link.URL)
	delete(r.byKey, link.Key)
	r.order = slices.DeleteFunc(r.order, func(x uuid.UUID) bool { return x == id })
	return link, nil
}

func (r *memoryRepo) DeleteAll(ctx context.Context) error {
	const op = "shortener.memory.DeleteAll"

	if err := ctx.Err(); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.links)
	clear(r.byURL)
	clear(r.byKey)
	r.order = nil
	return nil
}
