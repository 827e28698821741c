package shortener

import (
	"context"
	"errors"
	"net/url"

	"github.com/sundayezeilo/teenyurl/internal/errx"
	"github.com/sundayezeilo/teenyurl/internal/idgen"
	"github.com/sundayezeilo/teenyurl/keygen"
)

const (
	DefaultKeyLength     = 7
	MinKeyLength         = 4
	MaxKeyLength         = 32
	MaxURLLength         = 2048
	DefaultKeyMaxRetries = 3
)

// Service defines the business logic operations for URL shortening.
// There is deliberately no update and no list-all: a key, once issued, stays
// bound to its URL for as long as the link exists.
type Service interface {
	Create(ctx context.Context, rawURL string) (CreateResult, error)
	Get(ctx context.Context, id string) (Link, error)
	Resolve(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, id string) (Link, error)
}

type service struct {
	repo          Repository
	keys          keygen.Generator
	keyLength     int
	keyMaxRetries int
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	KeyGenerator  keygen.Generator
	KeyLength     int
	KeyMaxRetries int // attempts when a generated key collides (default: 3)
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	keys := config.KeyGenerator
	if keys == nil {
		keys = keygen.NewBase62()
	}

	keyLength := config.KeyLength
	if keyLength < MinKeyLength || keyLength > MaxKeyLength {
		keyLength = DefaultKeyLength
	}

	retries := config.KeyMaxRetries
	if retries <= 0 {
		retries = DefaultKeyMaxRetries
	}

	return &service{
		repo:          repo,
		keys:          keys,
		keyLength:     keyLength,
		keyMaxRetries: retries,
	}
}

// Create maps rawURL to a fresh key, or returns the existing mapping when
// rawURL has been shortened before.
func (s *service) Create(ctx context.Context, rawURL string) (CreateResult, error) {
	const op = "shortener.service.Create"

	if err := validateURL(rawURL); err != nil {
		return CreateResult{}, errx.E(op, errx.Invalid, err)
	}

	existing, found, err := s.findByURL(ctx, rawURL)
	if err != nil {
		return CreateResult{}, errx.Propagate(op, err)
	}
	if found {
		return CreateResult{Link: existing, Duplicate: true}, nil
	}

	for range s.keyMaxRetries {
		key, err := s.keys.Generate(s.keyLength)
		if err != nil {
			return CreateResult{}, errx.E(op, errx.Unavailable, err)
		}

		created, err := s.repo.Create(ctx, Link{URL: rawURL, Key: key})
		switch {
		case err == nil:
			return CreateResult{Link: created}, nil
		case errors.Is(err, ErrKeyTaken):
			continue
		case errors.Is(err, ErrURLTaken):
			// Lost a race with a concurrent create of the same URL.
			existing, found, lookupErr := s.findByURL(ctx, rawURL)
			if lookupErr != nil {
				return CreateResult{}, errx.Propagate(op, lookupErr)
			}
			if !found {
				// The winner was deleted before we could read it back.
				return CreateResult{}, errx.Propagate(op, err)
			}
			return CreateResult{Link: existing, Duplicate: true}, nil
		default:
			return CreateResult{}, errx.Propagate(op, err)
		}
	}

	return CreateResult{}, errx.E(op, errx.Unavailable,
		errors.New("could not generate unique key after retries"))
}

func (s *service) Get(ctx context.Context, id string) (Link, error) {
	const op = "shortener.service.Get"

	uid, err := idgen.Parse(id)
	if err != nil {
		return Link{}, errx.E(op, errx.InvalidReference, err)
	}

	link, err := s.repo.Get(ctx, uid)
	if err != nil {
		return Link{}, errx.Propagate(op, err)
	}
	return link, nil
}

// Resolve returns the long URL a key redirects to. Keys that no generator
// could have produced are reported as NotFound without touching the store.
func (s *service) Resolve(ctx context.Context, key string) (string, error) {
	const op = "shortener.service.Resolve"

	if !keygen.Valid(key, MaxKeyLength) {
		return "", errx.E(op, errx.NotFound, errors.New("no link for key"))
	}

	links, err := s.repo.List(ctx, ByKey(key))
	if err != nil {
		return "", errx.Propagate(op, err)
	}
	if len(links) == 0 {
		return "", errx.E(op, errx.NotFound, errors.New("no link for key"))
	}
	return links[0].URL, nil
}

func (s *service) Delete(ctx context.Context, id string) (Link, error) {
	const op = "shortener.service.Delete"

	uid, err := idgen.Parse(id)
	if err != nil {
		return Link{}, errx.E(op, errx.InvalidReference, err)
	}

	link, err := s.repo.Delete(ctx, uid)
	if err != nil {
		return Link{}, errx.Propagate(op, err)
	}
	return link, nil
}

func (s *service) findByURL(ctx context.Context, rawURL string) (Link, bool, error) {
	links, err := s.repo.List(ctx, ByURL(rawURL))
	if err != nil {
		return Link{}, false, err
	}
	if len(links) == 0 {
		return Link{}, false, nil
	}
	return links[0], true, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return errors.New("url too long (max 2048 characters)")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsedURL.Scheme == "" {
		return errors.New("url must include scheme (http or https)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}
