// Package idgen issues and parses link identifiers.
package idgen

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// canonicalLen is the length of the hyphenated hex form, the only textual
// form accepted from clients.
const canonicalLen = 36

// ErrMalformed is returned by Parse for anything that is not a canonical
// UUID string.
var ErrMalformed = errors.New("malformed identifier")

// Generator generates unique identifiers.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate() (uuid.UUID, error)
}

type v4Gen struct{}

// NewV4 returns a Generator that produces random UUID v4 values.
func NewV4() Generator { return v4Gen{} }

func (v4Gen) Generate() (uuid.UUID, error) {
	return uuid.NewRandom()
}

type v7Gen struct {
	attempts int
}

type V7Option func(*v7Gen)

// WithRetries sets how many extra attempts are made when the clock or the
// entropy source fails. Negative values are ignored.
func WithRetries(n int) V7Option {
	return func(g *v7Gen) {
		if n >= 0 {
			g.attempts = n + 1
		}
	}
}

// NewV7 returns a Generator producing time-ordered UUID v7 values, which
// keep btree inserts local on the links primary key.
func NewV7(opts ...V7Option) Generator {
	g := &v7Gen{attempts: 2}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *v7Gen) Generate() (uuid.UUID, error) {
	var err error
	for range g.attempts {
		var id uuid.UUID
		if id, err = uuid.NewV7(); err == nil {
			return id, nil
		}
	}
	return uuid.Nil, fmt.Errorf("uuid v7 generation failed after %d attempts: %w", g.attempts, err)
}

// Parse converts the canonical textual form back into a UUID. Braced, URN and
// unhyphenated spellings are rejected so each identifier has one spelling.
func Parse(s string) (uuid.UUID, error) {
	if len(s) != canonicalLen {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return id, nil
}
