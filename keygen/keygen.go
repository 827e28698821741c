// Package keygen produces the short public keys that links are reached by.
// Keys are drawn from crypto/rand so they say nothing about the URL or the
// record they point at.
package keygen

import (
	"crypto/rand"
	"errors"
	"io"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// acceptBelow is the largest multiple of len(alphabet) that fits in a byte.
// Bytes at or above it are discarded so every symbol is equally likely.
const acceptBelow = 256 - 256%len(alphabet)

var ErrInvalidLength = errors.New("length must be positive")

// Generator generates keys.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate(length int) (string, error)
}

type base62 struct {
	rand io.Reader
}

// NewBase62 returns a generator of URL-path-safe base62 keys.
func NewBase62() Generator {
	return &base62{rand: rand.Reader}
}

func (g *base62) Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)
	for len(out) < length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= acceptBelow {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// Valid reports whether key could have been produced by a base62 generator
// of at most maxLen symbols.
func Valid(key string, maxLen int) bool {
	if key == "" || len(key) > maxLen {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}
