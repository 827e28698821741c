package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (64KB).
	// A create body carries one URL of at most a couple of kilobytes.
	MaxRequestBodySize = 64 << 10
)

// ErrUnsupportedMediaType is returned by DecodeJSON when the request declares
// a content type other than application/json.
var ErrUnsupportedMediaType = errors.New("content type must be application/json")

// DecodeJSON decodes a single JSON object from the request body into T,
// rejecting unknown fields, oversized bodies and trailing data. A missing
// Content-Type header is accepted.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var zeroValue T

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return zeroValue, ErrUnsupportedMediaType
		}
	}

	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	defer func() {
		_ = r.Body.Close()
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var v T
	if err := decoder.Decode(&v); err != nil {
		var syntaxErr *json.SyntaxError
		var unmarshalErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxErr):
			return zeroValue, fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return zeroValue, errors.New("malformed JSON: unexpected end of body")
		case errors.As(err, &unmarshalErr):
			return zeroValue, fmt.Errorf("invalid value for field %q", unmarshalErr.Field)
		case errors.As(err, &maxBytesErr):
			return zeroValue, fmt.Errorf("request body too large (max %d bytes)", MaxRequestBodySize)
		case errors.Is(err, io.EOF):
			return zeroValue, errors.New("request body is empty")
		default:
			return zeroValue, fmt.Errorf("failed to decode JSON: %w", err)
		}
	}

	if decoder.More() {
		return zeroValue, errors.New("request body contains multiple JSON objects")
	}

	return v, nil
}
