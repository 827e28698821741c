package httpx

import (
	"net/http"
	"testing"

	"github.com/sundayezeilo/teenyurl/internal/errx"
)

func TestErrorKindToStatus(t *testing.T) {
	tests := []struct {
		name       string
		kind       errx.Kind
		wantStatus int
	}{
		{
			name:       "not found",
			kind:       errx.NotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "conflict",
			kind:       errx.Conflict,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid",
			kind:       errx.Invalid,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid reference",
			kind:       errx.InvalidReference,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unavailable",
			kind:       errx.Unavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "internal",
			kind:       errx.Internal,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown",
			kind:       errx.Unknown,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "invalid kind value",
			kind:       errx.Kind(99),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ErrorKindToStatus(tt.kind)
			if got != tt.wantStatus {
				t.Errorf("ErrorKindToStatus(%v) = %d, want %d", tt.kind, got, tt.wantStatus)
			}
		})
	}
}

func TestErrorKindToCode(t *testing.T) {
	tests := []struct {
		name     string
		kind     errx.Kind
		wantCode string
	}{
		{
			name:     "not found",
			kind:     errx.NotFound,
			wantCode: "not_found",
		},
		{
			name:     "conflict",
			kind:     errx.Conflict,
			wantCode: "conflict",
		},
		{
			name:     "invalid",
			kind:     errx.Invalid,
			wantCode: "invalid_input",
		},
		{
			name:     "invalid reference",
			kind:     errx.InvalidReference,
			wantCode: "invalid_reference",
		},
		{
			name:     "unavailable",
			kind:     errx.Unavailable,
			wantCode: "unavailable",
		},
		{
			name:     "internal",
			kind:     errx.Internal,
			wantCode: "internal_error",
		},
		{
			name:     "unknown",
			kind:     errx.Unknown,
			wantCode: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ErrorKindToCode(tt.kind)
			if got != tt.wantCode {
				t.Errorf("ErrorKindToCode(%v) = %q, want %q", tt.kind, got, tt.wantCode)
			}
		})
	}
}
