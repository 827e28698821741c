package httpx

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

type testRequest struct {
	URL     string `json:"url"`
	Retries int    `json:"retries"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     bool
		errContains string
		validate    func(*testing.T, testRequest)
	}{
		{
			name:        "valid JSON",
			body:        `{"url":"https://example.com/a?b=c","retries":3}`,
			contentType: "application/json",
			wantErr:     false,
			validate: func(t *testing.T, req testRequest) {
				if req.URL != "https://example.com/a?b=c" {
					t.Errorf("expected url 'https://example.com/a?b=c', got %q", req.URL)
				}
				if req.Retries != 3 {
					t.Errorf("expected retries 3, got %d", req.Retries)
				}
			},
		},
		{
			name:        "charset parameter accepted",
			body:        `{"url":"https://example.com"}`,
			contentType: "application/json; charset=utf-8",
			wantErr:     false,
		},
		{
			name:        "missing content type accepted",
			body:        `{"url":"https://example.com"}`,
			contentType: "",
			wantErr:     false,
		},
		{
			name:        "null field decodes to zero value",
			body:        `{"url":null}`,
			contentType: "application/json",
			wantErr:     false,
			validate: func(t *testing.T, req testRequest) {
				if req.URL != "" {
					t.Errorf("expected empty url, got %q", req.URL)
				}
			},
		},
		{
			name:        "form content type rejected",
			body:        `url=https://example.com`,
			contentType: "application/x-www-form-urlencoded",
			wantErr:     true,
			errContains: "content type must be application/json",
		},
		{
			name:        "empty body",
			body:        "",
			contentType: "application/json",
			wantErr:     true,
			errContains: "request body is empty",
		},
		{
			name:        "malformed JSON - missing quote",
			body:        `{"url":"https://example.com,"retries":1}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "malformed JSON",
		},
		{
			name:        "truncated JSON",
			body:        `{"url":"https://exa`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "malformed JSON",
		},
		{
			name:        "malformed JSON - trailing comma",
			body:        `{"url":"https://example.com",}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "malformed JSON",
		},
		{
			name:        "unknown field",
			body:        `{"url":"https://example.com","custom_key":"abc"}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "custom_key",
		},
		{
			name:        "invalid type for field",
			body:        `{"url":"https://example.com","retries":"three"}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "invalid value for field",
		},
		{
			name:        "multiple JSON objects",
			body:        `{"url":"https://a.example"}{"url":"https://b.example"}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "multiple JSON objects",
		},
		{
			name:        "body too large",
			body:        `{"url":"https://example.com/` + strings.Repeat("x", MaxRequestBodySize+1) + `"}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "request body too large",
		},
		{
			name:        "partial JSON - can decode but more data exists",
			body:        `{"url":"https://example.com"}extra`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "multiple JSON objects",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/test", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			result, err := DecodeJSON[testRequest](req)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error to contain %q, got %q", tt.errContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, result)
			}
		})
	}
}

func TestDecodeJSON_ZeroValueOnError(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", strings.NewReader("invalid json"))

	result, err := DecodeJSON[testRequest](req)

	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// Verify zero value is returned
	var zero testRequest
	if result != zero {
		t.Errorf("expected zero value on error, got %+v", result)
	}
}

func TestDecodeJSON_ClosesBody(t *testing.T) {
	body := &testReadCloser{
		Reader: strings.NewReader(`{"url":"https://example.com"}`),
		closed: false,
	}

	req := httptest.NewRequest("POST", "/test", body)

	_, err := DecodeJSON[testRequest](req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !body.closed {
		t.Error("expected body to be closed")
	}
}

// testReadCloser helps verify that body is closed
type testReadCloser struct {
	io.Reader
	closed bool
}

func (t *testReadCloser) Close() error {
	t.closed = true
	return nil
}
