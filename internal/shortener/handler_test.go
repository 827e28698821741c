package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/teenyurl/internal/errx"
)

type envelope struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Data    LinkData `json:"data"`
}

type errorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newTestRouter(svc Service, baseURL string) *mux.Router {
	h := NewHandler(HandlerConfig{
		Service: svc,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		BaseURL: baseURL,
	})

	r := mux.NewRouter()
	r.HandleFunc("/urls", h.ListLinks).Methods(http.MethodGet)
	r.HandleFunc("/urls", h.CreateLink).Methods(http.MethodPost)
	r.HandleFunc("/urls/{id}", h.GetLink).Methods(http.MethodGet)
	r.HandleFunc("/urls/{id}", h.UpdateLink).Methods(http.MethodPut)
	r.HandleFunc("/urls/{id}", h.DeleteLink).Methods(http.MethodDelete)
	r.HandleFunc("/{key}", h.ResolveLink).Methods(http.MethodGet)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHandler_Unsupported(t *testing.T) {
	router := newTestRouter(NewService(NewMemoryRepository(nil), nil), "")

	rr := do(t, router, http.MethodGet, "/urls", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "May not retrieve all URLs", body["message"])
	assert.NotContains(t, body, "data")

	id := uuid.NewString()
	rr = do(t, router, http.MethodPut, "/urls/"+id, `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "May not update "+id+"'s url", decode[envelope](t, rr).Message)
}

func TestHandler_CreateLink(t *testing.T) {
	t.Run("201 with envelope and short url from base url", func(t *testing.T) {
		router := newTestRouter(NewService(NewMemoryRepository(nil), nil), "https://teeny.example/")
		before := testutil.ToFloat64(linksCreatedMetric.WithLabelValues(outcomeCreated))

		rr := do(t, router, http.MethodPost, "/urls", `{"url":"https://example.com/a"}`)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		body := decode[envelope](t, rr)
		assert.Equal(t, http.StatusCreated, body.Status)
		assert.Equal(t, "https://example.com/a", body.Data.Long)
		assert.Len(t, body.Data.Key, DefaultKeyLength)
		assert.Equal(t, "https://teeny.example/"+body.Data.Key, body.Data.Short)
		_, err := uuid.Parse(body.Data.ID)
		assert.NoError(t, err)

		assert.Equal(t, before+1, testutil.ToFloat64(linksCreatedMetric.WithLabelValues(outcomeCreated)))
	})

	t.Run("short url falls back to request host", func(t *testing.T) {
		router := newTestRouter(NewService(NewMemoryRepository(nil), nil), "")

		rr := do(t, router, http.MethodPost, "/urls", `{"url":"https://example.com/a"}`)
		require.Equal(t, http.StatusCreated, rr.Code)

		body := decode[envelope](t, rr)
		assert.Equal(t, "http://example.com/"+body.Data.Key, body.Data.Short)
	})

	t.Run("second create of a url is 400 with the first key and no id", func(t *testing.T) {
		router := newTestRouter(NewService(NewMemoryRepository(nil), nil), "")

		first := decode[envelope](t, do(t, router, http.MethodPost, "/urls", `{"url":"https://example.com/a"}`))

		rr := do(t, router, http.MethodPost, "/urls", `{"url":"https://example.com/a"}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		raw := decode[map[string]json.RawMessage](t, rr)
		var data map[string]any
		require.NoError(t, json.Unmarshal(raw["data"], &data))
		assert.NotContains(t, data, "id")

		body := decode[envelope](t, rr)
		assert.Equal(t, "The url was already mapped", body.Message)
		assert.Equal(t, first.Data.Key, body.Data.Key)
		assert.Equal(t, "https://example.com/a", body.Data.Long)
	})

	invalid := []struct {
		name string
		body string
	}{
		{"empty url", `{"url":""}`},
		{"null url", `{"url":null}`},
		{"missing url", `{}`},
		{"sentence", `{"url":"lorem ipsum dolor sit amet"}`},
		{"not json", `url=https://example.com`},
		{"unknown field", `{"url":"https://example.com","key":"mine"}`},
	}
	for _, tt := range invalid {
		t.Run("400 for "+tt.name, func(t *testing.T) {
			router := newTestRouter(NewService(NewMemoryRepository(nil), nil), "")

			rr := do(t, router, http.MethodPost, "/urls", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Equal(t, http.StatusBadRequest, decode[errorBody](t, rr).Status)
		})
	}

	t.Run("503 hides storage details", func(t *testing.T) {
		repo := &mockRepository{
			listFunc: func(ctx context.Context, f Filter) ([]Link, error) {
				return nil, errx.E("repo.List", errx.Unavailable, errors.New("dial tcp 10.0.0.3:5432: connection refused"))
			},
		}
		router := newTestRouter(NewService(repo, nil), "")

		rr := do(t, router, http.MethodPost, "/urls", `{"url":"https://example.com/a"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.NotContains(t, rr.Body.String(), "10.0.0.3")
		assert.Equal(t, "unavailable", decode[errorBody](t, rr).Error)
	})
}

func TestHandler_GetAndDeleteLink(t *testing.T) {
	svc := NewService(NewMemoryRepository(nil), nil)
	router := newTestRouter(svc, "")

	res, err := svc.Create(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	id := res.Link.ID.String()

	rr := do(t, router, http.MethodGet, "/urls/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[envelope](t, rr)
	assert.Equal(t, id, got.Data.ID)
	assert.Equal(t, res.Link.Key, got.Data.Key)
	assert.Equal(t, "https://example.com/a", got.Data.Long)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr = do(t, router, method, "/urls/12345", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, method)
		assert.Equal(t, "invalid_reference", decode[errorBody](t, rr).Error)

		rr = do(t, router, method, "/urls/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, rr.Code, method)
		assert.Equal(t, "link not found", decode[errorBody](t, rr).Message)
	}

	rr = do(t, router, http.MethodDelete, "/urls/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	deleted := decode[envelope](t, rr)
	assert.Equal(t, id, deleted.Data.ID)
	assert.Equal(t, res.Link.Key, deleted.Data.Key)

	rr = do(t, router, http.MethodGet, "/urls/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, router, http.MethodGet, "/"+res.Link.Key, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_ResolveLink(t *testing.T) {
	svc := NewService(NewMemoryRepository(nil), nil)
	router := newTestRouter(svc, "")

	res, err := svc.Create(context.Background(), "https://example.com/landing?utm=1")
	require.NoError(t, err)

	t.Run("302 to the long url", func(t *testing.T) {
		before := testutil.ToFloat64(redirectsMetric.WithLabelValues(resultHit))

		rr := do(t, router, http.MethodGet, "/"+res.Link.Key, "")
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "https://example.com/landing?utm=1", rr.Header().Get("Location"))

		assert.Equal(t, before+1, testutil.ToFloat64(redirectsMetric.WithLabelValues(resultHit)))
	})

	for _, key := range []string{"zzzzzzz", "not-a-key", "favicon.ico"} {
		t.Run("404 page for "+key, func(t *testing.T) {
			before := testutil.ToFloat64(redirectsMetric.WithLabelValues(resultMiss))

			rr := do(t, router, http.MethodGet, "/"+key, "")
			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), "<!DOCTYPE html>")

			assert.Equal(t, before+1, testutil.ToFloat64(redirectsMetric.WithLabelValues(resultMiss)))
		})
	}

	t.Run("503 when the store is down", func(t *testing.T) {
		repo := &mockRepository{
			listFunc: func(ctx context.Context, f Filter) ([]Link, error) {
				return nil, errx.E("repo.List", errx.Unavailable, errors.New("timeout"))
			},
		}
		rr := do(t, newTestRouter(NewService(repo, nil), ""), http.MethodGet, "/abc1234", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestRootMessage(t *testing.T) {
	root := errors.New("url must include host")
	err := errx.Propagate("outer", errx.E("inner", errx.Invalid, root))

	assert.Equal(t, "url must include host", rootMessage(err))
	assert.Equal(t, "plain", rootMessage(errors.New("plain")))
}
