package shortener

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sundayezeilo/teenyurl/internal/errx"
	"github.com/sundayezeilo/teenyurl/internal/httpx"
)

//go:embed assets/404.html
var notFoundPage []byte

// HTTPCreateLinkRequest represents the JSON request body for creating a link.
type HTTPCreateLinkRequest struct {
	URL string `json:"url"`
}

// LinkData is the data member of every link response. ID is left out of
// the duplicate-create response.
type LinkData struct {
	ID    string `json:"id,omitempty"`
	Long  string `json:"long"`
	Key   string `json:"key"`
	Short string `json:"short"`
}

// Handler provides HTTP handlers for the URL shortener service.
type Handler struct {
	service Service
	logger  *slog.Logger
	baseURL string
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	BaseURL string // e.g. "https://teeny.example"; empty means http://<request host>
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// ListLinks handles GET /urls. Enumerating every link is not offered.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	httpx.WriteEnvelope(w, http.StatusMethodNotAllowed, "May not retrieve all URLs", nil)
}

// UpdateLink handles PUT /urls/{id}. Links are immutable once created.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	httpx.WriteEnvelope(w, http.StatusMethodNotAllowed,
		fmt.Sprintf("May not update %s's url", id), nil)
}

// CreateLink handles POST /urls.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		linksCreatedMetric.WithLabelValues(outcomeRejected).Inc()
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	res, err := h.service.Create(ctx, req.URL)
	if err != nil {
		if errx.KindOf(err) == errx.Invalid {
			linksCreatedMetric.WithLabelValues(outcomeRejected).Inc()
		} else {
			linksCreatedMetric.WithLabelValues(outcomeFailed).Inc()
		}
		h.writeError(ctx, logger, w, err, "url", req.URL)
		return
	}

	data := h.linkData(r, res.Link)

	if res.Duplicate {
		logger.InfoContext(ctx, "url already mapped",
			"link_id", res.Link.ID.String(),
			"key", res.Link.Key,
		)
		linksCreatedMetric.WithLabelValues(outcomeDuplicate).Inc()
		data.ID = ""
		httpx.WriteEnvelope(w, http.StatusBadRequest, "The url was already mapped", data)
		return
	}

	logger.InfoContext(ctx, "link created successfully",
		"link_id", res.Link.ID.String(),
		"key", res.Link.Key,
	)
	linksCreatedMetric.WithLabelValues(outcomeCreated).Inc()
	httpx.WriteEnvelope(w, http.StatusCreated, "Successfully created the following teeny-url!", data)
}

// GetLink handles GET /urls/{id}.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	id := mux.Vars(r)["id"]

	link, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeError(ctx, logger, w, err, "id", id)
		return
	}

	httpx.WriteEnvelope(w, http.StatusOK, "Successfully retrieved the following teeny-url!", h.linkData(r, link))
}

// DeleteLink handles DELETE /urls/{id}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	id := mux.Vars(r)["id"]

	link, err := h.service.Delete(ctx, id)
	if err != nil {
		h.writeError(ctx, logger, w, err, "id", id)
		return
	}

	logger.InfoContext(ctx, "link deleted",
		"link_id", link.ID.String(),
		"key", link.Key,
	)
	httpx.WriteEnvelope(w, http.StatusOK, "Successfully deleted the following teeny-url!", h.linkData(r, link))
}

// ResolveLink handles GET /{key}: a 302 to the long URL, or the static 404
// page when no link holds the key.
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	key := mux.Vars(r)["key"]

	longURL, err := h.service.Resolve(ctx, key)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			logger.DebugContext(ctx, "key not found", "key", key)
			redirectsMetric.WithLabelValues(resultMiss).Inc()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write(notFoundPage)
			return
		}
		redirectsMetric.WithLabelValues(resultFail).Inc()
		h.writeError(ctx, logger, w, err, "key", key)
		return
	}

	redirectsMetric.WithLabelValues(resultHit).Inc()
	logger.DebugContext(ctx, "key resolved",
		"key", key,
		"referer", r.Referer(),
	)
	http.Redirect(w, r, longURL, http.StatusFound)
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

func (h *Handler) linkData(r *http.Request, link Link) LinkData {
	return LinkData{
		ID:    link.ID.String(),
		Long:  link.URL,
		Key:   link.Key,
		Short: h.shortURL(r, link.Key),
	}
}

func (h *Handler) shortURL(r *http.Request, key string) string {
	base := h.baseURL
	if base == "" {
		base = "http://" + r.Host
	}
	return base + "/" + key
}

// writeError maps err's kind to a status code and writes the error body.
// Server-side failures are logged at error level and described generically.
func (h *Handler) writeError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, attrs ...any) {
	kind := errx.KindOf(err)
	status := httpx.ErrorKindToStatus(kind)

	logAttrs := append([]any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}, attrs...)

	message := rootMessage(err)
	if kind == errx.NotFound {
		message = "link not found"
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", logAttrs...)
		message = "The request could not be completed at this time. Please try again."
	} else {
		logger.WarnContext(ctx, "request rejected", logAttrs...)
	}

	httpx.WriteError(w, status, httpx.ErrorKindToCode(kind), message, nil)
}

// rootMessage strips the errx operation chain and returns the message of the
// underlying cause.
func rootMessage(err error) string {
	for {
		var e *errx.Error
		if !errors.As(err, &e) || e.Err == nil {
			return err.Error()
		}
		err = e.Err
	}
}
