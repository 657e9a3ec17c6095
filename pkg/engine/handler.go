package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/bankmock/pkg/httputil"
	"github.com/getmockd/bankmock/pkg/logging"
	"github.com/getmockd/bankmock/pkg/repository"
	"github.com/getmockd/bankmock/pkg/resource"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Version is reported by the index route and the API document.
var Version = "1.0.0"

// Handler serves the REST surface of every registered resource kind plus the
// system routes.
type Handler struct {
	engine  *Engine
	log     *slog.Logger
	metrics *MetricsObserver
	maxBody int64
	now     func() time.Time
	mux     *http.ServeMux
	root    http.Handler
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger used for access and error logs.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithMetrics exposes observer counters on /metrics.
func WithMetrics(m *MetricsObserver) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithMaxBodyBytes caps the size of request bodies.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithHandlerClock sets the time source of health timestamps.
func WithHandlerClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler builds the router for e.
func NewHandler(e *Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:  e,
		log:     logging.Nop(),
		maxBody: DefaultMaxBodyBytes,
		now:     time.Now,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	for _, c := range resource.All() {
		h.registerResource(c)
	}
	h.registerSystem()

	h.root = accessLog(h.log, h.mux)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

func (h *Handler) registerResource(c *resource.Contract) {
	collection := c.BasePath + "{$}"
	item := c.ItemPath()

	h.mux.HandleFunc("GET "+collection, h.handleList(c.Kind))
	if c.Allows(resource.OpCreate) {
		h.mux.HandleFunc("POST "+collection, h.handleCreate(c.Kind))
	}
	h.mux.HandleFunc(collection, h.handleMethodNotAllowed(c.Kind))

	h.mux.HandleFunc("GET "+item, h.handleGet(c.Kind))
	if c.Allows(resource.OpUpdate) {
		h.mux.HandleFunc("PUT "+item, h.handleUpdate(c.Kind))
	}
	if c.Allows(resource.OpDelete) {
		h.mux.HandleFunc("DELETE "+item, h.handleDelete(c.Kind))
	}
	h.mux.HandleFunc(item, h.handleMethodNotAllowed(c.Kind))
}

func (h *Handler) handleList(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		filter := repository.Filter{}
		for key, values := range query {
			if key == "page" || key == "page_size" || len(values) == 0 {
				continue
			}
			filter[key] = values[0]
		}

		result, err := h.engine.List(r.Context(), kind, ListQuery{
			Page:     query.Get("page"),
			PageSize: query.Get("page_size"),
			Filter:   filter,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.logWrite(http.StatusOK, httputil.WriteOK(w, result))
	}
}

func (h *Handler) handleCreate(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := h.decodeObject(w, r)
		if err != nil {
			h.writeError(w, err)
			return
		}

		record, err := h.engine.Create(r.Context(), kind, payload)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.logWrite(http.StatusCreated, httputil.WriteCreated(w, record))
	}
}

func (h *Handler) handleGet(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := h.engine.Get(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.logWrite(http.StatusOK, httputil.WriteOK(w, record))
	}
}

func (h *Handler) handleUpdate(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := resource.ValidateID(id); err != nil {
			h.writeError(w, err)
			return
		}

		payload, err := h.decodeObject(w, r)
		if err != nil {
			h.writeError(w, err)
			return
		}

		record, err := h.engine.Update(r.Context(), kind, id, payload)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.logWrite(http.StatusOK, httputil.WriteOK(w, record))
	}
}

func (h *Handler) handleDelete(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.engine.Delete(r.Context(), kind, r.PathValue("id")); err != nil {
			h.writeError(w, err)
			return
		}
		httputil.WriteNoContent(w)
	}
}

func (h *Handler) handleMethodNotAllowed(kind resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, &resource.MethodNotAllowedError{Kind: kind, Method: r.Method})
	}
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.logWrite(http.StatusNotFound, httputil.WriteError(w, http.StatusNotFound, resource.MsgNotFound, ""))
}

// decodeObject reads a JSON object body. Anything else is a validation error.
func (h *Handler) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))

	var body any
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, &resource.ValidationError{Message: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)}
		case errors.Is(err, io.EOF):
			return nil, &resource.ValidationError{Message: "Request body is required"}
		default:
			return nil, &resource.ValidationError{Message: "Request body is not valid JSON"}
		}
	}
	if dec.More() {
		return nil, &resource.ValidationError{Message: "Request body is not valid JSON"}
	}

	obj, ok := body.(map[string]any)
	if !ok {
		return nil, &resource.ValidationError{Message: "Request body must be a JSON object"}
	}
	return obj, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, env := resource.MapError(err, h.log)
	h.logWrite(status, httputil.WriteError(w, status, env.Error, env.Message))
}

func (h *Handler) write(w http.ResponseWriter, status int, data any) {
	h.logWrite(status, httputil.WriteJSON(w, status, data))
}

func (h *Handler) logWrite(status int, err error) {
	if err != nil {
		h.log.Error("failed to encode response", "status", status, "error", err)
	}
}
