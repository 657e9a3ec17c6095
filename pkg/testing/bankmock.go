package testing

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/getmockd/bankmock/internal/storage"
	"github.com/getmockd/bankmock/pkg/engine"
	"github.com/getmockd/bankmock/pkg/repository"
	"github.com/getmockd/bankmock/pkg/resource"
	"github.com/getmockd/bankmock/pkg/seed"
)

// MockServer is a test helper running bankmock over an in-memory database.
type MockServer struct {
	t       testing.TB
	db      *sql.DB
	engine  *engine.Engine
	repo    *repository.Repository
	handler http.Handler
	httpSrv *httptest.Server
	baseURL string

	mu       sync.Mutex
	requests []RequestLog
}

// Option configures a MockServer.
type Option func(*options)

type options struct {
	engineOpts  []engine.Option
	handlerOpts []engine.HandlerOption
}

// WithEngineOptions passes options to the engine, for example a fixed clock
// through engine.WithValidator.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// WithHandlerOptions passes options to the HTTP handler.
func WithHandlerOptions(opts ...engine.HandlerOption) Option {
	return func(o *options) { o.handlerOpts = append(o.handlerOpts, opts...) }
}

// New creates a mock server with a migrated schema. The server and its
// database are released when the test completes.
func New(t testing.TB, opts ...Option) *MockServer {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := storage.Open(storage.Config{Path: storage.MemoryPath})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := storage.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("migrate database: %v", err)
	}

	e, err := engine.New(db, o.engineOpts...)
	if err != nil {
		_ = db.Close()
		t.Fatalf("create engine: %v", err)
	}

	m := &MockServer{
		t:       t,
		db:      db,
		engine:  e,
		repo:    repository.New(),
		handler: engine.NewHandler(e, o.handlerOpts...),
	}
	t.Cleanup(func() {
		m.Stop()
		_ = db.Close()
	})
	return m
}

// Start starts an HTTP listener and returns its base URL. Calling it again
// returns the same URL.
func (m *MockServer) Start() string {
	m.t.Helper()

	if m.httpSrv != nil {
		return m.baseURL
	}
	m.httpSrv = httptest.NewServer(m.record(m.handler))
	m.baseURL = m.httpSrv.URL
	return m.baseURL
}

// Stop closes the HTTP listener. The database stays usable until cleanup.
func (m *MockServer) Stop() {
	if m.httpSrv != nil {
		m.httpSrv.Close()
		m.httpSrv = nil
	}
}

// URL returns the base URL of the mock server.
// Returns empty string if the server is not started.
func (m *MockServer) URL() string {
	return m.baseURL
}

// Client returns an http.Client configured to work with the mock server.
func (m *MockServer) Client() *http.Client {
	if m.httpSrv != nil {
		return m.httpSrv.Client()
	}
	return http.DefaultClient
}

// Handler returns the recording handler, for tests that prefer httptest.NewRecorder
// over a real listener.
func (m *MockServer) Handler() http.Handler {
	return m.record(m.handler)
}

// Engine returns the engine behind the handler.
func (m *MockServer) Engine() *engine.Engine {
	return m.engine
}

// DB returns the database behind the engine.
func (m *MockServer) DB() *sql.DB {
	return m.db
}

// Seed fills the database with generated fixtures and fails the test on error.
func (m *MockServer) Seed(seedValue int64, counts seed.Counts) seed.Result {
	m.t.Helper()

	res, err := seed.New(seedValue).Run(context.Background(), m.db, counts)
	if err != nil {
		m.t.Fatalf("seed fixtures: %v", err)
	}
	return res
}

// Reset deletes every stored record and clears the request log.
func (m *MockServer) Reset() {
	m.t.Helper()

	for _, table := range resource.Tables() {
		if _, err := m.db.ExecContext(context.Background(), "DELETE FROM "+table.Name); err != nil {
			m.t.Fatalf("reset %s: %v", table.Name, err)
		}
	}

	m.mu.Lock()
	m.requests = nil
	m.mu.Unlock()
}

// Requests returns all logged requests, newest first.
func (m *MockServer) Requests() []RequestLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RequestLog, len(m.requests))
	for i, r := range m.requests {
		out[len(m.requests)-1-i] = r
	}
	return out
}

// AssertCalled asserts that an endpoint was called at least once.
func (m *MockServer) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if m.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that an endpoint was called exactly n times.
func (m *MockServer) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	if count := m.countCalls(method, path); count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that an endpoint was not called.
func (m *MockServer) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	if count := m.countCalls(method, path); count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

func (m *MockServer) countCalls(method, path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, r := range m.requests {
		if strings.EqualFold(r.Method, method) && matchesPath(r.Path, path) {
			count++
		}
	}
	return count
}

// matchesPath reports whether actual matches expected, where a {name}
// segment in expected matches any single segment.
func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}

	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")
	if len(actualParts) != len(expectedParts) {
		return false
	}

	for i, exp := range expectedParts {
		if strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}") {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}
	return true
}

// record wraps h so every request and its status land in the request log.
func (m *MockServer) record(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(sw, r)

		m.mu.Lock()
		m.requests = append(m.requests, RequestLog{
			Method:      r.Method,
			Path:        r.URL.Path,
			QueryString: r.URL.RawQuery,
			Headers:     r.Header.Clone(),
			Body:        string(body),
			Status:      sw.status,
		})
		m.mu.Unlock()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// create stores fields as a new record of kind, with or without validation.
func (m *MockServer) create(kind resource.Kind, fields map[string]any, validate bool) (map[string]any, error) {
	ctx := context.Background()
	if validate {
		return m.engine.Create(ctx, kind, fields)
	}

	c := resource.Lookup(kind)
	row, err := m.repo.Create(ctx, m.db, c, fields)
	if err != nil {
		return nil, err
	}
	return resource.ToResponse(c, row), nil
}
