package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/getmockd/bankmock/internal/storage"
	"github.com/getmockd/bankmock/pkg/logging"
	"github.com/getmockd/bankmock/pkg/repository"
	"github.com/getmockd/bankmock/pkg/resource"
)

// Engine runs the five resource operations for every registered kind.
// Each call checks out one pooled connection and returns it before exiting.
type Engine struct {
	db        *sql.DB
	repo      *repository.Repository
	validator *resource.Validator
	observer  Observer
	log       *slog.Logger

	defaultPageSize int
	maxPageSize     int
	nextPage        resource.NextPagePolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithObserver sets the operation observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithRepository replaces the default repository.
func WithRepository(r *repository.Repository) Option {
	return func(e *Engine) {
		if r != nil {
			e.repo = r
		}
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *resource.Validator) Option {
	return func(e *Engine) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithPageSizes sets the default and maximum page sizes.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(e *Engine) {
		e.defaultPageSize = defaultSize
		e.maxPageSize = maxSize
	}
}

// WithNextPagePolicy selects how next_page cursors are computed.
func WithNextPagePolicy(p resource.NextPagePolicy) Option {
	return func(e *Engine) {
		if p != "" {
			e.nextPage = p
		}
	}
}

// New creates an engine over db. The schema is expected to exist already.
func New(db *sql.DB, opts ...Option) (*Engine, error) {
	e := &Engine{
		db:              db,
		repo:            repository.New(),
		observer:        NoopObserver{},
		log:             logging.Nop(),
		defaultPageSize: resource.DefaultPageSize,
		maxPageSize:     resource.MaxPageSize,
		nextPage:        resource.NextPageLookahead,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.validator == nil {
		v, err := resource.NewValidator()
		if err != nil {
			return nil, err
		}
		e.validator = v
	}
	return e, nil
}

// MaxPageSize is the largest page size List serves.
func (e *Engine) MaxPageSize() int {
	if e.maxPageSize < 1 {
		return resource.MaxPageSize
	}
	return e.maxPageSize
}

// ListQuery is a raw list request. Page values are unparsed query text.
type ListQuery struct {
	Page     string
	PageSize string
	Filter   repository.Filter
}

// ListResult is one page of records.
type ListResult struct {
	Items      []map[string]any    `json:"items"`
	Pagination resource.Pagination `json:"pagination"`
}

// List returns one page of records of the kind.
func (e *Engine) List(ctx context.Context, kind resource.Kind, q ListQuery) (*ListResult, error) {
	c := resource.Lookup(kind)
	start := time.Now()

	page, err := resource.NormalizePage(q.Page, q.PageSize, e.defaultPageSize, e.maxPageSize)
	if err != nil {
		return nil, e.fail(c, resource.OpList, err)
	}

	filter := make(repository.Filter, len(q.Filter))
	for k, v := range q.Filter {
		if c.Filterable(k) {
			filter[k] = v
		}
	}

	limit := page.Size
	if e.nextPage == resource.NextPageLookahead {
		limit++
	}

	var rows []resource.Row
	err = e.withConn(ctx, c, resource.OpList, "", func(conn *sql.Conn) error {
		var err error
		rows, err = e.repo.List(ctx, conn, c, filter, limit, page.Offset())
		return err
	})
	if err != nil {
		return nil, e.fail(c, resource.OpList, err)
	}

	more := len(rows) > page.Size
	if more {
		rows = rows[:page.Size]
	}

	items := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		items = append(items, resource.ToResponse(c, row))
	}

	e.observer.OnList(kind, len(items), time.Since(start))
	return &ListResult{Items: items, Pagination: page.Meta(e.nextPage, len(items), more)}, nil
}

// Create validates payload and stores a new record.
func (e *Engine) Create(ctx context.Context, kind resource.Kind, payload map[string]any) (map[string]any, error) {
	c := resource.Lookup(kind)
	start := time.Now()

	if !c.Allows(resource.OpCreate) {
		return nil, e.fail(c, resource.OpCreate, &resource.MethodNotAllowedError{Kind: kind, Method: "POST"})
	}
	if err := e.validator.Validate(payload, c, resource.ModeCreate); err != nil {
		return nil, e.fail(c, resource.OpCreate, err)
	}

	var row resource.Row
	err := e.withConn(ctx, c, resource.OpCreate, "", func(conn *sql.Conn) error {
		var err error
		row, err = e.repo.Create(ctx, conn, c, resource.Project(c, payload, resource.ModeCreate))
		return err
	})
	if err != nil {
		return nil, e.fail(c, resource.OpCreate, err)
	}

	out := resource.ToResponse(c, row)
	e.observer.OnCreate(kind, fmt.Sprint(out[resource.ColumnID]), time.Since(start))
	return out, nil
}

// Get returns one record.
func (e *Engine) Get(ctx context.Context, kind resource.Kind, id string) (map[string]any, error) {
	c := resource.Lookup(kind)
	start := time.Now()

	if err := resource.ValidateID(id); err != nil {
		return nil, e.fail(c, resource.OpGet, err)
	}

	var row resource.Row
	err := e.withConn(ctx, c, resource.OpGet, id, func(conn *sql.Conn) error {
		var err error
		row, err = e.repo.Get(ctx, conn, c, id)
		return err
	})
	if err != nil {
		return nil, e.fail(c, resource.OpGet, err)
	}

	e.observer.OnRead(kind, id, time.Since(start))
	return resource.ToResponse(c, row), nil
}

// Update checks the record exists, validates payload and writes the
// updatable fields it carries.
func (e *Engine) Update(ctx context.Context, kind resource.Kind, id string, payload map[string]any) (map[string]any, error) {
	c := resource.Lookup(kind)
	start := time.Now()

	if !c.Allows(resource.OpUpdate) {
		return nil, e.fail(c, resource.OpUpdate, &resource.MethodNotAllowedError{Kind: kind, Method: "PUT"})
	}
	if err := resource.ValidateID(id); err != nil {
		return nil, e.fail(c, resource.OpUpdate, err)
	}

	// An absent record is reported before the payload is judged.
	var row resource.Row
	err := e.withConn(ctx, c, resource.OpUpdate, id, func(conn *sql.Conn) error {
		if _, err := e.repo.Get(ctx, conn, c, id); err != nil {
			return err
		}
		if err := e.validator.Validate(payload, c, resource.ModeUpdate); err != nil {
			return err
		}
		var err error
		row, err = e.repo.Update(ctx, conn, c, id, resource.Project(c, payload, resource.ModeUpdate))
		return err
	})
	if err != nil {
		return nil, e.fail(c, resource.OpUpdate, err)
	}

	e.observer.OnUpdate(kind, id, time.Since(start))
	return resource.ToResponse(c, row), nil
}

// Delete removes one record.
func (e *Engine) Delete(ctx context.Context, kind resource.Kind, id string) error {
	c := resource.Lookup(kind)
	start := time.Now()

	if !c.Allows(resource.OpDelete) {
		return e.fail(c, resource.OpDelete, &resource.MethodNotAllowedError{Kind: kind, Method: "DELETE"})
	}
	if err := resource.ValidateID(id); err != nil {
		return e.fail(c, resource.OpDelete, err)
	}

	err := e.withConn(ctx, c, resource.OpDelete, id, func(conn *sql.Conn) error {
		return e.repo.Delete(ctx, conn, c, id)
	})
	if err != nil {
		return e.fail(c, resource.OpDelete, err)
	}

	e.observer.OnDelete(kind, id, time.Since(start))
	return nil
}

// Count returns the number of stored records of the kind.
func (e *Engine) Count(ctx context.Context, kind resource.Kind) (int, error) {
	c := resource.Lookup(kind)

	var n int
	err := e.withConn(ctx, c, resource.OpList, "", func(conn *sql.Conn) error {
		var err error
		n, err = e.repo.Count(ctx, conn, c)
		return err
	})
	return n, err
}

// Ping checks that the database answers.
func (e *Engine) Ping(ctx context.Context) error {
	return storage.Ping(ctx, e.db)
}

// withConn runs fn on a connection checked out for this call only.
func (e *Engine) withConn(ctx context.Context, c *resource.Contract, op resource.Operation, id string, fn func(*sql.Conn) error) error {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return &resource.StorageError{Op: op, Kind: c.Kind, ID: id, Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer func() { _ = conn.Close() }()

	return fn(conn)
}

func (e *Engine) fail(c *resource.Contract, op resource.Operation, err error) error {
	e.observer.OnError(c.Kind, op, err)
	return err
}
