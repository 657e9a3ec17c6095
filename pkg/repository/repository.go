// Package repository maps resource contracts onto SQL tables.
//
// Every method takes an explicit Querier so the caller controls connection
// scope; a *sql.Conn, *sql.DB or *sql.Tx all satisfy it. Statements are
// parameterized and table or column names only ever come from a registered
// contract. Each mutation is a single statement committed immediately.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getmockd/bankmock/internal/id"
	"github.com/getmockd/bankmock/pkg/resource"
)

// Querier is the subset of database/sql shared by connections, pools and transactions.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Conn)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Filter holds exact-match list filters keyed by field name.
type Filter map[string]string

// Repository performs CRUD for any registered contract.
type Repository struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the source of created_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator sets the source of record identifiers.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// New creates a repository.
func New(opts ...Option) *Repository {
	r := &Repository{
		now:   time.Now,
		newID: id.UUID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a record and returns it as stored. Server fields take their
// defaults, embedded fields are serialized and missing optional fields are
// stored as NULL. fields is expected to be validated already.
func (r *Repository) Create(ctx context.Context, q Querier, c *resource.Contract, fields map[string]any) (resource.Row, error) {
	recordID := r.newID()

	cols := []string{resource.ColumnID, resource.ColumnType}
	args := []any{recordID, c.Type}

	for _, f := range c.Fields {
		v, present := fields[f.Name]
		switch {
		case f.Server:
			v = f.Default
		case !present && f.Default != nil:
			v = f.Default
		}

		stored, err := resource.StorageValue(f, v)
		if err != nil {
			return nil, &resource.StorageError{Op: resource.OpCreate, Kind: c.Kind, ID: recordID, Err: err}
		}
		cols = append(cols, f.Name)
		args = append(args, stored)
	}

	if c.CreatedAt {
		cols = append(cols, resource.ColumnCreatedAt)
		args = append(args, r.now().UTC().Format(time.RFC3339))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.Table, strings.Join(cols, ", "), placeholders(len(cols)))
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, &resource.StorageError{Op: resource.OpCreate, Kind: c.Kind, ID: recordID, Err: err}
	}

	return r.get(ctx, q, c, recordID, resource.OpCreate)
}

// Get returns the record of this kind with the id.
func (r *Repository) Get(ctx context.Context, q Querier, c *resource.Contract, recordID string) (resource.Row, error) {
	return r.get(ctx, q, c, recordID, resource.OpGet)
}

func (r *Repository) get(ctx context.Context, q Querier, c *resource.Contract, recordID string, op resource.Operation) (resource.Row, error) {
	cols := c.Columns()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND %s = ?",
		strings.Join(cols, ", "), c.Table, resource.ColumnID, resource.ColumnType)

	row, err := scanRow(cols, q.QueryRowContext(ctx, query, recordID, c.Type))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &resource.NotFoundError{Kind: c.Kind, ID: recordID}
	}
	if err != nil {
		return nil, &resource.StorageError{Op: op, Kind: c.Kind, ID: recordID, Err: err}
	}
	return row, nil
}

// List returns up to limit records after skipping offset, ordered by the
// contract's order terms and then by insertion order. Filter keys that are
// not filterable fields of the contract are ignored.
func (r *Repository) List(ctx context.Context, q Querier, c *resource.Contract, filter Filter, limit, offset int) ([]resource.Row, error) {
	cols := c.Columns()

	where := []string{resource.ColumnType + " = ?"}
	args := []any{c.Type}
	for _, f := range c.Fields {
		v, ok := filter[f.Name]
		if !ok || !f.Filterable {
			continue
		}
		where = append(where, f.Name+" = ?")
		args = append(args, v)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		strings.Join(cols, ", "), c.Table, strings.Join(where, " AND "), orderClause(c))
	args = append(args, limit, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &resource.StorageError{Op: resource.OpList, Kind: c.Kind, Err: err}
	}
	defer func() { _ = rows.Close() }()

	out := make([]resource.Row, 0, limit)
	for rows.Next() {
		row, err := scanRow(cols, rows)
		if err != nil {
			return nil, &resource.StorageError{Op: resource.OpList, Kind: c.Kind, Err: err}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &resource.StorageError{Op: resource.OpList, Kind: c.Kind, Err: err}
	}
	return out, nil
}

// Update writes the updatable fields present in fields and returns the
// updated record. Other keys are ignored. With nothing to write it behaves
// like Get.
func (r *Repository) Update(ctx context.Context, q Querier, c *resource.Contract, recordID string, fields map[string]any) (resource.Row, error) {
	var (
		sets []string
		args []any
	)
	for _, f := range c.UpdatableFields() {
		v, ok := fields[f.Name]
		if !ok {
			continue
		}
		stored, err := resource.StorageValue(f, v)
		if err != nil {
			return nil, &resource.StorageError{Op: resource.OpUpdate, Kind: c.Kind, ID: recordID, Err: err}
		}
		sets = append(sets, f.Name+" = ?")
		args = append(args, stored)
	}

	if len(sets) == 0 {
		return r.get(ctx, q, c, recordID, resource.OpUpdate)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ? AND %s = ?",
		c.Table, strings.Join(sets, ", "), resource.ColumnID, resource.ColumnType)
	args = append(args, recordID, c.Type)

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, &resource.StorageError{Op: resource.OpUpdate, Kind: c.Kind, ID: recordID, Err: err}
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, &resource.StorageError{Op: resource.OpUpdate, Kind: c.Kind, ID: recordID, Err: err}
	} else if n == 0 {
		return nil, &resource.NotFoundError{Kind: c.Kind, ID: recordID}
	}

	return r.get(ctx, q, c, recordID, resource.OpUpdate)
}

// Delete removes the record of this kind with the id.
func (r *Repository) Delete(ctx context.Context, q Querier, c *resource.Contract, recordID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?",
		c.Table, resource.ColumnID, resource.ColumnType)

	res, err := q.ExecContext(ctx, query, recordID, c.Type)
	if err != nil {
		return &resource.StorageError{Op: resource.OpDelete, Kind: c.Kind, ID: recordID, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &resource.StorageError{Op: resource.OpDelete, Kind: c.Kind, ID: recordID, Err: err}
	}
	if n == 0 {
		return &resource.NotFoundError{Kind: c.Kind, ID: recordID}
	}
	return nil
}

// Count returns the number of records of this kind.
func (r *Repository) Count(ctx context.Context, q Querier, c *resource.Contract) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", c.Table, resource.ColumnType)

	var n int
	if err := q.QueryRowContext(ctx, query, c.Type).Scan(&n); err != nil {
		return 0, &resource.StorageError{Op: resource.OpList, Kind: c.Kind, Err: err}
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(cols []string, s scanner) (resource.Row, error) {
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	row := make(resource.Row, len(cols))
	for i, col := range cols {
		switch v := values[i].(type) {
		case []byte:
			row[col] = string(v)
		case int64:
			row[col] = float64(v)
		default:
			row[col] = v
		}
	}
	return row, nil
}

func orderClause(c *resource.Contract) string {
	terms := make([]string, 0, len(c.OrderBy)+1)
	for _, o := range c.OrderBy {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		terms = append(terms, o.Column+" "+dir)
	}
	return strings.Join(append(terms, "rowid ASC"), ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
