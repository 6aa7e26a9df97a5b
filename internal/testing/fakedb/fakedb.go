// Package fakedb provides an in-memory oceanq.Conn for unit tests.
//
// Statements are answered by the first registered handler whose pattern is a
// substring of the SQL text. Unmatched statements fail, so a test notices
// queries it did not expect.
package fakedb

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// Result is the canned answer to a statement.
type Result struct {
	Columns []string
	Rows    [][]any

	// Err is returned by Exec or Query itself.
	Err error

	// RowsErr is reported by Rows.Err once iteration ends.
	RowsErr error

	// Tag is the command tag returned by Exec.
	Tag string
}

// Statement is one recorded call.
type Statement struct {
	SQL  string
	Args []any
}

type handler struct {
	pattern string
	result  Result
	once    bool
	used    bool
}

// Conn is a scripted oceanq.Conn. Safe for concurrent use.
type Conn struct {
	mu         sync.Mutex
	handlers   []handler
	statements []Statement

	// BeginErr, CommitErr and CopyErr inject transaction failures.
	BeginErr  error
	CommitErr error
	CopyErr   error

	Commits   int
	Rollbacks int
	copied    map[string][][]any
}

// New creates an empty Conn.
func New() *Conn {
	return &Conn{copied: map[string][][]any{}}
}

// On registers the answer for statements containing pattern.
// Handlers are matched in registration order.
func (c *Conn) On(pattern string, r Result) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler{pattern: pattern, result: r})
	return c
}

// OnOnce registers an answer that is used for one matching statement only.
// Later statements fall through to the next matching handler.
func (c *Conn) OnOnce(pattern string, r Result) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler{pattern: pattern, result: r, once: true})
	return c
}

// Statements returns every statement issued so far.
func (c *Conn) Statements() []Statement {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Statement, len(c.statements))
	copy(out, c.statements)
	return out
}

// Calls counts statements containing pattern.
func (c *Conn) Calls(pattern string) int {
	n := 0
	for _, s := range c.Statements() {
		if strings.Contains(s.SQL, pattern) {
			n++
		}
	}
	return n
}

// Copied returns the rows streamed into table through CopyFrom.
func (c *Conn) Copied(table string) [][]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copied[table]
}

func (c *Conn) match(sql string, args []any) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statements = append(c.statements, Statement{SQL: sql, Args: args})
	for i := range c.handlers {
		h := &c.handlers[i]
		if h.used || !strings.Contains(sql, h.pattern) {
			continue
		}
		if h.once {
			h.used = true
		}
		return h.result, nil
	}
	return Result{}, fmt.Errorf("fakedb: no handler for statement: %s", sql)
}

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r, err := c.match(sql, args)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	if r.Err != nil {
		return pgconn.CommandTag{}, r.Err
	}
	return pgconn.NewCommandTag(r.Tag), nil
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	r, err := c.match(sql, args)
	if err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return NewRows(r.Columns, r.Rows, r.RowsErr), nil
}

func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	rows, err := c.Query(ctx, sql, args...)
	return &Row{rows: rows, err: err}
}

func (c *Conn) Begin(ctx context.Context) (pgx.Tx, error) {
	if c.BeginErr != nil {
		return nil, c.BeginErr
	}
	return &Tx{conn: c}, nil
}

var _ oceanq.Conn = (*Conn)(nil)

// Row implements pgx.Row over the first row of a result.
type Row struct {
	rows pgx.Rows
	err  error
}

func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	defer r.rows.Close()
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return err
		}
		return pgx.ErrNoRows
	}
	return r.rows.Scan(dest...)
}

// Rows implements pgx.Rows over in-memory values.
type Rows struct {
	columns []string
	data    [][]any
	idx     int
	rowsErr error
	err     error
	closed  bool
}

// NewRows builds a result set. rowsErr is reported after the last row.
func NewRows(columns []string, data [][]any, rowsErr error) *Rows {
	return &Rows{columns: columns, data: data, rowsErr: rowsErr}
}

func (r *Rows) Close() {
	r.closed = true
}

func (r *Rows) Err() error {
	return r.err
}

func (r *Rows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.data)))
}

func (r *Rows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.columns))
	for i, name := range r.columns {
		fds[i] = pgconn.FieldDescription{Name: name}
	}
	return fds
}

func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	if r.idx >= len(r.data) {
		r.err = r.rowsErr
		r.closed = true
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	row, err := r.current()
	if err != nil {
		return err
	}
	if len(dest) != len(row) {
		return fmt.Errorf("fakedb: scan expected %d destinations, got %d", len(row), len(dest))
	}
	for i := range dest {
		if err := assign(dest[i], row[i]); err != nil {
			return fmt.Errorf("fakedb: column %d: %w", i, err)
		}
	}
	return nil
}

func (r *Rows) Values() ([]any, error) {
	row, err := r.current()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(row))
	copy(out, row)
	return out, nil
}

func (r *Rows) RawValues() [][]byte {
	return nil
}

func (r *Rows) Conn() *pgx.Conn {
	return nil
}

func (r *Rows) current() ([]any, error) {
	if r.idx == 0 || r.idx > len(r.data) {
		return nil, errors.New("fakedb: no current row")
	}
	return r.data[r.idx-1], nil
}

// assign stores src into the pointer dest the way pgx would for simple types.
func assign(dest, src any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination %T is not a non-nil pointer", dest)
	}
	target := dv.Elem()

	if src == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			target.Set(reflect.Zero(target.Type()))
			return nil
		default:
			return fmt.Errorf("cannot scan NULL into %T", dest)
		}
	}

	sv := reflect.ValueOf(src)
	if target.Kind() == reflect.Pointer && !sv.Type().AssignableTo(target.Type()) {
		elem := reflect.New(target.Type().Elem())
		if err := assignValue(elem.Elem(), sv); err != nil {
			return err
		}
		target.Set(elem)
		return nil
	}
	return assignValue(target, sv)
}

func assignValue(target, sv reflect.Value) error {
	if sv.Type().AssignableTo(target.Type()) {
		target.Set(sv)
		return nil
	}
	if isNumber(sv.Kind()) && isNumber(target.Kind()) {
		target.Set(sv.Convert(target.Type()))
		return nil
	}
	if sv.Kind() == reflect.String && target.Kind() == reflect.String {
		target.SetString(sv.String())
		return nil
	}
	return fmt.Errorf("cannot scan %s into %s", sv.Type(), target.Type())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
