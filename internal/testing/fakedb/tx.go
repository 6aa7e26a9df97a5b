package fakedb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Tx is a pgx.Tx over a fake Conn. CopyFrom buffers rows until Commit.
type Tx struct {
	conn    *Conn
	pending map[string][][]any
	done    bool
}

func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakedb: nested transactions are not supported")
}

func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true

	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	if t.conn.CommitErr != nil {
		t.conn.Rollbacks++
		return t.conn.CommitErr
	}
	t.conn.Commits++
	for table, rows := range t.pending {
		t.conn.copied[table] = append(t.conn.copied[table], rows...)
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true

	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	t.conn.Rollbacks++
	return nil
}

func (t *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	if t.pending == nil {
		t.pending = map[string][][]any{}
	}
	key := tableName.Sanitize()

	var n int64
	for rowSrc.Next() {
		values, err := rowSrc.Values()
		if err != nil {
			return n, err
		}
		if len(values) != len(columnNames) {
			return n, errors.New("fakedb: row width does not match column list")
		}
		t.pending[key] = append(t.pending[key], values)
		n++
	}
	if err := rowSrc.Err(); err != nil {
		return n, err
	}
	if t.conn.CopyErr != nil {
		return n, t.conn.CopyErr
	}
	return n, nil
}

func (t *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("fakedb: SendBatch is not supported")
}

func (t *Tx) LargeObjects() pgx.LargeObjects {
	panic("fakedb: LargeObjects is not supported")
}

func (t *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("fakedb: Prepare is not supported")
}

func (t *Tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.conn.Exec(ctx, sql, args...)
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.conn.Query(ctx, sql, args...)
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.conn.QueryRow(ctx, sql, args...)
}

func (t *Tx) Conn() *pgx.Conn {
	return nil
}

var _ pgx.Tx = (*Tx)(nil)
