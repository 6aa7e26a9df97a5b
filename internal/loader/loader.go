package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/argo-ocean/oceanq/internal/db"
	"github.com/argo-ocean/oceanq/internal/db/manager"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// progressInterval is the number of rows between progress callbacks.
const progressInterval = 1000

// Loader loads CSV files into the measurement table.
// Thread-Safety: NOT safe for concurrent Load calls; it shares one connection.
type Loader struct {
	conn     oceanq.Conn
	logger   oceanq.Logger
	approver oceanq.Approver
	tables   *manager.Manager

	s3       S3API
	newS3    func(ctx context.Context) (S3API, error)
	progress func(rows int64)
	now      func() time.Time
	newID    func() string
}

// Option configures a Loader.
type Option func(*Loader)

// WithS3Client sets the client used for s3:// sources.
func WithS3Client(client S3API) Option {
	return func(l *Loader) {
		l.s3 = client
	}
}

// WithProgress registers a callback invoked periodically with the number of
// rows streamed so far.
func WithProgress(fn func(rows int64)) Option {
	return func(l *Loader) {
		l.progress = fn
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// WithRunID overrides the generator of run identifiers.
func WithRunID(newID func() string) Option {
	return func(l *Loader) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// New creates a Loader. It panics when a dependency is nil.
func New(conn oceanq.Conn, logger oceanq.Logger, approver oceanq.Approver, opts ...Option) *Loader {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}

	l := &Loader{
		conn:     conn,
		logger:   logger,
		approver: approver,
		tables:   manager.New(),
		newS3:    newDefaultS3Client,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load runs one ingestion. A populated table is skipped unless opts.Replace
// is set and the approver agrees.
func (l *Loader) Load(ctx context.Context, opts oceanq.LoadOptions) (*oceanq.LoadResult, error) {
	started := l.now()
	if opts.Source == "" {
		opts.Source = oceanq.DefaultSourceFile
	}
	if opts.Table == "" {
		opts.Table = oceanq.DefaultTableName
	}

	table, err := oceanq.ParseTableName(opts.Table)
	if err != nil {
		return nil, err
	}

	result := &oceanq.LoadResult{RunID: l.newID(), Table: opts.Table}
	l.logger.Verbose("[%s] loading %s into %s", result.RunID, opts.Source, opts.Table)

	exists, err := l.tables.Exists(ctx, l.conn, table)
	if err != nil {
		return nil, db.Classify(err)
	}

	var existing []manager.Column
	if exists {
		if result.ExistingRows, err = l.tables.RowCount(ctx, l.conn, table); err != nil {
			return nil, db.Classify(err)
		}
		if result.ExistingRows > 0 && !opts.Replace {
			l.logger.Info("Table %s already holds %s rows, skipping load (use --replace to reload)",
				opts.Table, humanize.Comma(result.ExistingRows))
			result.Skipped = true
			result.Duration = l.now().Sub(started)
			return result, nil
		}
		if result.ExistingRows > 0 {
			approved, err := l.approver.RequestApproval(ctx, opts.Table, result.ExistingRows)
			if err != nil {
				return nil, fmt.Errorf("approval failed: %w", err)
			}
			if !approved {
				return nil, fmt.Errorf("replacing %s: %w", opts.Table, oceanq.ErrApprovalDenied)
			}
		}
		if existing, err = l.tables.Columns(ctx, l.conn, table); err != nil {
			return nil, db.Classify(err)
		}
	}

	src, err := l.open(ctx, opts.Source)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	r := csv.NewReader(src)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read CSV header of %s: %w", oceanq.ErrSchemaMismatch, opts.Source, err)
	}
	sch, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	if exists {
		if err := sch.checkAgainst(opts.Table, existing); err != nil {
			return nil, err
		}
	}
	l.logger.Verbose("[%s] columns: %v", result.RunID, sch.columns)

	copied, err := l.ingest(ctx, table, sch, r, exists && result.ExistingRows > 0)
	if err != nil {
		return nil, err
	}

	result.RowsLoaded = copied
	result.Columns = sch.columns
	result.Duration = l.now().Sub(started)
	l.logger.Info("Loaded %s rows into %s in %s", humanize.Comma(copied), opts.Table, result.Duration.Round(time.Millisecond))
	return result, nil
}

// ingest creates, optionally truncates, fills and verifies the table in one transaction.
func (l *Loader) ingest(ctx context.Context, table pgx.Identifier, sch *schema, r *csv.Reader, truncate bool) (n int64, err error) {
	tx, err := l.conn.Begin(ctx)
	if err != nil {
		return 0, db.Classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				l.logger.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	if err = l.tables.Create(ctx, tx, table, sch.measured); err != nil {
		return 0, db.Classify(err)
	}
	if truncate {
		l.logger.Verbose("truncating %s", table.Sanitize())
		if err = l.tables.Truncate(ctx, tx, table); err != nil {
			return 0, db.Classify(err)
		}
	}

	src := &rowSource{r: r, schema: sch, progress: l.progress}
	n, err = tx.CopyFrom(ctx, table, sch.columns, src)
	if err != nil {
		// The server reports a source failure as a cancelled COPY.
		if srcErr := src.Err(); srcErr != nil {
			return 0, srcErr
		}
		if errors.Is(err, oceanq.ErrSchemaMismatch) {
			return 0, err
		}
		return 0, db.Classify(fmt.Errorf("copy into %s failed: %w", table.Sanitize(), err))
	}

	// Verified before commit so a mismatch leaves the table as it was.
	total, err := l.tables.RowCount(ctx, tx, table)
	if err != nil {
		return 0, db.Classify(err)
	}
	if total != n {
		return 0, fmt.Errorf("%w: verification counted %d rows in %s, copied %d",
			oceanq.ErrQueryExecution, total, table.Sanitize(), n)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, db.Classify(fmt.Errorf("failed to commit load: %w", err))
	}
	return n, nil
}
