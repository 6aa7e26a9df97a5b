package query

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/argo-ocean/oceanq/internal/db"
	"github.com/argo-ocean/oceanq/internal/db/manager"
	"github.com/argo-ocean/oceanq/internal/logging"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// Service runs the query operations against one connection.
// Thread-Safety: NOT safe for concurrent use, matching the underlying connection.
type Service struct {
	conn      oceanq.Conn
	tableName string
	table     pgx.Identifier
	tableErr  error
	tables    *manager.Manager
	logger    oceanq.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithTableName selects the measurement table. The name may be schema-qualified.
// An invalid name makes every operation fail validation.
func WithTableName(name string) Option {
	return func(s *Service) {
		s.tableName = name
	}
}

// WithLogger sets the logger used for per-query diagnostics.
func WithLogger(logger oceanq.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the source of envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the generator of query IDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// New creates a Service over conn. It panics when conn is nil.
func New(conn oceanq.Conn, opts ...Option) *Service {
	if conn == nil {
		panic("conn cannot be nil")
	}
	s := &Service{
		conn:      conn,
		tableName: oceanq.DefaultTableName,
		tables:    manager.New(),
		logger:    logging.NewNullLogger(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.table, s.tableErr = oceanq.ParseTableName(s.tableName)
	return s
}

// TableName returns the configured table name.
func (s *Service) TableName() string {
	return s.tableName
}

// start allocates the metadata of one call and logs it.
func (s *Service) start(qt oceanq.QueryType) *oceanq.Metadata {
	md := &oceanq.Metadata{
		QueryID:   s.newID(),
		QueryType: qt,
		TableName: s.tableName,
	}
	s.logger.Verbose("[%s] %s on %s", md.QueryID, qt, s.tableName)
	return md
}

func succeed[T any](s *Service, md *oceanq.Metadata, data T, message string) oceanq.Envelope[T] {
	return oceanq.Envelope[T]{
		Success:   true,
		Timestamp: s.now(),
		Message:   message,
		Data:      data,
		Metadata:  md,
	}
}

// fail builds a failure envelope. The message is prefix followed by the error
// detail; driver errors are classified first.
func fail[T any](s *Service, md *oceanq.Metadata, data T, prefix string, err error) oceanq.Envelope[T] {
	err = db.Classify(err)
	detail := strings.ReplaceAll(err.Error(), "\n", "; ")
	kind := oceanq.KindOf(err)
	s.logger.Error("[%s] %s failed (%s): %s", md.QueryID, md.QueryType, kind, detail)
	return oceanq.Envelope[T]{
		Success:   false,
		Timestamp: s.now(),
		Message:   prefix + detail,
		Data:      data,
		Metadata:  md,
		Error: &oceanq.ErrorDetail{
			Kind:   kind,
			Detail: detail,
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
