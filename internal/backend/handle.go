package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/rongwang/deductible-server/internal/metrics"
)

// Kind selects one of the two supported backends.
type Kind string

const (
	Postgres Kind = "postgres"
	SQLite   Kind = "sqlite"
)

// ParseKind maps a configuration value to a Kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case Postgres:
		return Postgres, nil
	case SQLite, "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database backend %q", value)
	}
}

func (k Kind) driverName() string {
	if k == SQLite {
		return "sqlite3"
	}
	return "postgres"
}

// Options configures Open.
type Options struct {
	Kind           Kind
	DSN            string
	MaxConns       int
	Workers        int
	AcquireTimeout time.Duration
	ConnectTimeout time.Duration
	Logger         zerolog.Logger
}

// Handle is the single entry point to a database. Every blocking call goes
// through Run, which bounds connection use and moves the work onto the
// worker pool.
type Handle struct {
	kind           Kind
	db             *sqlx.DB
	gate           *semaphore.Weighted
	workers        *WorkerPool
	acquireTimeout time.Duration
	log            zerolog.Logger
}

// Open connects to the backend described by opts and verifies it answers.
func Open(ctx context.Context, opts Options) (*Handle, error) {
	db, err := sqlx.Open(opts.Kind.driverName(), opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	maxConns := opts.MaxConns
	if maxConns < 1 {
		maxConns = 10
	}
	// The embedded store has a single writer; one connection keeps every
	// task serialized instead of colliding on the file lock.
	if opts.Kind == SQLite {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)

	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	return New(db, opts.Kind, maxConns, opts.Workers, opts.AcquireTimeout, opts.Logger), nil
}

// New wraps an already opened database.
func New(db *sqlx.DB, kind Kind, maxConns, workers int, acquireTimeout time.Duration, log zerolog.Logger) *Handle {
	if maxConns < 1 {
		maxConns = 1
	}
	if workers < 1 {
		workers = maxConns
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	return &Handle{
		kind:           kind,
		db:             db,
		gate:           semaphore.NewWeighted(int64(maxConns)),
		workers:        NewWorkerPool(workers),
		acquireTimeout: acquireTimeout,
		log:            log.With().Str("backend", string(kind)).Logger(),
	}
}

// Kind returns the backend variant.
func (h *Handle) Kind() Kind {
	return h.kind
}

// DB returns the underlying pool, for tools and tests.
func (h *Handle) DB() *sqlx.DB {
	return h.db
}

// Logger returns the handle's logger.
func (h *Handle) Logger() zerolog.Logger {
	return h.log
}

// Rebind converts a query written with ? placeholders to the backend's
// binding syntax.
func (h *Handle) Rebind(query string) string {
	return h.db.Rebind(query)
}

// CoupledRevisions reports whether revision writes share the mutation's
// transaction. On SQLite the revision is written right after the mutation
// commits.
func (h *Handle) CoupledRevisions() bool {
	return h.kind == Postgres
}

// Acquire takes one slot of the connection gate and a connection from the
// pool, waiting at most the acquire timeout. The returned release func must be
// called exactly once.
func (h *Handle) Acquire(ctx context.Context) (*sqlx.Conn, func(), error) {
	actx, cancel := context.WithTimeout(ctx, h.acquireTimeout)
	defer cancel()

	start := time.Now()
	if err := h.gate.Acquire(actx, 1); err != nil {
		metrics.DBAcquireTimeoutsTotal.WithLabelValues(string(h.kind)).Inc()
		h.log.Warn().Dur("waited", time.Since(start)).Msg("connection gate timeout")
		return nil, nil, fmt.Errorf("%w: %v", ErrPoolExhausted, err)
	}

	conn, err := h.db.Connx(actx)
	if err != nil {
		h.gate.Release(1)
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.DBAcquireTimeoutsTotal.WithLabelValues(string(h.kind)).Inc()
			return nil, nil, fmt.Errorf("%w: %v", ErrPoolExhausted, err)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	release := func() {
		conn.Close()
		h.gate.Release(1)
	}
	return conn, release, nil
}

// Run acquires a connection, executes fn on the worker pool and waits for it.
// The wait is unconditional: once fn starts, Run returns fn's own outcome so
// that a commit is never reported as a failure or the reverse.
func (h *Handle) Run(ctx context.Context, fn func(ctx context.Context, conn *sqlx.Conn) error) error {
	conn, release, err := h.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	done := make(chan error, 1)
	task := func() {
		start := time.Now()
		defer func() {
			metrics.DBTaskDuration.WithLabelValues(string(h.kind)).Observe(time.Since(start).Seconds())
			if r := recover(); r != nil {
				h.log.Error().Interface("panic", r).Msg("database task panicked")
				done <- fmt.Errorf("%w: %v", ErrTaskFailure, r)
			}
		}()
		done <- fn(ctx, conn)
	}

	if err := h.workers.Submit(ctx, task); err != nil {
		if errors.Is(err, errPoolClosed) {
			return fmt.Errorf("%w: %v", ErrTaskFailure, err)
		}
		metrics.DBAcquireTimeoutsTotal.WithLabelValues(string(h.kind)).Inc()
		return fmt.Errorf("%w: %v", ErrPoolExhausted, err)
	}

	return <-done
}

// RunTx is Run with fn wrapped in a single transaction.
func (h *Handle) RunTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	return h.Run(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		return InTx(ctx, conn, func(tx *sqlx.Tx) error {
			return fn(ctx, tx)
		})
	})
}

// InTx runs fn inside a transaction on conn, committing on nil and rolling
// back otherwise.
func InTx(ctx context.Context, conn *sqlx.Conn, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Close stops the workers and closes the pool.
func (h *Handle) Close() error {
	h.workers.Close()
	return h.db.Close()
}
