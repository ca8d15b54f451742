// Package database opens driver connections for the supported dialects.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/satishbabariya/sqlexpr/internal/debug"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
)

var (
	// ErrNoDriver is returned for dialects that have no registered driver.
	ErrNoDriver = errors.New("no driver registered for dialect")
	// ErrNotConnected is returned when a method needs an open connection.
	ErrNotConnected = errors.New("adapter is not connected")
)

// Config holds connection settings.
type Config struct {
	Dialect        string
	URL            string
	MaxConnections int
	MaxIdleTime    time.Duration
	ConnectTimeout time.Duration
}

// Querier runs bound command text. Adapters and transactions implement it.
type Querier interface {
	Execute(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Dialect() sqlgen.Dialect
}

// Adapter is a database connection for one dialect.
type Adapter interface {
	Querier
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Begin(ctx context.Context) (Transaction, error)
	Ping(ctx context.Context) error
}

// Transaction is an open database transaction.
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// engine describes how a dialect reaches its driver.
type engine struct {
	driver string
	dsn    func(url string) (string, error)
	// maxOpen overrides Config.MaxConnections when positive.
	maxOpen int
	setup   func(ctx context.Context, db *sql.DB) error
}

var (
	enginesMu sync.RWMutex
	engines   = map[string]engine{}
)

func register(dialect string, e engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[dialect] = e
}

// SQLAdapter implements Adapter on top of database/sql.
type SQLAdapter struct {
	cfg     Config
	dialect sqlgen.Dialect
	engine  engine

	mu sync.RWMutex
	db *sql.DB
}

// New returns an unconnected adapter for cfg.Dialect.
func New(cfg Config) (*SQLAdapter, error) {
	d, err := sqlgen.New(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	enginesMu.RLock()
	e, ok := engines[d.Name()]
	enginesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoDriver, d.Name())
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &SQLAdapter{cfg: cfg, dialect: d, engine: e}, nil
}

// Open creates an adapter and connects it.
func Open(ctx context.Context, cfg Config) (*SQLAdapter, error) {
	a, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Dialect returns the dialect the adapter renders for.
func (a *SQLAdapter) Dialect() sqlgen.Dialect { return a.dialect }

// Connect opens the pool and verifies it with a ping.
func (a *SQLAdapter) Connect(ctx context.Context) error {
	dsn := a.cfg.URL
	if a.engine.dsn != nil {
		var err error
		if dsn, err = a.engine.dsn(dsn); err != nil {
			return fmt.Errorf("parse %s url: %w", a.dialect.Name(), err)
		}
	}

	db, err := sql.Open(a.engine.driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := a.cfg.MaxConnections
	if a.engine.maxOpen > 0 {
		maxOpen = a.engine.maxOpen
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(maxOpen/2, 1))
	if a.cfg.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(a.cfg.MaxIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, a.cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if a.engine.setup != nil {
		if err := a.engine.setup(ctx, db); err != nil {
			db.Close()
			return err
		}
	}

	a.mu.Lock()
	a.db = db
	a.mu.Unlock()
	debug.Debug("connected", "dialect", a.dialect.Name(), "driver", a.engine.driver, "max_open", maxOpen)
	return nil
}

// Disconnect closes the pool. It is a no-op when not connected.
func (a *SQLAdapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *SQLAdapter) conn() (*sql.DB, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return nil, ErrNotConnected
	}
	return a.db, nil
}

// DB exposes the underlying pool.
func (a *SQLAdapter) DB() (*sql.DB, error) { return a.conn() }

// Execute runs a command that returns no rows.
func (a *SQLAdapter) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	debug.Debug("execute", "sql", query, "args", len(args))
	return db.ExecContext(ctx, query, args...)
}

// Query runs a command that returns rows.
func (a *SQLAdapter) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	debug.Debug("query", "sql", query, "args", len(args))
	return db.QueryContext(ctx, query, args...)
}

// Begin starts a transaction.
func (a *SQLAdapter) Begin(ctx context.Context) (Transaction, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTx{tx: tx, dialect: a.dialect}, nil
}

// Ping verifies the connection is alive.
func (a *SQLAdapter) Ping(ctx context.Context) error {
	db, err := a.conn()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

type sqlTx struct {
	tx      *sql.Tx
	dialect sqlgen.Dialect
}

func (t *sqlTx) Dialect() sqlgen.Dialect { return t.dialect }

func (t *sqlTx) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	debug.Debug("tx execute", "sql", query, "args", len(args))
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	debug.Debug("tx query", "sql", query, "args", len(args))
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }
