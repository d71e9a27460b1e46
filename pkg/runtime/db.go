package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Executor is the query surface shared by DB and Tx.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Executor = (*DB)(nil)
	_ Executor = (*Tx)(nil)
)

// DB represents a database connection pool.
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDB creates a new DB instance from a connection pool.
func NewDB(pool *pgxpool.Pool, logger *slog.Logger) *DB {
	if logger == nil {
		logger = DiscardLogger()
	}
	return &DB{pool: pool, logger: logger}
}

// Connect opens a pool using config and verifies it with a ping.
func Connect(ctx context.Context, config *Config, logger *slog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}

	return open(ctx, poolConfig, logger)
}

// ConnectWithURL creates a new DB instance using a connection URL.
func ConnectWithURL(ctx context.Context, url string, logger *slog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}
	return open(ctx, poolConfig, logger)
}

func open(ctx context.Context, poolConfig *pgxpool.Config, logger *slog.Logger) (*DB, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := NewDB(pool, logger)
	db.logger.Info("database connected",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return db, nil
}

// Pool returns the underlying pgxpool.Pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Logger returns the logger the DB was created with.
func (db *DB) Logger() *slog.Logger {
	return db.logger
}

// Close closes the database connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.pool == nil {
		return ErrNoConnection
	}
	return db.pool.Ping(ctx)
}

// Exec executes a query without returning any rows.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	db.logger.Debug("exec", "sql", sql, "args", len(args))
	result, err := db.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, ClassifyError(sql, err)
	}
	return result.RowsAffected(), nil
}

// Query executes a query that returns rows.
func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.logger.Debug("query", "sql", sql, "args", len(args))
	rows, err := db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, ClassifyError(sql, err)
	}
	return rows, nil
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db.logger.Debug("query row", "sql", sql, "args", len(args))
	return db.pool.QueryRow(ctx, sql, args...)
}

// Begin starts a new transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx, logger: db.logger}, nil
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx     pgx.Tx
	logger *slog.Logger
	closed bool
}

// Exec executes a query inside the transaction.
func (t *Tx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if t.closed {
		return 0, ErrTransactionClosed
	}
	t.logger.Debug("tx exec", "sql", sql, "args", len(args))
	result, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, ClassifyError(sql, err)
	}
	return result.RowsAffected(), nil
}

// Query executes a query inside the transaction.
func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if t.closed {
		return nil, ErrTransactionClosed
	}
	t.logger.Debug("tx query", "sql", sql, "args", len(args))
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, ClassifyError(sql, err)
	}
	return rows, nil
}

// QueryRow executes a single-row query inside the transaction.
func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	t.logger.Debug("tx query row", "sql", sql, "args", len(args))
	return t.tx.QueryRow(ctx, sql, args...)
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return ErrTransactionClosed
	}
	t.closed = true
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return ErrTransactionClosed
	}
	t.closed = true
	if err := t.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}
