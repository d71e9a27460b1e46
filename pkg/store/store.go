// Package store is the persistence layer for the HoloNet models: typed CRUD
// per entity plus the relationship queries the models declare but never
// resolve themselves.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marshallshelly/holonet/pkg/builder"
	"github.com/marshallshelly/holonet/pkg/registry"
	"github.com/marshallshelly/holonet/pkg/runtime"
)

// Store runs model queries against a database or an open transaction.
type Store struct {
	conn   *runtime.DB // nil inside a transaction
	db     *builder.DB
	logger *slog.Logger
}

// New creates a Store over conn using the tables in reg.
func New(conn *runtime.DB, reg *registry.Registry) *Store {
	logger := runtime.DiscardLogger()
	var exec runtime.Executor
	if conn != nil {
		logger = conn.Logger()
		exec = conn
	}
	return &Store{
		conn:   conn,
		db:     builder.New(exec, reg),
		logger: logger.With("component", "store"),
	}
}

// ListOptions pages a list query. Zero values mean no limit and no offset.
type ListOptions struct {
	Limit  int
	Offset int
}

// WithTx runs fn against a Store bound to a single transaction. The
// transaction commits when fn returns nil. Called on a transactional Store,
// fn joins the running transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.conn == nil {
		return fn(s)
	}
	return s.conn.WithTx(ctx, func(tx *runtime.Tx) error {
		return fn(&Store{db: s.db.WithExecutor(tx), logger: s.logger})
	})
}

func create[T any](ctx context.Context, s *Store, model *T) error {
	rows, err := builder.Insert[T](s.db).Values(*model).ExecReturning(ctx)
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return fmt.Errorf("insert returned %d rows", len(rows))
	}
	*model = rows[0]
	return nil
}

func get[T any](ctx context.Context, s *Store, id int) (*T, error) {
	return builder.Select[T](s.db).Where(builder.Eq("id", id)).First(ctx)
}

// list returns a page of T ordered by id. Every condition must hold.
func list[T any](ctx context.Context, s *Store, opts ListOptions, conds ...builder.Condition) ([]T, error) {
	return listQuery[T](s, opts, conds...).All(ctx)
}

func listQuery[T any](s *Store, opts ListOptions, conds ...builder.Condition) *builder.SelectQuery[T] {
	q := builder.Select[T](s.db)
	for _, cond := range conds {
		q.And(cond)
	}
	return paginate(q, opts)
}

func paginate[T any](q *builder.SelectQuery[T], opts ListOptions) *builder.SelectQuery[T] {
	q.OrderByAsc("id")
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q.Offset(opts.Offset)
	}
	return q
}

func update[T any](ctx context.Context, s *Store, model *T) error {
	rows, err := builder.Update[T](s.db).SetModel(*model).ExecReturning(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return runtime.ErrNotFound
	}
	*model = rows[0]
	return nil
}

func remove[T any](ctx context.Context, s *Store, id int) error {
	n, err := builder.Delete[T](s.db).Where(builder.Eq("id", id)).Exec(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return runtime.ErrNotFound
	}
	return nil
}
