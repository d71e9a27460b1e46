package builder

import (
	"fmt"
	"reflect"

	"github.com/marshallshelly/holonet/pkg/registry"
	"github.com/marshallshelly/holonet/pkg/runtime"
	"github.com/marshallshelly/holonet/pkg/schema"
)

// DB binds a query executor to the registry the queries are built from.
type DB struct {
	exec runtime.Executor
	reg  *registry.Registry
}

// New creates a query builder DB. exec may be nil when only ToSQL is used.
func New(exec runtime.Executor, reg *registry.Registry) *DB {
	return &DB{exec: exec, reg: reg}
}

// WithExecutor returns a DB sharing the registry but running queries on exec,
// typically a transaction.
func (d *DB) WithExecutor(exec runtime.Executor) *DB {
	return &DB{exec: exec, reg: d.reg}
}

// Executor returns the underlying executor.
func (d *DB) Executor() runtime.Executor {
	return d.exec
}

// Registry returns the registry queries are resolved against.
func (d *DB) Registry() *registry.Registry {
	return d.reg
}

func (d *DB) tableFor(t reflect.Type) (*schema.TableMetadata, error) {
	if d.reg == nil {
		return nil, fmt.Errorf("builder has no registry")
	}
	return d.reg.Get(t)
}

func (d *DB) executor() (runtime.Executor, error) {
	if d.exec == nil {
		return nil, runtime.ErrNoConnection
	}
	return d.exec, nil
}

// Select creates a new type-safe SELECT query.
// Usage: builder.Select[models.User](db).Where(...).All(ctx)
func Select[T any](d *DB) *SelectQuery[T] {
	table, err := d.tableFor(reflect.TypeFor[T]())
	return &SelectQuery[T]{
		db:      d,
		table:   table,
		err:     err,
		columns: []string{"*"},
	}
}

// Insert creates a new type-safe INSERT query.
// Usage: builder.Insert[models.User](db).Values(user).ExecReturning(ctx)
func Insert[T any](d *DB) *InsertQuery[T] {
	table, err := d.tableFor(reflect.TypeFor[T]())
	return &InsertQuery[T]{
		db:    d,
		table: table,
		err:   err,
	}
}

// Update creates a new type-safe UPDATE query.
// Usage: builder.Update[models.User](db).Set("is_active", true).Where(...).Exec(ctx)
func Update[T any](d *DB) *UpdateQuery[T] {
	table, err := d.tableFor(reflect.TypeFor[T]())
	return &UpdateQuery[T]{
		db:    d,
		table: table,
		err:   err,
		sets:  make(map[string]any),
	}
}

// Delete creates a new type-safe DELETE query.
// Usage: builder.Delete[models.User](db).Where(...).Exec(ctx)
func Delete[T any](d *DB) *DeleteQuery[T] {
	table, err := d.tableFor(reflect.TypeFor[T]())
	return &DeleteQuery[T]{
		db:    d,
		table: table,
		err:   err,
	}
}
