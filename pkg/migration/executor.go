package migration

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/marshallshelly/holonet/pkg/runtime"
)

const (
	trackingTable = "schema_migrations"

	// defaultLockID keys the advisory lock every holonet process contends on.
	defaultLockID int64 = 4_650_104_711
)

// Executor applies migrations and records them in the tracking table.
type Executor struct {
	db     *runtime.DB
	logger *slog.Logger
	lockID int64
}

// NewExecutor creates a new migration executor.
func NewExecutor(db *runtime.DB) *Executor {
	return &Executor{
		db:     db,
		logger: db.Logger().With("component", "migrate"),
		lockID: defaultLockID,
	}
}

// WithLockID sets a custom advisory lock ID.
func (e *Executor) WithLockID(lockID int64) *Executor {
	e.lockID = lockID
	return e
}

// Initialize creates the tracking table if it doesn't exist.
func (e *Executor) Initialize(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := e.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", trackingTable, err)
	}
	return nil
}

// withLock runs fn while holding the session advisory lock. The lock is taken
// on a dedicated connection so that the unlock reaches the same session.
func (e *Executor) withLock(ctx context.Context, fn func() error) error {
	pool := e.db.Pool()
	if pool == nil {
		return runtime.ErrNoConnection
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration lock: %w", err)
	}
	defer conn.Release()

	e.logger.Debug("acquiring migration lock", "lock_id", e.lockID)
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", e.lockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		// Unlock with a fresh context: ctx may already be cancelled.
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", e.lockID); err != nil {
			e.logger.Error("failed to release migration lock", "lock_id", e.lockID, "error", err)
		}
	}()

	return fn()
}

// Applied returns the applied migrations ordered by version.
func (e *Executor) Applied(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := e.db.Query(ctx, `SELECT version, name, applied_at FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var record MigrationRecord
		var appliedAt time.Time
		if err := rows.Scan(&record.Version, &record.Name, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration record: %w", err)
		}
		record.Status = StatusApplied
		record.AppliedAt = &appliedAt
		records = append(records, record)
	}

	return records, rows.Err()
}

// Apply executes a migration's up SQL and records it, in one transaction.
func (e *Executor) Apply(ctx context.Context, m Migration) error {
	err := e.db.WithTx(ctx, func(tx *runtime.Tx) error {
		if err := execScript(ctx, tx, m.UpSQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
			m.Version, m.Name,
		)
		return err
	})
	if err != nil {
		return &runtime.MigrationError{Version: m.Version, Message: "apply failed", Err: err}
	}

	e.logger.Info("migration applied", "version", m.Version, "name", m.Name)
	return nil
}

// Rollback executes a migration's down SQL and removes its record, in one
// transaction.
func (e *Executor) Rollback(ctx context.Context, m Migration) error {
	err := e.db.WithTx(ctx, func(tx *runtime.Tx) error {
		if err := execScript(ctx, tx, m.DownSQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", m.Version)
		return err
	})
	if err != nil {
		return &runtime.MigrationError{Version: m.Version, Message: "rollback failed", Err: err}
	}

	e.logger.Info("migration rolled back", "version", m.Version, "name", m.Name)
	return nil
}

// Up applies pending migrations in version order. steps <= 0 applies all of
// them. With dryRun set nothing is executed. It returns the migrations that
// were (or would be) applied.
func (e *Executor) Up(ctx context.Context, migrations []Migration, steps int, dryRun bool) ([]Migration, error) {
	var done []Migration
	err := e.withLock(ctx, func() error {
		if err := e.Initialize(ctx); err != nil {
			return err
		}
		applied, err := e.Applied(ctx)
		if err != nil {
			return err
		}

		pending := Pending(migrations, applied)
		if steps > 0 && steps < len(pending) {
			pending = pending[:steps]
		}

		for _, m := range pending {
			if dryRun {
				e.logger.Info("would apply migration", "version", m.Version, "name", m.Name)
			} else if err := e.Apply(ctx, m); err != nil {
				return err
			}
			done = append(done, m)
		}
		return nil
	})
	return done, err
}

// Down rolls back the most recently applied migrations, newest first.
// steps <= 0 rolls back one.
func (e *Executor) Down(ctx context.Context, migrations []Migration, steps int, dryRun bool) ([]Migration, error) {
	if steps <= 0 {
		steps = 1
	}

	var done []Migration
	err := e.withLock(ctx, func() error {
		if err := e.Initialize(ctx); err != nil {
			return err
		}
		applied, err := e.Applied(ctx)
		if err != nil {
			return err
		}

		byVersion := make(map[string]Migration, len(migrations))
		for _, m := range migrations {
			byVersion[m.Version] = m
		}

		for i := len(applied) - 1; i >= 0 && len(done) < steps; i-- {
			record := applied[i]
			m, ok := byVersion[record.Version]
			if !ok {
				return &runtime.MigrationError{
					Version: record.Version,
					Message: "rollback failed",
					Err:     ErrMigrationFileMissing,
				}
			}

			if dryRun {
				e.logger.Info("would roll back migration", "version", m.Version, "name", m.Name)
			} else if err := e.Rollback(ctx, m); err != nil {
				return err
			}
			done = append(done, m)
		}
		return nil
	})
	return done, err
}

// Status merges the migration files with the tracking table. Versions that
// are recorded but have no file are reported as missing.
func (e *Executor) Status(ctx context.Context, migrations []Migration) ([]MigrationRecord, error) {
	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}
	applied, err := e.Applied(ctx)
	if err != nil {
		return nil, err
	}
	return MergeStatus(migrations, applied), nil
}

// Pending returns the migrations with no applied record, in version order.
func Pending(migrations []Migration, applied []MigrationRecord) []Migration {
	seen := make(map[string]bool, len(applied))
	for _, r := range applied {
		seen[r.Version] = true
	}

	var pending []Migration
	for _, m := range migrations {
		if !seen[m.Version] {
			pending = append(pending, m)
		}
	}
	slices.SortFunc(pending, func(a, b Migration) int { return strings.Compare(a.Version, b.Version) })
	return pending
}

// MergeStatus combines files and applied records into one list ordered by
// version.
func MergeStatus(migrations []Migration, applied []MigrationRecord) []MigrationRecord {
	byVersion := make(map[string]MigrationRecord, len(applied))
	for _, r := range applied {
		byVersion[r.Version] = r
	}

	records := make([]MigrationRecord, 0, len(migrations)+len(applied))
	files := make(map[string]bool, len(migrations))
	for _, m := range migrations {
		files[m.Version] = true
		if r, ok := byVersion[m.Version]; ok {
			records = append(records, r)
			continue
		}
		records = append(records, MigrationRecord{Version: m.Version, Name: m.Name, Status: StatusPending})
	}
	for _, r := range applied {
		if !files[r.Version] {
			r.Status = StatusMissing
			records = append(records, r)
		}
	}

	slices.SortFunc(records, func(a, b MigrationRecord) int { return strings.Compare(a.Version, b.Version) })
	return records
}

func execScript(ctx context.Context, exec runtime.Executor, script string) error {
	for i, stmt := range splitSQL(script) {
		if _, err := exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}

// splitSQL splits a script into statements on semicolons, dropping comment
// lines. Statements must not contain literal semicolons.
func splitSQL(sql string) []string {
	var kept []string
	for line := range strings.Lines(sql) {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var result []string
	for stmt := range strings.SplitSeq(strings.Join(kept, ""), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}
