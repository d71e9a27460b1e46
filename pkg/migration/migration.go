// Package migration plans, writes and applies schema migrations for the
// tables held in a registry.
package migration

import (
	"errors"
	"time"

	"github.com/marshallshelly/holonet/pkg/schema"
)

var (
	// ErrMigrationFileMissing is returned when the tracking table records a
	// version that has no file on disk.
	ErrMigrationFileMissing = errors.New("migration file not found")

	// ErrInvalidMigrationName is returned for names that are not snake_case.
	ErrInvalidMigrationName = errors.New("invalid migration name")
)

// Migration represents a database migration.
type Migration struct {
	Version   string    // Version/timestamp (e.g., "20260101120000")
	Name      string    // Migration name (e.g., "create_favorites")
	UpSQL     string    // SQL for applying the migration
	DownSQL   string    // SQL for rolling back the migration
	AppliedAt time.Time // When the migration was applied
}

// MigrationFile represents a migration file pair on disk.
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// SchemaDiff represents differences between the code schema and the
// database. TablesAdded is in dependency order, TablesDropped in reverse
// dependency order.
type SchemaDiff struct {
	TablesAdded    []*schema.TableMetadata
	TablesDropped  []*schema.TableMetadata
	TablesModified []TableDiff
}

// TableDiff represents changes to a single table.
type TableDiff struct {
	TableName          string
	ColumnsAdded       []schema.ColumnMetadata
	ColumnsDropped     []schema.ColumnMetadata
	ColumnsModified    []ColumnDiff
	ForeignKeysAdded   []schema.ForeignKeyMetadata
	ForeignKeysDropped []schema.ForeignKeyMetadata
}

// ColumnDiff represents changes to a single column.
type ColumnDiff struct {
	ColumnName    string
	OldColumn     schema.ColumnMetadata
	NewColumn     schema.ColumnMetadata
	TypeChanged   bool
	NullChanged   bool
	UniqueChanged bool
}

// MigrationStatus represents the status of a migration.
type MigrationStatus string

const (
	// StatusPending means the migration has not been applied.
	StatusPending MigrationStatus = "pending"
	// StatusApplied means the migration has been applied.
	StatusApplied MigrationStatus = "applied"
	// StatusMissing means the database records a version with no file.
	StatusMissing MigrationStatus = "missing"
)

// MigrationRecord represents a migration in the tracking table.
type MigrationRecord struct {
	Version   string
	Name      string
	Status    MigrationStatus
	AppliedAt *time.Time
}

// HasChanges returns true if there are any schema differences.
func (d *SchemaDiff) HasChanges() bool {
	return len(d.TablesAdded) > 0 ||
		len(d.TablesDropped) > 0 ||
		len(d.TablesModified) > 0
}

// HasChanges returns true if the table has any changes.
func (t *TableDiff) HasChanges() bool {
	return len(t.ColumnsAdded) > 0 ||
		len(t.ColumnsDropped) > 0 ||
		len(t.ColumnsModified) > 0 ||
		len(t.ForeignKeysAdded) > 0 ||
		len(t.ForeignKeysDropped) > 0
}

func (c *ColumnDiff) hasChanges() bool {
	return c.TypeChanged || c.NullChanged || c.UniqueChanged
}

// GenerateVersion generates a timestamp-based version string in UTC.
// Format: YYYYMMDDHHmmss (e.g., "20260101120000")
func GenerateVersion() string {
	return VersionAt(time.Now())
}

// VersionAt formats t as a migration version.
func VersionAt(t time.Time) string {
	return t.UTC().Format("20060102150405")
}

// GenerateFileName generates a migration filename.
// Format: {version}_{name}.{up|down}.sql
func GenerateFileName(version, name, direction string) string {
	return version + "_" + name + "." + direction + ".sql"
}
