package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

var migrationNamePattern = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// Generator writes and reads migration files.
type Generator struct {
	migrationsDir string
	now           func() time.Time
}

// NewGenerator creates a new migration file generator.
func NewGenerator(migrationsDir string) *Generator {
	return &Generator{
		migrationsDir: migrationsDir,
		now:           time.Now,
	}
}

// Dir returns the migrations directory.
func (g *Generator) Dir() string {
	return g.migrationsDir
}

// NormalizeName lowercases name and turns spaces and dashes into underscores.
func NormalizeName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	if !migrationNamePattern.MatchString(n) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMigrationName, name)
	}
	return n, nil
}

// Generate writes an up/down pair containing the given SQL.
func (g *Generator) Generate(name, upSQL, downSQL string) (*MigrationFile, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := VersionAt(g.now())
	file := &MigrationFile{
		Version:  version,
		Name:     name,
		UpPath:   filepath.Join(g.migrationsDir, GenerateFileName(version, name, "up")),
		DownPath: filepath.Join(g.migrationsDir, GenerateFileName(version, name, "down")),
	}

	header := fmt.Sprintf("-- Migration: %s\n-- Version: %s\n\n", name, version)
	if err := writeNew(file.UpPath, header+upSQL); err != nil {
		return nil, fmt.Errorf("failed to write up migration: %w", err)
	}
	if err := writeNew(file.DownPath, header+downSQL); err != nil {
		return nil, fmt.Errorf("failed to write down migration: %w", err)
	}

	return file, nil
}

// GenerateEmpty writes a pair of placeholder files for manual editing.
func (g *Generator) GenerateEmpty(name string) (*MigrationFile, error) {
	return g.Generate(name,
		"-- Write your UP migration here\n",
		"-- Write your DOWN migration here\n",
	)
}

// ListMigrations lists complete up/down pairs in the migrations directory,
// sorted by version. A missing directory yields an empty list.
func (g *Generator) ListMigrations() ([]MigrationFile, error) {
	entries, err := os.ReadDir(g.migrationsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []MigrationFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[string]*MigrationFile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		fileName := entry.Name()
		version, rest, ok := strings.Cut(fileName, "_")
		if !ok {
			continue
		}

		var name string
		var up bool
		if before, ok := strings.CutSuffix(rest, ".up.sql"); ok {
			name, up = before, true
		} else if before, ok := strings.CutSuffix(rest, ".down.sql"); ok {
			name = before
		} else {
			continue
		}

		mf, exists := byVersion[version]
		if !exists {
			mf = &MigrationFile{Version: version, Name: name}
			byVersion[version] = mf
		}
		path := filepath.Join(g.migrationsDir, fileName)
		if up {
			mf.UpPath = path
		} else {
			mf.DownPath = path
		}
	}

	migrations := make([]MigrationFile, 0, len(byVersion))
	for _, mf := range byVersion {
		if mf.UpPath != "" && mf.DownPath != "" {
			migrations = append(migrations, *mf)
		}
	}
	slices.SortFunc(migrations, func(a, b MigrationFile) int {
		return strings.Compare(a.Version, b.Version)
	})

	return migrations, nil
}

// ReadMigration reads the SQL content of a migration file pair.
func (g *Generator) ReadMigration(file MigrationFile) (*Migration, error) {
	upSQL, err := os.ReadFile(file.UpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read up migration: %w", err)
	}

	downSQL, err := os.ReadFile(file.DownPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read down migration: %w", err)
	}

	return &Migration{
		Version: file.Version,
		Name:    file.Name,
		UpSQL:   string(upSQL),
		DownSQL: string(downSQL),
	}, nil
}

// LoadAll lists and reads every migration in version order.
func (g *Generator) LoadAll() ([]Migration, error) {
	files, err := g.ListMigrations()
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(files))
	for _, f := range files {
		m, err := g.ReadMigration(f)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", f.Version, err)
		}
		migrations = append(migrations, *m)
	}
	return migrations, nil
}

// writeNew refuses to overwrite an existing migration.
func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
