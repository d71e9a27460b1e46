package schema

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	// ErrMissingTable is reported when a key or relationship points at an unknown table.
	ErrMissingTable = errors.New("referenced table not registered")
	// ErrMissingColumn is reported when a key or relationship points at an unknown column.
	ErrMissingColumn = errors.New("referenced column not found")
	// ErrNoPrimaryKey is reported for tables without a primary key.
	ErrNoPrimaryKey = errors.New("table has no primary key")
	// ErrJoinTableMismatch is reported when inverse manyToMany relationships
	// name different join tables.
	ErrJoinTableMismatch = errors.New("inverse relationships use different join tables")
	// ErrInverseMismatch is reported when a relationship's inverse is missing or incompatible.
	ErrInverseMismatch = errors.New("inverse relationship mismatch")
	// ErrCascadeWithoutConstraint is reported when a cascading relationship is
	// not backed by an ON DELETE CASCADE foreign key.
	ErrCascadeWithoutConstraint = errors.New("cascade relationship lacks ON DELETE CASCADE foreign key")
)

// Validate checks a complete set of tables keyed by name. All problems are
// reported together.
func Validate(tables map[string]*TableMetadata) error {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		table := tables[name]
		if table.PrimaryKey == nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, ErrNoPrimaryKey))
		}
		errs = append(errs, validateForeignKeys(table, tables)...)
		for _, rel := range table.Relationships {
			errs = append(errs, validateRelationship(table, rel, tables)...)
		}
	}

	return errors.Join(errs...)
}

func validateForeignKeys(table *TableMetadata, tables map[string]*TableMetadata) []error {
	var errs []error
	for _, fk := range table.ForeignKeys {
		ref, ok := tables[fk.ReferencedTable]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: foreign key %s -> %s: %w", table.Name, fk.Name, fk.ReferencedTable, ErrMissingTable))
			continue
		}
		for _, col := range fk.ReferencedColumns {
			if ref.GetColumnByName(col) == nil {
				errs = append(errs, fmt.Errorf("%s: foreign key %s -> %s.%s: %w", table.Name, fk.Name, ref.Name, col, ErrMissingColumn))
			}
		}
	}
	return errs
}

func validateRelationship(table *TableMetadata, rel RelationshipMetadata, tables map[string]*TableMetadata) []error {
	where := table.Name + "." + rel.Name
	target, ok := tables[rel.TargetTable]
	if !ok {
		return []error{fmt.Errorf("%s: target %s: %w", where, rel.TargetTable, ErrMissingTable)}
	}

	var errs []error
	switch rel.Type {
	case BelongsTo:
		if err := requireForeignKey(table, rel.ForeignKey, target.Name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
	case HasOne, HasMany:
		if err := requireForeignKey(target, rel.ForeignKey, table.Name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		} else if rel.Cascade && target.ForeignKeyFor(rel.ForeignKey).OnDelete != Cascade {
			errs = append(errs, fmt.Errorf("%s: %s.%s: %w", where, target.Name, rel.ForeignKey, ErrCascadeWithoutConstraint))
		}
	case ManyToMany:
		errs = append(errs, validateJoinTable(where, table, target, rel, tables)...)
	}

	if rel.Inverse != "" {
		if err := validateInverse(table, target, rel); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
	}

	return errs
}

// requireForeignKey checks that table has column referencing refTable.
func requireForeignKey(table *TableMetadata, column, refTable string) error {
	if table.GetColumnByName(column) == nil {
		return fmt.Errorf("%s.%s: %w", table.Name, column, ErrMissingColumn)
	}
	fk := table.ForeignKeyFor(column)
	if fk == nil || fk.ReferencedTable != refTable {
		return fmt.Errorf("%s.%s does not reference %s: %w", table.Name, column, refTable, ErrMissingColumn)
	}
	return nil
}

func validateJoinTable(where string, source, target *TableMetadata, rel RelationshipMetadata, tables map[string]*TableMetadata) []error {
	join, ok := tables[rel.JoinTable]
	if !ok {
		return []error{fmt.Errorf("%s: join table %s: %w", where, rel.JoinTable, ErrMissingTable)}
	}

	var errs []error
	if err := requireForeignKey(join, rel.ForeignKey, source.Name); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", where, err))
	}
	if err := requireForeignKey(join, rel.JoinForeignKey, target.Name); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", where, err))
	}
	if join.PrimaryKey == nil ||
		!slices.Contains(join.PrimaryKey.Columns, rel.ForeignKey) ||
		!slices.Contains(join.PrimaryKey.Columns, rel.JoinForeignKey) {
		errs = append(errs, fmt.Errorf("%s: join table %s must be keyed by (%s, %s): %w",
			where, join.Name, rel.ForeignKey, rel.JoinForeignKey, ErrNoPrimaryKey))
	}
	return errs
}

func validateInverse(source, target *TableMetadata, rel RelationshipMetadata) error {
	inverse := target.GetRelationship(rel.Inverse)
	if inverse == nil {
		return fmt.Errorf("%s.%s not declared: %w", target.Name, rel.Inverse, ErrInverseMismatch)
	}
	if inverse.TargetTable != source.Name {
		return fmt.Errorf("%s.%s targets %s: %w", target.Name, inverse.Name, inverse.TargetTable, ErrInverseMismatch)
	}
	if inverse.Inverse != "" && inverse.Inverse != rel.Name {
		return fmt.Errorf("%s.%s names inverse %s: %w", target.Name, inverse.Name, inverse.Inverse, ErrInverseMismatch)
	}

	switch rel.Type {
	case ManyToMany:
		if inverse.Type != ManyToMany {
			return fmt.Errorf("%s.%s is %s: %w", target.Name, inverse.Name, inverse.Type, ErrInverseMismatch)
		}
		if inverse.JoinTable != rel.JoinTable {
			return fmt.Errorf("%s vs %s.%s uses %s: %w", rel.JoinTable, target.Name, inverse.Name, inverse.JoinTable, ErrJoinTableMismatch)
		}
		if inverse.ForeignKey != rel.JoinForeignKey || inverse.JoinForeignKey != rel.ForeignKey {
			return fmt.Errorf("%s.%s join columns disagree: %w", target.Name, inverse.Name, ErrInverseMismatch)
		}
	case HasOne, HasMany:
		if inverse.Type != BelongsTo || inverse.ForeignKey != rel.ForeignKey {
			return fmt.Errorf("%s.%s must be belongsTo via %s: %w", target.Name, inverse.Name, rel.ForeignKey, ErrInverseMismatch)
		}
	case BelongsTo:
		if (inverse.Type != HasMany && inverse.Type != HasOne) || inverse.ForeignKey != rel.ForeignKey {
			return fmt.Errorf("%s.%s must be hasMany/hasOne via %s: %w", target.Name, inverse.Name, rel.ForeignKey, ErrInverseMismatch)
		}
	}

	return nil
}
