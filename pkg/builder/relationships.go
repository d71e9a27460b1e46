package builder

import (
	"context"
	"fmt"
	"reflect"

	"github.com/marshallshelly/holonet/pkg/runtime"
	"github.com/marshallshelly/holonet/pkg/schema"
)

// Related returns a SELECT over T restricted to the rows reached from source
// through the named relationship of S. The relationship must target T's
// table.
//
//	builder.Related[models.User, models.Post](db, user, "Posts").OrderByAsc("id").All(ctx)
func Related[S, T any](d *DB, source S, relation string) *SelectQuery[T] {
	q := Select[T](d)
	if q.err != nil {
		return q
	}

	src, err := d.tableFor(reflect.TypeFor[S]())
	if err != nil {
		q.err = err
		return q
	}
	rel := src.GetRelationship(relation)
	if rel == nil {
		q.err = fmt.Errorf("table %s has no relationship %s", src.Name, relation)
		return q
	}
	if rel.TargetTable != q.table.Name {
		q.err = fmt.Errorf("relationship %s.%s targets %s, not %s", src.Name, relation, rel.TargetTable, q.table.Name)
		return q
	}

	srcValue := reflect.Indirect(reflect.ValueOf(source))

	switch rel.Type {
	case schema.BelongsTo:
		key, err := columnValue(srcValue, src, rel.ForeignKey)
		if err != nil {
			q.err = err
			return q
		}
		q.Where(Eq(rel.References, key))

	case schema.HasOne, schema.HasMany:
		key, err := columnValue(srcValue, src, rel.References)
		if err != nil {
			q.err = err
			return q
		}
		q.Where(Eq(rel.ForeignKey, key))

	case schema.ManyToMany:
		key, err := columnValue(srcValue, src, rel.References)
		if err != nil {
			q.err = err
			return q
		}
		targetKey, err := joinTargetColumn(d, rel)
		if err != nil {
			q.err = err
			return q
		}
		q.Columns(q.table.Name+".*").
			InnerJoin(rel.JoinTable, fmt.Sprintf("%s.%s = %s.%s", rel.JoinTable, rel.JoinForeignKey, q.table.Name, targetKey)).
			Where(Eq(rel.JoinTable+"."+rel.ForeignKey, key))

	default:
		q.err = fmt.Errorf("unsupported relationship type %s", rel.Type)
	}

	return q
}

// joinTargetColumn is the target column the join table's JoinForeignKey
// references.
func joinTargetColumn(d *DB, rel *schema.RelationshipMetadata) (string, error) {
	join, err := d.reg.GetByName(rel.JoinTable)
	if err != nil {
		return "", err
	}
	fk := join.ForeignKeyFor(rel.JoinForeignKey)
	if fk == nil || len(fk.ReferencedColumns) != 1 {
		return "", fmt.Errorf("join table %s has no foreign key on %s", rel.JoinTable, rel.JoinForeignKey)
	}
	return fk.ReferencedColumns[0], nil
}

// manyToMany resolves a manyToMany relationship declared on S.
func manyToMany[S any](d *DB, relation string) (*schema.RelationshipMetadata, error) {
	src, err := d.tableFor(reflect.TypeFor[S]())
	if err != nil {
		return nil, err
	}
	rel := src.GetRelationship(relation)
	if rel == nil {
		return nil, fmt.Errorf("table %s has no relationship %s", src.Name, relation)
	}
	if rel.Type != schema.ManyToMany {
		return nil, fmt.Errorf("relationship %s.%s is %s, not manyToMany", src.Name, relation, rel.Type)
	}
	return rel, nil
}

func linkSQL(rel *schema.RelationshipMetadata) string {
	return fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2)", rel.JoinTable, rel.ForeignKey, rel.JoinForeignKey)
}

func unlinkSQL(rel *schema.RelationshipMetadata) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2", rel.JoinTable, rel.ForeignKey, rel.JoinForeignKey)
}

func linkedIDsSQL(rel *schema.RelationshipMetadata) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 ORDER BY %s", rel.JoinForeignKey, rel.JoinTable, rel.ForeignKey, rel.JoinForeignKey)
}

// Link inserts a join row pairing sourceID with targetID through the named
// manyToMany relationship of S. A pair that already exists fails with the
// database's unique violation.
func Link[S any](ctx context.Context, d *DB, relation string, sourceID, targetID any) error {
	rel, err := manyToMany[S](d, relation)
	if err != nil {
		return err
	}
	exec, err := d.executor()
	if err != nil {
		return err
	}
	_, err = exec.Exec(ctx, linkSQL(rel), sourceID, targetID)
	return err
}

// Unlink removes the join row pairing sourceID with targetID and reports
// whether one existed.
func Unlink[S any](ctx context.Context, d *DB, relation string, sourceID, targetID any) (bool, error) {
	rel, err := manyToMany[S](d, relation)
	if err != nil {
		return false, err
	}
	exec, err := d.executor()
	if err != nil {
		return false, err
	}
	n, err := exec.Exec(ctx, unlinkSQL(rel), sourceID, targetID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LinkedIDs returns the target keys paired with sourceID, ascending.
func LinkedIDs[S any](ctx context.Context, d *DB, relation string, sourceID any) ([]int, error) {
	rel, err := manyToMany[S](d, relation)
	if err != nil {
		return nil, err
	}
	exec, err := d.executor()
	if err != nil {
		return nil, err
	}

	query := linkedIDsSQL(rel)
	rows, err := exec.Query(ctx, query, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, runtime.ClassifyError(query, err)
	}

	return ids, nil
}
