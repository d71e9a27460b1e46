package schema

import (
	"fmt"
	"strings"
)

// RelationType is the kind of a relationship between two tables.
type RelationType string

const (
	BelongsTo  RelationType = "belongsTo"
	HasOne     RelationType = "hasOne"
	HasMany    RelationType = "hasMany"
	ManyToMany RelationType = "manyToMany"
)

// Relation declares one relationship of a model. Models expose their
// relationships as data instead of as nested struct fields:
//
//	func (User) Relations() []schema.Relation {
//	    return []schema.Relation{
//	        {Name: "Posts", Type: schema.HasMany, Target: "posts", Cascade: true, Inverse: "Author"},
//	    }
//	}
//
// Empty keys are filled in from naming conventions by the parser.
type Relation struct {
	Name       string
	Type       RelationType
	Target     string
	ForeignKey string
	References string
	// JoinTable and JoinForeignKey apply to ManyToMany only. ForeignKey is
	// then the join-table column pointing at the source table and
	// JoinForeignKey the one pointing at the target.
	JoinTable      string
	JoinForeignKey string
	Inverse        string
	// Cascade marks owned children: deleting the source deletes them.
	Cascade bool
}

// Relater is implemented by models that declare relationships.
type Relater interface {
	Relations() []Relation
}

// RelationshipMetadata is a Relation resolved against its source table.
type RelationshipMetadata struct {
	Name           string
	Type           RelationType
	SourceTable    string
	TargetTable    string
	ForeignKey     string
	References     string
	JoinTable      string
	JoinForeignKey string
	Inverse        string
	Cascade        bool
}

// resolveRelationship fills in the conventional defaults for rel.
func resolveRelationship(rel Relation, source string) (RelationshipMetadata, error) {
	if rel.Name == "" {
		return RelationshipMetadata{}, fmt.Errorf("relationship on %s has no name", source)
	}
	if rel.Target == "" {
		return RelationshipMetadata{}, fmt.Errorf("relationship %s.%s has no target table", source, rel.Name)
	}

	meta := RelationshipMetadata{
		Name:           rel.Name,
		Type:           rel.Type,
		SourceTable:    source,
		TargetTable:    rel.Target,
		ForeignKey:     rel.ForeignKey,
		References:     rel.References,
		JoinTable:      rel.JoinTable,
		JoinForeignKey: rel.JoinForeignKey,
		Inverse:        rel.Inverse,
		Cascade:        rel.Cascade,
	}

	switch rel.Type {
	case BelongsTo:
		if meta.ForeignKey == "" {
			meta.ForeignKey = singular(rel.Target) + "_id"
		}
	case HasOne, HasMany:
		if meta.ForeignKey == "" {
			meta.ForeignKey = singular(source) + "_id"
		}
	case ManyToMany:
		if meta.JoinTable == "" {
			meta.JoinTable = generateJunctionTableName(source, rel.Target)
		}
		if meta.ForeignKey == "" {
			meta.ForeignKey = singular(source) + "_id"
		}
		if meta.JoinForeignKey == "" {
			meta.JoinForeignKey = singular(rel.Target) + "_id"
		}
		if meta.Cascade {
			return RelationshipMetadata{}, fmt.Errorf("relationship %s.%s: manyToMany cannot cascade to its target", source, rel.Name)
		}
	default:
		return RelationshipMetadata{}, fmt.Errorf("relationship %s.%s has unknown type %q", source, rel.Name, rel.Type)
	}

	if meta.References == "" {
		meta.References = "id"
	}

	return meta, nil
}

// generateJunctionTableName generates a junction table name from two table names.
func generateJunctionTableName(table1, table2 string) string {
	if table1 > table2 {
		table1, table2 = table2, table1
	}
	return table1 + "_" + table2
}

// singular strips a plural "s" from a table name.
func singular(table string) string {
	if strings.HasSuffix(table, "ies") {
		return strings.TrimSuffix(table, "ies") + "y"
	}
	if strings.HasSuffix(table, "s") && !strings.HasSuffix(table, "ss") {
		return strings.TrimSuffix(table, "s")
	}
	return table
}

// GetRelationship returns a relationship by name.
func (t *TableMetadata) GetRelationship(name string) *RelationshipMetadata {
	for i := range t.Relationships {
		if t.Relationships[i].Name == name {
			return &t.Relationships[i]
		}
	}
	return nil
}

// GetRelationshipsByType returns all relationships of a specific type.
func (t *TableMetadata) GetRelationshipsByType(relType RelationType) []RelationshipMetadata {
	var result []RelationshipMetadata
	for _, rel := range t.Relationships {
		if rel.Type == relType {
			result = append(result, rel)
		}
	}
	return result
}

// HasRelationships checks if the table has any relationships.
func (t *TableMetadata) HasRelationships() bool {
	return len(t.Relationships) > 0
}
