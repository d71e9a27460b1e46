package migration

import (
	"maps"
	"testing"

	"github.com/marshallshelly/holonet/pkg/schema"
)

func tableMap(tables []*schema.TableMetadata) map[string]*schema.TableMetadata {
	out := make(map[string]*schema.TableMetadata, len(tables))
	for _, table := range tables {
		out[table.Name] = table
	}
	return out
}

func names(tables []*schema.TableMetadata) []string {
	out := make([]string, len(tables))
	for i, table := range tables {
		out[i] = table.Name
	}
	return out
}

func TestDiffer_Compare_EmptyDatabase(t *testing.T) {
	code := tableMap(orderedTables(t))

	diff, err := NewDiffer().Compare(code, map[string]*schema.TableMetadata{})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	got := names(diff.TablesAdded)
	want := []string{"planets", "characters", "users", "posts", "comments", "user_characters", "user_planets"}
	if len(got) != len(want) {
		t.Fatalf("TablesAdded = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TablesAdded[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if len(diff.TablesDropped) != 0 || len(diff.TablesModified) != 0 {
		t.Errorf("unexpected drops or modifications: %+v", diff)
	}
}

func TestDiffer_Compare_Identical(t *testing.T) {
	code := tableMap(orderedTables(t))
	db := tableMap(orderedTables(t))

	diff, err := NewDiffer().Compare(code, db)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if diff.HasChanges() {
		t.Errorf("identical schemas produced a diff: %+v", diff)
	}
}

func TestDiffer_Compare_DroppedTables(t *testing.T) {
	all := tableMap(orderedTables(t))
	code := maps.Clone(all)
	delete(code, "user_planets")
	delete(code, "comments")

	diff, err := NewDiffer().Compare(code, all)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	got := names(diff.TablesDropped)
	if len(got) != 2 || got[0] != "user_planets" || got[1] != "comments" {
		t.Errorf("TablesDropped = %v, want [user_planets comments]", got)
	}
}

func TestDiffer_Compare_Columns(t *testing.T) {
	code := &schema.TableMetadata{
		Name: "planets",
		Columns: []schema.ColumnMetadata{
			{Name: "id", SQLType: "serial", AutoIncrement: true},
			{Name: "name", SQLType: "varchar(100)", Nullable: true, Unique: true},
			{Name: "climate", SQLType: "varchar(100)"},
			{Name: "diameter", SQLType: "integer", Nullable: true},
		},
	}
	db := &schema.TableMetadata{
		Name: "planets",
		Columns: []schema.ColumnMetadata{
			{Name: "id", SQLType: "integer"},
			{Name: "name", SQLType: "character varying(100)", Nullable: true},
			{Name: "climate", SQLType: "varchar(60)", Nullable: true},
			{Name: "rotation", SQLType: "integer", Nullable: true},
		},
	}

	diff, err := NewDiffer().Compare(
		map[string]*schema.TableMetadata{"planets": code},
		map[string]*schema.TableMetadata{"planets": db},
	)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(diff.TablesModified) != 1 {
		t.Fatalf("TablesModified = %d, want 1", len(diff.TablesModified))
	}
	td := diff.TablesModified[0]

	if len(td.ColumnsAdded) != 1 || td.ColumnsAdded[0].Name != "diameter" {
		t.Errorf("ColumnsAdded = %+v", td.ColumnsAdded)
	}
	if len(td.ColumnsDropped) != 1 || td.ColumnsDropped[0].Name != "rotation" {
		t.Errorf("ColumnsDropped = %+v", td.ColumnsDropped)
	}

	modified := make(map[string]ColumnDiff)
	for _, cd := range td.ColumnsModified {
		modified[cd.ColumnName] = cd
	}
	if _, ok := modified["id"]; ok {
		t.Error("serial and integer should compare equal")
	}
	if cd := modified["name"]; cd.TypeChanged || !cd.UniqueChanged {
		t.Errorf("name diff = %+v, want unique change only", cd)
	}
	if cd := modified["climate"]; !cd.TypeChanged || !cd.NullChanged {
		t.Errorf("climate diff = %+v, want type and null change", cd)
	}
}

func TestDiffer_Compare_ForeignKeys(t *testing.T) {
	fk := schema.ForeignKeyMetadata{
		Name:              "fk_posts_user_id_users",
		Columns:           []string{"user_id"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
		OnDelete:          schema.Cascade,
	}
	stale := fk
	stale.Name = "posts_user_id_fkey"

	cols := []schema.ColumnMetadata{{Name: "user_id", SQLType: "integer"}}
	code := &schema.TableMetadata{Name: "posts", Columns: cols, ForeignKeys: []schema.ForeignKeyMetadata{fk}}
	db := &schema.TableMetadata{Name: "posts", Columns: cols, ForeignKeys: []schema.ForeignKeyMetadata{stale}}

	diff, err := NewDiffer().Compare(
		map[string]*schema.TableMetadata{"posts": code},
		map[string]*schema.TableMetadata{"posts": db},
	)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	td := diff.TablesModified[0]
	if len(td.ForeignKeysAdded) != 1 || td.ForeignKeysAdded[0].Name != fk.Name {
		t.Errorf("ForeignKeysAdded = %+v", td.ForeignKeysAdded)
	}
	if len(td.ForeignKeysDropped) != 1 || td.ForeignKeysDropped[0].Name != stale.Name {
		t.Errorf("ForeignKeysDropped = %+v", td.ForeignKeysDropped)
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"serial", "integer"},
		{"INT4", "integer"},
		{"bigserial", "bigint"},
		{"bool", "boolean"},
		{"character varying(120)", "varchar(120)"},
		{"timestamp with time zone", "timestamptz"},
		{"text", "text"},
	}
	for _, tt := range tests {
		if got := normalizeType(tt.in); got != tt.want {
			t.Errorf("normalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
