package schema

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	// StructTagKey is the key used in struct tags (e.g., `po:"..."`).
	StructTagKey = "po"
)

// Tabler is implemented by models that name their own table.
type Tabler interface {
	TableName() string
}

// Parser parses struct definitions to extract table metadata.
// A Parser is not safe for concurrent use; the registry serializes access.
type Parser struct {
	typeMapper *TypeMapper
	cache      map[reflect.Type]*TableMetadata
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{
		typeMapper: NewTypeMapper(),
		cache:      make(map[reflect.Type]*TableMetadata),
	}
}

// Parse extracts TableMetadata from a Go struct type.
func (p *Parser) Parse(modelType reflect.Type) (*TableMetadata, error) {
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", modelType.Kind())
	}
	if cached, ok := p.cache[modelType]; ok {
		return cached, nil
	}

	table := &TableMetadata{
		Name:        extractTableName(modelType),
		GoType:      modelType,
		Columns:     make([]ColumnMetadata, 0),
		ForeignKeys: make([]ForeignKeyMetadata, 0),
	}

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagValue := field.Tag.Get(StructTagKey)
		if tagValue == "" || tagValue == "-" {
			continue
		}

		tagOpts, err := parseTag(tagValue)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tag for field %s: %w", field.Name, err)
		}
		if tagOpts.Name == "-" {
			continue
		}

		column, err := p.createColumnMetadata(field, tagOpts, i)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		if tagOpts.Has("primaryKey") {
			if table.PrimaryKey == nil {
				table.PrimaryKey = &PrimaryKeyMetadata{
					Columns: []string{column.Name},
					Name:    table.Name + "_pkey",
				}
			} else {
				table.PrimaryKey.Columns = append(table.PrimaryKey.Columns, column.Name)
			}
		}

		if ref := tagOpts.Get("fk"); ref != "" {
			fk, err := parseForeignKey(table.Name, column.Name, ref, tagOpts)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			table.ForeignKeys = append(table.ForeignKeys, fk)
		}

		table.Columns = append(table.Columns, column)
	}

	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("model %s has no %s-tagged columns", modelType.Name(), StructTagKey)
	}

	if err := p.parseRelationships(modelType, table); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}

	p.cache[modelType] = table
	return table, nil
}

// extractTableName prefers the model's own TableName and falls back to the
// snake_case struct name.
func extractTableName(modelType reflect.Type) string {
	if tabler, ok := reflect.Zero(modelType).Interface().(Tabler); ok {
		if name := tabler.TableName(); name != "" {
			return name
		}
	}
	return toSnakeCase(modelType.Name())
}

// parseRelationships resolves the model's declared relationships.
func (p *Parser) parseRelationships(modelType reflect.Type, table *TableMetadata) error {
	relater, ok := reflect.Zero(modelType).Interface().(Relater)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	for _, rel := range relater.Relations() {
		meta, err := resolveRelationship(rel, table.Name)
		if err != nil {
			return err
		}
		if seen[meta.Name] {
			return fmt.Errorf("duplicate relationship %s on %s", meta.Name, table.Name)
		}
		seen[meta.Name] = true
		table.Relationships = append(table.Relationships, meta)
	}

	return nil
}

// createColumnMetadata creates a ColumnMetadata from a struct field.
func (p *Parser) createColumnMetadata(field reflect.StructField, opts *TagOptions, position int) (ColumnMetadata, error) {
	column := ColumnMetadata{
		Name:     opts.Name,
		GoField:  field.Name,
		GoType:   field.Type,
		Position: position,
	}

	if sqlType := opts.GetSQLType(); sqlType != "" {
		column.SQLType = sqlType
	} else {
		column.SQLType = p.typeMapper.GoTypeToPostgreSQL(field.Type)
	}
	if column.SQLType == "" {
		return column, fmt.Errorf("cannot map Go type %s to a SQL type", field.Type)
	}

	column.Nullable = !opts.Has("notNull") && !opts.Has("primaryKey")
	if IsNullable(field.Type) {
		if !column.Nullable {
			return column, fmt.Errorf("column %s is notNull but Go type %s is nullable", column.Name, field.Type)
		}
	}

	if defaultVal, ok := opts.Options["default"]; ok {
		column.Default = &defaultVal
	}
	column.Unique = opts.Has("unique")
	column.AutoIncrement = opts.Has("autoIncrement") || opts.Has("serial")

	return column, nil
}

// parseForeignKey parses an fk(table.column) option.
func parseForeignKey(tableName, columnName, ref string, opts *TagOptions) (ForeignKeyMetadata, error) {
	refTable, refColumn, ok := strings.Cut(ref, ".")
	if !ok || refTable == "" || refColumn == "" {
		return ForeignKeyMetadata{}, fmt.Errorf("invalid foreign key reference %q, want table.column", ref)
	}

	onDelete, err := parseReferenceAction(opts.Get("onDelete"))
	if err != nil {
		return ForeignKeyMetadata{}, err
	}
	onUpdate, err := parseReferenceAction(opts.Get("onUpdate"))
	if err != nil {
		return ForeignKeyMetadata{}, err
	}

	return ForeignKeyMetadata{
		Name:              fmt.Sprintf("fk_%s_%s_%s", tableName, columnName, refTable),
		Columns:           []string{columnName},
		ReferencedTable:   refTable,
		ReferencedColumns: []string{refColumn},
		OnDelete:          onDelete,
		OnUpdate:          onUpdate,
	}, nil
}

// parseReferenceAction converts a tag value to a ReferenceAction.
func parseReferenceAction(action string) (ReferenceAction, error) {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "", "NOACTION", "NO ACTION":
		return NoAction, nil
	case "CASCADE":
		return Cascade, nil
	case "RESTRICT":
		return Restrict, nil
	case "SETNULL", "SET NULL":
		return SetNull, nil
	case "SETDEFAULT", "SET DEFAULT":
		return SetDefault, nil
	default:
		return "", fmt.Errorf("unknown reference action %q", action)
	}
}

// TagOptions represents parsed tag options.
type TagOptions struct {
	Name    string            // Column name (first element)
	Options map[string]string // Other options
}

// parseTag parses a struct tag value into TagOptions.
// Format: "column_name,option1,option2(value),option3:value"
func parseTag(tag string) (*TagOptions, error) {
	parts := splitTag(tag)
	if len(parts) == 0 || parts[0] == "" {
		return nil, fmt.Errorf("empty tag value")
	}
	opts := &TagOptions{
		Name:    parts[0],
		Options: make(map[string]string),
	}
	for _, opt := range parts[1:] {
		if idx := strings.Index(opt, "("); idx != -1 {
			if !strings.HasSuffix(opt, ")") {
				return nil, fmt.Errorf("invalid option format: %s", opt)
			}
			opts.Options[opt[:idx]] = opt[idx+1 : len(opt)-1]
		} else if key, value, ok := strings.Cut(opt, ":"); ok {
			opts.Options[key] = value
		} else {
			opts.Options[opt] = ""
		}
	}
	return opts, nil
}

// Has checks if an option exists.
func (t *TagOptions) Has(key string) bool {
	_, ok := t.Options[key]
	return ok
}

// Get returns the value of an option.
func (t *TagOptions) Get(key string) string {
	return t.Options[key]
}

// sqlTypes are the type names accepted as tag options.
var sqlTypes = []string{
	"serial", "bigserial",
	"varchar", "text", "char",
	"smallint", "integer", "bigint",
	"numeric", "real", "double precision",
	"boolean",
	"date", "timestamp", "timestamptz",
	"bytea",
}

// GetSQLType returns the SQL type from tag options.
func (t *TagOptions) GetSQLType() string {
	for _, sqlType := range sqlTypes {
		if t.Has(sqlType) {
			if value := t.Get(sqlType); value != "" {
				return fmt.Sprintf("%s(%s)", sqlType, value)
			}
			return sqlType
		}
	}
	return ""
}

// splitTag splits a tag value by commas, handling nested parentheses.
func splitTag(tag string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range tag {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// toSnakeCase converts a string from PascalCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && ch >= 'A' && ch <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(ch)
	}
	return strings.ToLower(result.String())
}
