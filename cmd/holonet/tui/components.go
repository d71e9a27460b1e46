package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marshallshelly/holonet/pkg/schema"
)

// TableItem is one table in the browser list.
type TableItem struct {
	Table *schema.TableMetadata
}

func (i TableItem) FilterValue() string { return i.Table.Name }
func (i TableItem) Title() string       { return i.Table.Name }
func (i TableItem) Description() string {
	parts := []string{fmt.Sprintf("%d columns", len(i.Table.Columns))}
	if n := len(i.Table.ForeignKeys); n > 0 {
		parts = append(parts, fmt.Sprintf("%d foreign keys", n))
	}
	if n := len(i.Table.Relationships); n > 0 {
		parts = append(parts, fmt.Sprintf("%d relationships", n))
	}
	return mutedStyle.Render(strings.Join(parts, " · "))
}

// TableItemDelegate renders TableItems in two lines.
type TableItemDelegate struct{}

func (d TableItemDelegate) Height() int                             { return 2 }
func (d TableItemDelegate) Spacing() int                            { return 1 }
func (d TableItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d TableItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(TableItem)
	if !ok {
		return
	}

	var s string
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.Title() + "\n  " + i.Description())
	} else {
		s = unselectedItemStyle.Render("  " + i.Title() + "\n  " + i.Description())
	}

	_, _ = fmt.Fprint(w, s)
}

// RenderTable draws the detail pane for one table.
func RenderTable(t *schema.TableMetadata) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(t.Name))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Columns"))
	b.WriteString("\n")
	width := 0
	for _, col := range t.Columns {
		width = max(width, len(col.Name))
	}
	for _, col := range t.Columns {
		var flags []string
		if t.IsPrimaryKey(col.Name) {
			flags = append(flags, keyStyle.Render("PK"))
		}
		if !col.Nullable {
			flags = append(flags, infoStyle.Render("NOT NULL"))
		}
		if col.Unique {
			flags = append(flags, uniqueStyle.Render("UNIQUE"))
		}
		if col.Default != nil {
			flags = append(flags, mutedStyle.Render("DEFAULT "+*col.Default))
		}
		fmt.Fprintf(&b, "  %-*s  %-14s %s\n", width, col.Name, col.SQLType, strings.Join(flags, " "))
	}

	if len(t.ForeignKeys) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Foreign Keys"))
		b.WriteString("\n")
		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(&b, "  %s → %s(%s)",
				strings.Join(fk.Columns, ", "), fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", "))
			if fk.OnDelete == schema.Cascade {
				b.WriteString(" " + keyStyle.Render("ON DELETE CASCADE"))
			}
			b.WriteString("\n")
		}
	}

	if len(t.Relationships) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Relationships"))
		b.WriteString("\n")
		for _, rel := range t.Relationships {
			fmt.Fprintf(&b, "  %s: %s %s", rel.Name, rel.Type, rel.TargetTable)
			if rel.JoinTable != "" {
				b.WriteString(mutedStyle.Render(" via " + rel.JoinTable))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
