package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// Column describes one column of an introspected table
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

// ForeignKey describes one foreign-key relationship of an introspected table
type ForeignKey struct {
	Column    string // column in this table
	RefTable  string
	RefColumn string
}

// Table describes one introspected table
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// SchemaCatalog holds the table/column metadata of the backing store.
// Loaded once at provider initialization and read-only afterwards; used
// both for prompt construction and for query validation.
type SchemaCatalog struct {
	Tables []Table
}

// introspectSchema loads the SchemaCatalog from a SQLite database
func introspectSchema(db *sql.DB) (*SchemaCatalog, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}

	catalog := &SchemaCatalog{}
	for _, name := range names {
		table := Table{Name: name}

		colRows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", name))
		if err != nil {
			return nil, fmt.Errorf("failed to introspect table %s: %w", name, err)
		}
		for colRows.Next() {
			var cid, notNull, pk int
			var colName, colType string
			var dflt any
			if err := colRows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
				colRows.Close()
				return nil, fmt.Errorf("failed to scan column of %s: %w", name, err)
			}
			table.Columns = append(table.Columns, Column{
				Name:       colName,
				Type:       colType,
				NotNull:    notNull != 0,
				PrimaryKey: pk != 0,
			})
		}
		colRows.Close()

		fkRows, err := db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%q)", name))
		if err == nil {
			for fkRows.Next() {
				var id, seq int
				var refTable, from, to string
				var onUpdate, onDelete, match string
				if err := fkRows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
					continue
				}
				table.ForeignKeys = append(table.ForeignKeys, ForeignKey{
					Column:    from,
					RefTable:  refTable,
					RefColumn: to,
				})
			}
			fkRows.Close()
		}

		catalog.Tables = append(catalog.Tables, table)
	}

	return catalog, nil
}

// TableNames returns all table names in the catalog
func (c *SchemaCatalog) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for _, t := range c.Tables {
		names = append(names, t.Name)
	}
	return names
}

// FindTable matches a table by name, tolerating singular/plural phrasing.
// Matching is case-insensitive and identifiers always come from the catalog.
func (c *SchemaCatalog) FindTable(word string) (Table, bool) {
	w := strings.ToLower(word)
	for _, t := range c.Tables {
		n := strings.ToLower(t.Name)
		if w == n || w+"s" == n || w == n+"s" {
			return t, true
		}
	}
	return Table{}, false
}

// FirstTextColumn returns the first TEXT-typed, non-key column of the table,
// used as the target for quoted-literal searches.
func (t Table) FirstTextColumn() (Column, bool) {
	for _, col := range t.Columns {
		if col.PrimaryKey {
			continue
		}
		typ := strings.ToUpper(col.Type)
		if strings.Contains(typ, "CHAR") || strings.Contains(typ, "TEXT") {
			return col, true
		}
	}
	return Column{}, false
}

// Describe renders the catalog for prompts and the capability description,
// so the model can reference table and column names accurately.
func (c *SchemaCatalog) Describe() string {
	var b strings.Builder
	for _, t := range c.Tables {
		b.WriteString(t.Name)
		b.WriteString(" (")
		for i, col := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(col.Name)
			if col.Type != "" {
				b.WriteString(" ")
				b.WriteString(col.Type)
			}
			if col.PrimaryKey {
				b.WriteString(" PK")
			}
		}
		b.WriteString(")")
		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(&b, "\n  %s.%s -> %s.%s", t.Name, fk.Column, fk.RefTable, fk.RefColumn)
		}
		b.WriteString("\n")
	}
	return b.String()
}
