// Package ddl holds a small, dialect-neutral model of a table and renders
// CREATE TABLE statements from it.
//
// Dialects supply their own identifier quoting and type mapping; this package
// only fixes the statement shape:
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...,
//	  [PRIMARY KEY (<pk-cols>)]
//	);
package ddl

import (
	"fmt"
	"strings"
)

// ColumnDef describes one column. Name is unquoted.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef is a table name, possibly schema-qualified ("public.tmdb_movies"),
// and its ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect renders identifiers and types for one database.
type Dialect struct {
	// Quote quotes a single identifier segment.
	Quote func(string) string

	// MapType maps a logical kind ("text", "int", "float", "date",
	// "timestamp") to a column type.
	MapType func(kind string) string

	// IfNotExists adds IF NOT EXISTS to CREATE TABLE.
	IfNotExists bool
}

// QuoteFQN quotes every dot-separated segment of name. Empty segments are
// dropped.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.Quote(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders t in dialect d.
func (d Dialect) BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}
		def := d.Quote(name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
		if c.PrimaryKey {
			pks = append(pks, d.Quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := "CREATE TABLE "
	if d.IfNotExists {
		create += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", create, d.QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}

// FromKinds builds a table definition from parallel column and kind lists.
// Columns named in keys become the primary key and are NOT NULL; every other
// column is nullable.
func (d Dialect) FromKinds(fqn string, columns, kinds []string, keys ...string) (TableDef, error) {
	if len(columns) != len(kinds) {
		return TableDef{}, fmt.Errorf("ddl: %s: %d columns but %d kinds", fqn, len(columns), len(kinds))
	}
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	td := TableDef{FQN: fqn, Columns: make([]ColumnDef, len(columns))}
	for i, c := range columns {
		td.Columns[i] = ColumnDef{
			Name:       c,
			SQLType:    d.MapType(kinds[i]),
			Nullable:   !isKey[c],
			PrimaryKey: isKey[c],
		}
	}
	return td, nil
}

// DoubleQuote quotes an identifier with double quotes, doubling embedded ones.
func DoubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
