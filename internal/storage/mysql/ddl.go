package mysql

import (
	"strings"

	"tmdbetl/internal/ddl"
)

// MapType maps a logical kind into a MySQL column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "double":
		return "DOUBLE"
	case "date":
		return "DATE"
	case "timestamp", "datetime", "timestamptz":
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}

// myIdent backtick-quotes an identifier, doubling embedded backticks.
func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// myFQN quotes each segment of a schema-qualified name.
func myFQN(name string) string { return Dialect.QuoteFQN(name) }

// Dialect renders MySQL DDL.
var Dialect = ddl.Dialect{
	Quote:       myIdent,
	MapType:     MapType,
	IfNotExists: true,
}
