package sqlite

import (
	"strings"

	"tmdbetl/internal/ddl"
)

// MapType maps a logical kind into a SQLite column affinity. Dates are stored
// as ISO-8601 text.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	default:
		return "TEXT"
	}
}

// Dialect renders SQLite DDL.
var Dialect = ddl.Dialect{
	Quote:       ddl.DoubleQuote,
	MapType:     MapType,
	IfNotExists: true,
}
