package postgres

import (
	"strings"

	"tmdbetl/internal/ddl"
)

// MapType normalizes a logical kind into a Postgres SQL type.
//
//	"int"/"integer"/"bigint"    -> BIGINT
//	"float"/"double"            -> DOUBLE PRECISION
//	"date"                      -> DATE
//	"timestamp"/"timestamptz"   -> TIMESTAMPTZ
//	everything else             -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "double":
		return "DOUBLE PRECISION"
	case "date":
		return "DATE"
	case "timestamp", "timestamptz":
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// Dialect renders Postgres DDL.
var Dialect = ddl.Dialect{
	Quote:       ddl.DoubleQuote,
	MapType:     MapType,
	IfNotExists: true,
}
