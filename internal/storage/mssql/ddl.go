package mssql

import (
	"context"
	"fmt"
	"strings"

	"tmdbetl/internal/ddl"
	"tmdbetl/internal/storage"
)

// MapType maps a logical kind into a SQL Server column type. Unknown kinds
// fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "double":
		return "FLOAT"
	case "date":
		return "DATE"
	case "timestamp", "datetime", "timestamptz":
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

// msIdent quotes an identifier with brackets, doubling closing brackets.
func msIdent(id string) string { return "[" + strings.ReplaceAll(id, "]", "]]") + "]" }

// Dialect renders SQL Server DDL. SQL Server has no CREATE TABLE IF NOT
// EXISTS; EnsureTable adds an OBJECT_ID guard instead.
var Dialect = ddl.Dialect{
	Quote:   msIdent,
	MapType: MapType,
}

// BuildCreateTableSQL renders td guarded by an OBJECT_ID check.
func BuildCreateTableSQL(td ddl.TableDef) (string, error) {
	create, err := Dialect.BuildCreateTableSQL(td)
	if err != nil {
		return "", err
	}
	name := strings.ReplaceAll(Dialect.QuoteFQN(td.FQN), "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", name, create), nil
}

// EnsureTable creates td when it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, _ ddl.Dialect, td ddl.TableDef) error {
	sql, err := BuildCreateTableSQL(td)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
