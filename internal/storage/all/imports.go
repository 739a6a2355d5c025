// Package all wires every built-in storage backend into the storage factory.
//
// Import it for side effects only:
//
//	import _ "tmdbetl/internal/storage/all"
//
// after which storage.New and storage.EnsureTable accept the kinds
// "sqlite", "postgres", "mssql" and "mysql".
package all

import (
	_ "tmdbetl/internal/storage/mssql"
	_ "tmdbetl/internal/storage/mysql"
	_ "tmdbetl/internal/storage/postgres"
	_ "tmdbetl/internal/storage/sqlite"
)
