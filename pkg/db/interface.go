package db

import "database/sql"

// DBProvider is implemented by database clients that expose a sql.DB handle.
// PostgresClient and SupabaseClient both back the product index through it.
type DBProvider interface {
	DB() *sql.DB
}


