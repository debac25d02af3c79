package dbutil

import (
	"github.com/jmoiron/sqlx"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Finalize rewrites the `?` placeholders emitted by the query builder into
// the bind style of driver.
func Finalize(driver string, query string, args []interface{}) (string, []interface{}) {
	if driver == DriverPostgres {
		return sqlx.Rebind(sqlx.DOLLAR, query), args
	}
	return sqlx.Rebind(sqlx.QUESTION, query), args
}
