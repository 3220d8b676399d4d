/*
Package pgadapter provides an implementation of the
Adapter interface in the sqldataset package that works
over a PostgreSQL database.
*/
package pgadapter

import (
	"database/sql"
	"fmt"

	// Import of PostgreSQL driver
	_ "github.com/lib/pq"
	"github.com/pbanos/copse/dataset/sqldataset"
)

/*
Dialect is the sqldataset.Dialect for PostgreSQL databases
*/
var Dialect = sqldataset.Dialect{
	Placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
	IDColumn:    "SERIAL PRIMARY KEY",
	ValueType:   "DOUBLE PRECISION",
}

/*
New takes a PostgreSQL database connection URL and returns
an Adapter that works on the database or an error if it fails to connect to it.
*/
func New(url string) (sqldataset.Adapter, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	return sqldataset.NewAdapter(db, Dialect), nil
}
