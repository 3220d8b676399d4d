package sqldataset

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
)

/*
MaxSampleInsertionsPerStatement is the maximum number
of samples that are allowed to be added with a single
insert command with the AddSamples method of the adapter.
Trying to add more will result in making more insertion commands
*/
const MaxSampleInsertionsPerStatement = 10

/*
Adapter is an interface providing the methods
needed to implement a Set with a database backend.
*/
type Adapter interface {
	ColumnName(string) (string, error)

	CreateSampleTable(ctx context.Context, columns []string) error

	AddSamples(ctx context.Context, rows [][]interface{}, columns []string) (int, error)
	IterateOnSamples(ctx context.Context, columns []string, lambda func(int, []sql.NullFloat64) (bool, error)) error
	CountSamples(ctx context.Context) (int, error)

	Close() error
}

/*
Dialect holds what differs between the SQL databases supported
by the adapters.
*/
type Dialect struct {
	// Placeholder returns the bind parameter for the i-th (1-based) value
	// of a statement
	Placeholder func(int) string
	// IDColumn is the definition of the autoincremented primary key column
	IDColumn string
	// ValueType is the column type used for features and label
	ValueType string
}

type adapter struct {
	db      *sql.DB
	dialect Dialect
}

/*
NewAdapter takes an open database and the dialect to speak
to it and returns an Adapter that works on the database.
*/
func NewAdapter(db *sql.DB, dialect Dialect) Adapter {
	return &adapter{db, dialect}
}

func (a *adapter) ColumnName(featureName string) (string, error) {
	if featureName == "id" {
		return "", fmt.Errorf(`'%s' is reserved and cannot be used as feature name`, featureName)
	}
	if featureName == "" || strings.ContainsAny(featureName, `"`) {
		return "", fmt.Errorf(`feature name '%s' is empty or contains invalid character '"'`, featureName)
	}
	return featureName, nil
}

func (a *adapter) CreateSampleTable(ctx context.Context, columns []string) error {
	var createStmtBuf bytes.Buffer
	createStmtBuf.WriteString("CREATE TABLE IF NOT EXISTS samples(")
	for _, c := range columns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" %s NULL, `, c, a.dialect.ValueType))
	}
	createStmtBuf.WriteString(`"id" `)
	createStmtBuf.WriteString(a.dialect.IDColumn)
	createStmtBuf.WriteString(`)`)
	_, err := a.db.ExecContext(ctx, createStmtBuf.String())
	if err != nil {
		return fmt.Errorf("ensuring samples table exists: %v", err)
	}
	return nil
}

func (a *adapter) AddSamples(ctx context.Context, rows [][]interface{}, columns []string) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns to store")
	}
	inserted := 0
	for chunkStart := 0; chunkStart < len(rows); chunkStart += MaxSampleInsertionsPerStatement {
		chunkEnd := chunkStart + MaxSampleInsertionsPerStatement
		if chunkEnd > len(rows) {
			chunkEnd = len(rows)
		}
		chunk := rows[chunkStart:chunkEnd]
		values := make([]interface{}, 0, len(chunk)*len(columns))
		for i, r := range chunk {
			if len(r) != len(columns) {
				return inserted, fmt.Errorf("sample #%d has %d values for %d columns", chunkStart+i, len(r), len(columns))
			}
			values = append(values, r...)
		}
		_, err := a.db.ExecContext(ctx, a.insertStatement(columns, len(chunk)), values...)
		if err != nil {
			return inserted, fmt.Errorf("inserting %d samples after the first %d: %v", len(chunk), inserted, err)
		}
		inserted += len(chunk)
	}
	return inserted, nil
}

func (a *adapter) insertStatement(columns []string, rows int) string {
	var buf bytes.Buffer
	buf.WriteString(`INSERT INTO samples ("`)
	buf.WriteString(strings.Join(columns, `", "`))
	buf.WriteString(`") VALUES `)
	p := 1
	for i := 0; i < rows; i++ {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		for j := range columns {
			if j > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(a.dialect.Placeholder(p))
			p++
		}
		buf.WriteString(")")
	}
	return buf.String()
}

func (a *adapter) IterateOnSamples(ctx context.Context, columns []string, lambda func(int, []sql.NullFloat64) (bool, error)) error {
	query := fmt.Sprintf(`SELECT "%s" FROM samples ORDER BY "id"`, strings.Join(columns, `", "`))
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for j := 0; rows.Next(); j++ {
		values := make([]sql.NullFloat64, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		err = rows.Scan(dest...)
		if err != nil {
			return err
		}
		ok, err := lambda(j, values)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	err = rows.Err()
	if err != nil {
		return err
	}
	return rows.Close()
}

func (a *adapter) CountSamples(ctx context.Context) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (a *adapter) Close() error {
	return a.db.Close()
}
