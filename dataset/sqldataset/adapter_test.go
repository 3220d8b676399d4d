package sqldataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertStatement(t *testing.T) {
	a := &adapter{dialect: Dialect{Placeholder: func(i int) string { return fmt.Sprintf("$%d", i) }}}
	assert.Equal(t,
		`INSERT INTO samples ("Age", "Survived") VALUES ($1, $2), ($3, $4)`,
		a.insertStatement([]string{"Age", "Survived"}, 2))

	a.dialect.Placeholder = func(int) string { return "?" }
	assert.Equal(t,
		`INSERT INTO samples ("Age") VALUES (?)`,
		a.insertStatement([]string{"Age"}, 1))
}

func TestColumnName(t *testing.T) {
	a := &adapter{}
	c, err := a.ColumnName("Pclass")
	assert.NoError(t, err)
	assert.Equal(t, "Pclass", c)

	for _, name := range []string{"id", "", `Pc"lass`} {
		_, err = a.ColumnName(name)
		assert.Error(t, err, name)
	}
}
