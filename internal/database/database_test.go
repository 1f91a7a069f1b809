package database

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	unique := pkgerrors.Wrap(&pq.Error{Code: "23505"}, "insert product")
	fk := &pq.Error{Code: "23503"}
	check := &pq.Error{Code: "23514", Constraint: "products_current_stock_non_negative"}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.True(t, IsCheckViolation(check, ""))
	assert.True(t, IsCheckViolation(check, "products_current_stock_non_negative"))
	assert.False(t, IsCheckViolation(check, "other"))
	assert.False(t, IsUniqueViolation(errors.New("23505 in text only")))

	overflow := pkgerrors.Wrap(&pq.Error{Code: "22003", Message: "integer out of range"}, "update product stock")
	assert.True(t, IsOutOfRange(overflow))
	assert.False(t, IsOutOfRange(check))
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}
