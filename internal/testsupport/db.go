// Package testsupport provides shared fixtures for package tests. It is not
// imported by production code.
package testsupport

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
)

// NewDB opens an in-memory SQLite database with the full schema created and
// returns it wrapped as writer/reader connections. The database is private
// to the test and closed on cleanup.
func NewDB(t *testing.T) *database.Connections {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	models := []any{
		(*entity.User)(nil),
		(*entity.Address)(nil),
		(*entity.Product)(nil),
		(*entity.Order)(nil),
		(*entity.OrderItem)(nil),
		(*entity.OrderReport)(nil),
	}
	for _, model := range models {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	_, err = db.NewCreateIndex().Model((*entity.User)(nil)).
		Index("users_email_ux").Unique().Column("email").Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewCreateIndex().Model((*entity.Product)(nil)).
		Index("products_name_ux").Unique().Column("name").Exec(ctx)
	require.NoError(t, err)

	return &database.Connections{Writer: db, Reader: db}
}
