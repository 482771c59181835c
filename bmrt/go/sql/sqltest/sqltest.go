// Package sqltest creates throwaway CockroachDB databases for tests.
package sqltest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/fixture"
	bmrtsql "github.com/lwz9103/conbench/bmrt/go/sql"
	"github.com/lwz9103/conbench/go/testutils/unittest"
)

// NewCockroachDBForTests creates a randomly named database with the schema
// applied on the CockroachDB instance named by COCKROACHDB_EMULATOR_HOST.
// The test is skipped if that isn't set. The database is dropped and the
// pool closed when the test finishes.
func NewCockroachDBForTests(ctx context.Context, t testing.TB) *pgxpool.Pool {
	host := unittest.RequiresCockroachDB(t)

	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err)
	dbName := "for_tests" + n.String()

	admin, err := pgxpool.Connect(ctx, fmt.Sprintf("postgresql://root@%s/?sslmode=disable", host))
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+dbName)
	require.NoError(t, err)

	conf, err := pgxpool.ParseConfig(fmt.Sprintf("postgresql://root@%s/%s?sslmode=disable", host, dbName))
	require.NoError(t, err)
	conf.MaxConns = 4
	db, err := pgxpool.ConnectConfig(ctx, conf)
	require.NoError(t, err)
	_, err = db.Exec(ctx, bmrtsql.Schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
		_, err := admin.Exec(context.Background(), "DROP DATABASE "+dbName+" CASCADE")
		require.NoError(t, err)
		admin.Close()
	})
	return db
}

// NewCockroachDBWithFixture is NewCockroachDBForTests with f loaded.
func NewCockroachDBWithFixture(ctx context.Context, t testing.TB, f *fixture.Fixture) *pgxpool.Pool {
	db := NewCockroachDBForTests(ctx, t)
	require.NoError(t, bmrtsql.Load(ctx, db, f))
	return db
}
