package sql_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/fixture"
	bmrtsql "github.com/lwz9103/conbench/bmrt/go/sql"
	"github.com/lwz9103/conbench/bmrt/go/sql/sqltest"
)

func TestLoad_CountsMatchFixture(t *testing.T) {
	ctx := context.Background()
	f := fixture.Synthetic(fixture.SyntheticOptions{
		Repository:     "https://github.com/apache/arrow",
		Commits:        12,
		Benchmarks:     3,
		CasesPerBench:  2,
		Hardware:       2,
		SamplesPerCase: 3,
		Start:          time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		Step:           time.Hour,
		Seed:           1,
	})
	db := sqltest.NewCockroachDBWithFixture(ctx, t, f)

	count := func(table string) int {
		var n int
		require.NoError(t, db.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&n))
		return n
	}
	assert.Equal(t, len(f.Commits), count("Commits"))
	assert.Equal(t, len(f.Runs), count("Runs"))
	assert.Equal(t, len(f.Hardware), count("Hardware"))
	assert.Equal(t, len(f.Results), count("BenchmarkResults"))

	// Loading again is a no-op.
	require.NoError(t, bmrtsql.Load(ctx, db, f))
	assert.Equal(t, len(f.Results), count("BenchmarkResults"))
}
