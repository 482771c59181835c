package sqlcommitstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/commitstore"
	"github.com/lwz9103/conbench/bmrt/go/commitstore/commitstoretest"
	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/sql/sqltest"
)

func TestSQLCommitStore(t *testing.T) {
	for name, subTest := range commitstoretest.SubTests {
		t.Run(name, func(t *testing.T) {
			subTest(t, func(t *testing.T, f *fixture.Fixture) commitstore.Store {
				db := sqltest.NewCockroachDBWithFixture(context.Background(), t, f)
				s, err := New(db)
				require.NoError(t, err)
				return s
			})
		})
	}
}

func TestCommitByID_SecondLookup_ServedFromCache(t *testing.T) {
	ctx := context.Background()
	b := fixture.NewBuilder(commitstoretest.Repository, fixture.Epoch)
	b.DefaultCommit("c1", "")
	db := sqltest.NewCockroachDBWithFixture(ctx, t, b.Fixture())
	s, err := New(db)
	require.NoError(t, err)

	c, err := s.CommitByID(ctx, "commit-c1")
	require.NoError(t, err)

	// Once the row is gone only the cache can answer.
	_, err = db.Exec(ctx, "DELETE FROM Commits WHERE id = 'commit-c1'")
	require.NoError(t, err)
	again, err := s.CommitByID(ctx, "commit-c1")
	require.NoError(t, err)
	assert.Same(t, c, again)
	byHash, err := s.CommitByHash(ctx, commitstoretest.Repository, "c1")
	require.NoError(t, err)
	assert.Same(t, c, byHash)
}
