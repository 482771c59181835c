// Package sqlcommitstore implements commitstore.Store on CockroachDB.
//
// See bmrt/go/sql for the schema.
package sqlcommitstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jackc/pgx/v4"
	"go.opencensus.io/trace"

	"github.com/lwz9103/conbench/bmrt/go/commitstore"
	"github.com/lwz9103/conbench/bmrt/go/types"
	"github.com/lwz9103/conbench/go/metrics2"
	"github.com/lwz9103/conbench/go/skerr"
	"github.com/lwz9103/conbench/go/sql/pool"
)

// commitCacheSize is the number of commits kept in the LRU cache. Commits
// never change once written so entries are never invalidated.
const commitCacheSize = 10 * 1000

// statement is an SQL statement identifier.
type statement int

const (
	// The identifiers for all the SQL statements used.
	runByID statement = iota
	commitByID
	commitByHash
	ancestors
	defaultBranch
	latestDefault
	runsForCommit
	resultKeysForRun
)

const commitColumns = `id, sha, repository, parent, fork_point, on_default_branch, commit_time`

const runColumns = `id, name, COALESCE(commit_id, ''), hardware_id, reason, created_at`

// statements holds all the raw SQL statements.
var statements = map[statement]string{
	runByID: `
		SELECT
			` + runColumns + `
		FROM
			Runs
		WHERE
			id = $1
		`,
	commitByID: `
		SELECT
			` + commitColumns + `
		FROM
			Commits
		WHERE
			id = $1
		`,
	commitByHash: `
		SELECT
			` + commitColumns + `
		FROM
			Commits
		WHERE
			repository = $1 AND sha = $2
		`,
	ancestors: `
		WITH RECURSIVE ancestry (` + commitColumns + `, depth) AS (
			SELECT
				` + commitColumns + `, 1
			FROM
				Commits
			WHERE
				repository = $1 AND sha = $2
			UNION ALL
			SELECT
				c.id, c.sha, c.repository, c.parent, c.fork_point, c.on_default_branch, c.commit_time, a.depth + 1
			FROM
				Commits AS c
				JOIN ancestry AS a ON c.repository = a.repository AND c.sha = a.parent
			WHERE
				a.parent != '' AND a.depth < $3
		)
		SELECT
			` + commitColumns + `
		FROM
			ancestry
		ORDER BY
			depth ASC
		`,
	defaultBranch: `
		SELECT
			` + commitColumns + `
		FROM
			Commits
		WHERE
			repository = $1 AND on_default_branch
		ORDER BY
			commit_time DESC, id DESC
		LIMIT $2
		`,
	latestDefault: `
		SELECT
			` + commitColumns + `
		FROM
			Commits AS c
		WHERE
			c.repository = $1
			AND c.on_default_branch
			AND EXISTS (
				SELECT
					1
				FROM
					Runs AS ru
					JOIN BenchmarkResults AS r ON r.run_id = ru.id
				WHERE
					ru.commit_id = c.id
			)
		ORDER BY
			c.commit_time DESC, c.id DESC
		LIMIT 1
		`,
	runsForCommit: `
		SELECT
			` + runColumns + `
		FROM
			Runs
		WHERE
			commit_id = $1
		ORDER BY
			id
		`,
	resultKeysForRun: `
		SELECT DISTINCT
			case_id, context_id
		FROM
			BenchmarkResults
		WHERE
			run_id = $1
		`,
}

type repoHash struct {
	repository string
	hash       string
}

// SQLCommitStore implements commitstore.Store.
type SQLCommitStore struct {
	db pool.Pool

	// cache holds *types.Commit keyed by both id and repoHash.
	cache *lru.Cache

	cacheHits   metrics2.Counter
	cacheMisses metrics2.Counter
}

// New returns a new *SQLCommitStore.
//
// The schema must already have been applied to db.
func New(db pool.Pool) (*SQLCommitStore, error) {
	cache, err := lru.New(commitCacheSize)
	if err != nil {
		return nil, skerr.Wrap(err)
	}
	return &SQLCommitStore{
		db:          db,
		cache:       cache,
		cacheHits:   metrics2.GetCounter("bmrt_sqlcommitstore_cache", map[string]string{"result": "hit"}),
		cacheMisses: metrics2.GetCounter("bmrt_sqlcommitstore_cache", map[string]string{"result": "miss"}),
	}, nil
}

func scanCommit(row pgx.Row) (*types.Commit, error) {
	var c types.Commit
	if err := row.Scan(&c.ID, &c.Hash, &c.Repository, &c.ParentHash, &c.ForkPointHash, &c.OnDefaultBranch, &c.Timestamp); err != nil {
		return nil, err
	}
	c.Timestamp = c.Timestamp.UTC()
	return &c, nil
}

func scanRun(row pgx.Row) (*types.Run, error) {
	var r types.Run
	if err := row.Scan(&r.ID, &r.Name, &r.CommitID, &r.HardwareID, &r.Reason, &r.Timestamp); err != nil {
		return nil, err
	}
	r.Timestamp = r.Timestamp.UTC()
	return &r, nil
}

func (s *SQLCommitStore) remember(c *types.Commit) {
	s.cache.Add(c.ID, c)
	s.cache.Add(repoHash{c.Repository, c.Hash}, c)
}

func (s *SQLCommitStore) cached(key interface{}) (*types.Commit, bool) {
	if v, ok := s.cache.Get(key); ok {
		s.cacheHits.Inc(1)
		return v.(*types.Commit), true
	}
	s.cacheMisses.Inc(1)
	return nil, false
}

// RunByID implements commitstore.Store.
func (s *SQLCommitStore) RunByID(ctx context.Context, id string) (*types.Run, error) {
	r, err := scanRun(s.db.QueryRow(ctx, statements[runByID], id))
	if err == pgx.ErrNoRows {
		return nil, skerr.Wrapf(commitstore.ErrNotFound, "run %q", id)
	}
	if err != nil {
		return nil, skerr.Wrapf(err, "loading run %q", id)
	}
	return r, nil
}

// CommitByID implements commitstore.Store.
func (s *SQLCommitStore) CommitByID(ctx context.Context, id string) (*types.Commit, error) {
	if c, ok := s.cached(id); ok {
		return c, nil
	}
	c, err := scanCommit(s.db.QueryRow(ctx, statements[commitByID], id))
	if err == pgx.ErrNoRows {
		return nil, skerr.Wrapf(commitstore.ErrNotFound, "commit %q", id)
	}
	if err != nil {
		return nil, skerr.Wrapf(err, "loading commit %q", id)
	}
	s.remember(c)
	return c, nil
}

// CommitByHash implements commitstore.Store.
func (s *SQLCommitStore) CommitByHash(ctx context.Context, repository, hash string) (*types.Commit, error) {
	if c, ok := s.cached(repoHash{repository, hash}); ok {
		return c, nil
	}
	c, err := scanCommit(s.db.QueryRow(ctx, statements[commitByHash], repository, hash))
	if err == pgx.ErrNoRows {
		return nil, skerr.Wrapf(commitstore.ErrNotFound, "commit %q in %q", hash, repository)
	}
	if err != nil {
		return nil, skerr.Wrapf(err, "loading commit %q in %q", hash, repository)
	}
	s.remember(c)
	return c, nil
}

// Ancestors implements commitstore.Store.
func (s *SQLCommitStore) Ancestors(ctx context.Context, c *types.Commit, limit int) ([]*types.Commit, error) {
	ctx, span := trace.StartSpan(ctx, "sqlcommitstore.Ancestors")
	defer span.End()

	if c.ParentHash == "" || limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, statements[ancestors], c.Repository, c.ParentHash, limit)
	if err != nil {
		return nil, skerr.Wrapf(err, "walking ancestors of %q", c.Hash)
	}
	defer rows.Close()
	var ret []*types.Commit
	for rows.Next() {
		a, err := scanCommit(rows)
		if err != nil {
			return nil, skerr.Wrapf(err, "reading ancestor of %q", c.Hash)
		}
		s.remember(a)
		ret = append(ret, a)
	}
	if err := rows.Err(); err != nil {
		return nil, skerr.Wrap(err)
	}
	return ret, nil
}

// DefaultBranchCommits implements commitstore.Store.
func (s *SQLCommitStore) DefaultBranchCommits(ctx context.Context, repository string, limit int) ([]*types.Commit, error) {
	rows, err := s.db.Query(ctx, statements[defaultBranch], repository, limit)
	if err != nil {
		return nil, skerr.Wrapf(err, "loading default branch commits of %q", repository)
	}
	defer rows.Close()
	var ret []*types.Commit
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, skerr.Wrap(err)
		}
		s.remember(c)
		ret = append(ret, c)
	}
	return ret, skerr.Wrap(rows.Err())
}

// LatestDefaultCommitWithResults implements commitstore.Store.
func (s *SQLCommitStore) LatestDefaultCommitWithResults(ctx context.Context, repository string) (*types.Commit, error) {
	c, err := scanCommit(s.db.QueryRow(ctx, statements[latestDefault], repository))
	if err == pgx.ErrNoRows {
		return nil, skerr.Wrapf(commitstore.ErrNotFound, "no default branch commit with results in %q", repository)
	}
	if err != nil {
		return nil, skerr.Wrapf(err, "finding latest default branch commit in %q", repository)
	}
	return c, nil
}

// RunsForCommit implements commitstore.Store.
func (s *SQLCommitStore) RunsForCommit(ctx context.Context, commitID string) ([]*types.Run, error) {
	rows, err := s.db.Query(ctx, statements[runsForCommit], commitID)
	if err != nil {
		return nil, skerr.Wrapf(err, "loading runs of commit %q", commitID)
	}
	defer rows.Close()
	var ret []*types.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, skerr.Wrap(err)
		}
		ret = append(ret, r)
	}
	return ret, skerr.Wrap(rows.Err())
}

// ResultKeysForRun implements commitstore.Store.
func (s *SQLCommitStore) ResultKeysForRun(ctx context.Context, runID string) ([]types.CaseContext, error) {
	rows, err := s.db.Query(ctx, statements[resultKeysForRun], runID)
	if err != nil {
		return nil, skerr.Wrapf(err, "loading result keys of run %q", runID)
	}
	defer rows.Close()
	var ret []types.CaseContext
	for rows.Next() {
		var cc types.CaseContext
		if err := rows.Scan(&cc.CaseID, &cc.ContextID); err != nil {
			return nil, skerr.Wrap(err)
		}
		ret = append(ret, cc)
	}
	return ret, skerr.Wrap(rows.Err())
}

// Assert SQLCommitStore implements commitstore.Store.
var _ commitstore.Store = (*SQLCommitStore)(nil)
