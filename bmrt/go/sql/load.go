package sql

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgx"
	"github.com/jackc/pgx/v4"

	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/go/skerr"
	"github.com/lwz9103/conbench/go/sql/pool"
	"github.com/lwz9103/conbench/go/sql/sqlutil"
)

// insertBatchSize is the number of rows written per INSERT statement.
const insertBatchSize = 500

// table describes one INSERT target.
type table struct {
	prefix string
	cols   int
	rows   [][]interface{}
}

// nullIfEmpty stores "" as NULL.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func encode(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", skerr.Wrap(err)
	}
	return string(b), nil
}

// Load writes every row of f in a single transaction. Rows that already
// exist are left untouched.
func Load(ctx context.Context, db pool.Pool, f *fixture.Fixture) error {
	hardware := &table{prefix: "INSERT INTO Hardware (id, name) VALUES ", cols: 2}
	hardwareIDs := make([]string, 0, len(f.Hardware))
	for id := range f.Hardware {
		hardwareIDs = append(hardwareIDs, id)
	}
	sort.Strings(hardwareIDs)
	for _, id := range hardwareIDs {
		hardware.rows = append(hardware.rows, []interface{}{id, f.Hardware[id]})
	}

	commits := &table{prefix: "INSERT INTO Commits (id, sha, repository, parent, fork_point, on_default_branch, commit_time) VALUES ", cols: 7}
	for _, c := range f.Commits {
		commits.rows = append(commits.rows, []interface{}{c.ID, c.Hash, c.Repository, c.ParentHash, c.ForkPointHash, c.OnDefaultBranch, c.Timestamp})
	}

	runs := &table{prefix: "INSERT INTO Runs (id, name, commit_id, hardware_id, reason, created_at) VALUES ", cols: 6}
	for _, r := range f.Runs {
		runs.rows = append(runs.rows, []interface{}{r.ID, r.Name, nullIfEmpty(r.CommitID), r.HardwareID, r.Reason, r.Timestamp})
	}

	cases := &table{prefix: "INSERT INTO Cases (id, tags) VALUES ", cols: 2}
	contexts := &table{prefix: "INSERT INTO Contexts (id, tags) VALUES ", cols: 2}
	results := &table{prefix: "INSERT INTO BenchmarkResults (id, run_id, case_id, context_id, benchmark_name, data, svs, svs_type, unit, started_at, begins_distribution_change) VALUES ", cols: 11}
	seenCases := map[string]bool{}
	seenContexts := map[string]bool{}
	for _, r := range f.Results {
		if !seenCases[r.CaseID] {
			seenCases[r.CaseID] = true
			tags, err := encode(r.CaseDict)
			if err != nil {
				return err
			}
			cases.rows = append(cases.rows, []interface{}{r.CaseID, tags})
		}
		if !seenContexts[r.ContextID] {
			seenContexts[r.ContextID] = true
			tags, err := encode(r.ContextDict)
			if err != nil {
				return err
			}
			contexts.rows = append(contexts.rows, []interface{}{r.ContextID, tags})
		}
		data, err := encode(r.Data)
		if err != nil {
			return err
		}
		var svs interface{}
		if r.SVS != nil {
			svs = *r.SVS
		}
		results.rows = append(results.rows, []interface{}{r.ID, r.RunID, r.CaseID, r.ContextID, r.BenchmarkName, data, svs, r.SVSType, r.Unit, r.Timestamp, r.BeginsDistributionChange})
	}

	err := crdbpgx.ExecuteTx(ctx, db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, t := range []*table{hardware, commits, runs, cases, contexts, results} {
			if err := t.insert(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	return skerr.Wrapf(err, "loading fixture")
}

func (t *table) insert(ctx context.Context, tx pgx.Tx) error {
	for start := 0; start < len(t.rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(t.rows) {
			end = len(t.rows)
		}
		batch := t.rows[start:end]
		args := make([]interface{}, 0, len(batch)*t.cols)
		for _, row := range batch {
			args = append(args, row...)
		}
		stmt := t.prefix + sqlutil.ValuesPlaceholders(t.cols, len(batch)) + " ON CONFLICT DO NOTHING"
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return skerr.Wrapf(err, "executing %q", t.prefix)
		}
	}
	return nil
}
