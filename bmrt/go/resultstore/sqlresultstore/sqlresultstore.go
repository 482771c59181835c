// Package sqlresultstore implements resultstore.Store on CockroachDB.
//
// See bmrt/go/sql for the schema.
package sqlresultstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4"
	"go.opencensus.io/trace"

	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/types"
	"github.com/lwz9103/conbench/go/metrics2"
	"github.com/lwz9103/conbench/go/skerr"
	"github.com/lwz9103/conbench/go/sql/pool"
)

// statement is an SQL statement identifier.
type statement int

const (
	// The identifiers for all the SQL statements used.
	firstPage statement = iota
	nextPage
	history
	byID
	setBegins
)

// selectResult is shared by every statement that returns full rows. The
// column order must match scan.
const selectResult = `
		SELECT
			r.id, r.run_id, r.case_id, r.context_id, r.benchmark_name,
			ca.tags::STRING, cx.tags::STRING, r.data::STRING,
			r.svs, r.svs_type, r.unit, r.started_at,
			ru.hardware_id, h.name, ru.reason,
			COALESCE(c.sha, ''), COALESCE(c.on_default_branch, false),
			r.begins_distribution_change
		FROM
			BenchmarkResults AS r
			JOIN Runs AS ru ON r.run_id = ru.id
			JOIN Hardware AS h ON ru.hardware_id = h.id
			JOIN Cases AS ca ON r.case_id = ca.id
			JOIN Contexts AS cx ON r.context_id = cx.id
			LEFT JOIN Commits AS c ON ru.commit_id = c.id
`

// statements holds all the raw SQL statements.
var statements = map[statement]string{
	firstPage: selectResult + `
		ORDER BY
			r.started_at DESC, r.id DESC
		LIMIT $1
		`,
	nextPage: selectResult + `
		WHERE
			(r.started_at, r.id) < ($1, $2)
		ORDER BY
			r.started_at DESC, r.id DESC
		LIMIT $3
		`,
	history: selectResult + `
		WHERE
			r.benchmark_name = $1
			AND r.case_id = $2
			AND r.context_id = $3
			AND ru.hardware_id = $4
			AND r.started_at < $5
			AND c.on_default_branch
		ORDER BY
			r.started_at DESC, r.id DESC
		LIMIT $6
		`,
	byID: selectResult + `
		WHERE
			r.id = $1
		`,
	setBegins: `
		UPDATE
			BenchmarkResults
		SET
			begins_distribution_change = $2
		WHERE
			id = $1
		`,
}

// SQLResultStore implements resultstore.Store.
type SQLResultStore struct {
	db pool.Pool

	rowsRead    metrics2.Counter
	pagesRead   metrics2.Counter
	queryErrors metrics2.Counter
}

// New returns a new *SQLResultStore.
//
// The schema must already have been applied to db.
func New(db pool.Pool) *SQLResultStore {
	return &SQLResultStore{
		db:          db,
		rowsRead:    metrics2.GetCounter("bmrt_sqlresultstore_rows_read"),
		pagesRead:   metrics2.GetCounter("bmrt_sqlresultstore_pages_read"),
		queryErrors: metrics2.GetCounter("bmrt_sqlresultstore_query_errors"),
	}
}

// scan reads one row produced by selectResult.
func scan(rows pgx.Row) (*resultstore.RawResult, error) {
	var ret resultstore.RawResult
	var caseTags, contextTags, data string
	if err := rows.Scan(
		&ret.ID, &ret.RunID, &ret.CaseID, &ret.ContextID, &ret.BenchmarkName,
		&caseTags, &contextTags, &data,
		&ret.SVS, &ret.SVSType, &ret.Unit, &ret.Timestamp,
		&ret.HardwareID, &ret.HardwareName, &ret.RunReason,
		&ret.CommitHash, &ret.CommitOnDefaultBranch,
		&ret.BeginsDistributionChange,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(caseTags), &ret.CaseDict); err != nil {
		return nil, skerr.Wrapf(err, "decoding case tags of %q", ret.ID)
	}
	if err := json.Unmarshal([]byte(contextTags), &ret.ContextDict); err != nil {
		return nil, skerr.Wrapf(err, "decoding context tags of %q", ret.ID)
	}
	if err := json.Unmarshal([]byte(data), &ret.Data); err != nil {
		return nil, skerr.Wrapf(err, "decoding data of %q", ret.ID)
	}
	ret.Timestamp = ret.Timestamp.UTC()
	return &ret, nil
}

// query runs stmt and reads every row.
func (s *SQLResultStore) query(ctx context.Context, stmt statement, args ...interface{}) ([]*resultstore.RawResult, error) {
	rows, err := s.db.Query(ctx, statements[stmt], args...)
	if err != nil {
		s.queryErrors.Inc(1)
		return nil, skerr.Wrap(err)
	}
	defer rows.Close()
	var ret []*resultstore.RawResult
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			s.queryErrors.Inc(1)
			return nil, skerr.Wrap(err)
		}
		ret = append(ret, r)
	}
	if err := rows.Err(); err != nil {
		s.queryErrors.Inc(1)
		return nil, skerr.Wrap(err)
	}
	s.rowsRead.Inc(int64(len(ret)))
	return ret, nil
}

// StreamRecent implements resultstore.ResultStore.
//
// Pages are fetched with keyset pagination on (started_at, id) so each page
// is an index range scan and no cursor is held open while f runs.
func (s *SQLResultStore) StreamRecent(ctx context.Context, limit, pageSize int, f func(*resultstore.RawResult) error) error {
	ctx, span := trace.StartSpan(ctx, "sqlresultstore.StreamRecent")
	defer span.End()

	if pageSize <= 0 {
		return skerr.Fmt("pageSize must be positive, got %d", pageSize)
	}
	var lastTimestamp time.Time
	lastID := ""
	sent := 0
	for sent < limit {
		n := pageSize
		if limit-sent < n {
			n = limit - sent
		}
		var page []*resultstore.RawResult
		var err error
		if sent == 0 {
			page, err = s.query(ctx, firstPage, n)
		} else {
			page, err = s.query(ctx, nextPage, lastTimestamp, lastID, n)
		}
		if err != nil {
			return skerr.Wrapf(err, "reading page after %d rows", sent)
		}
		s.pagesRead.Inc(1)
		for _, r := range page {
			if err := f(r); err != nil {
				return skerr.Wrap(err)
			}
		}
		sent += len(page)
		if len(page) < n {
			return nil
		}
		last := page[len(page)-1]
		lastTimestamp, lastID = last.Timestamp, last.ID
	}
	return nil
}

// TimeSeriesHistory implements resultstore.HistoryStore.
func (s *SQLResultStore) TimeSeriesHistory(ctx context.Context, key types.TimeSeriesKey, before time.Time, limit int) ([]*resultstore.RawResult, error) {
	ctx, span := trace.StartSpan(ctx, "sqlresultstore.TimeSeriesHistory")
	defer span.End()

	ret, err := s.query(ctx, history, key.BenchmarkName, key.CaseID, key.ContextID, key.HardwareID, before, limit)
	if err != nil {
		return nil, skerr.Wrapf(err, "loading history of %s", key)
	}
	for i, j := 0, len(ret)-1; i < j; i, j = i+1, j-1 {
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret, nil
}

// ResultByID implements resultstore.HistoryStore.
func (s *SQLResultStore) ResultByID(ctx context.Context, id string) (*resultstore.RawResult, error) {
	ctx, span := trace.StartSpan(ctx, "sqlresultstore.ResultByID")
	defer span.End()

	r, err := scan(s.db.QueryRow(ctx, statements[byID], id))
	if err == pgx.ErrNoRows {
		return nil, skerr.Wrapf(resultstore.ErrNotFound, "id %q", id)
	}
	if err != nil {
		return nil, skerr.Wrapf(err, "loading result %q", id)
	}
	return r, nil
}

// SetBeginsDistributionChange implements resultstore.Annotator.
func (s *SQLResultStore) SetBeginsDistributionChange(ctx context.Context, id string, begins bool) error {
	tag, err := s.db.Exec(ctx, statements[setBegins], id, begins)
	if err != nil {
		return skerr.Wrapf(err, "annotating result %q", id)
	}
	if tag.RowsAffected() == 0 {
		return skerr.Wrapf(resultstore.ErrNotFound, "id %q", id)
	}
	return nil
}

// Assert SQLResultStore implements resultstore.Store.
var _ resultstore.Store = (*SQLResultStore)(nil)
