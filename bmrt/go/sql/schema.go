// Package sql holds the CockroachDB schema used by the SQL stores and a
// loader that writes a fixture.Fixture into it.
package sql

// Schema creates all tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS Hardware (
	id STRING PRIMARY KEY,
	name STRING NOT NULL
);

CREATE TABLE IF NOT EXISTS Commits (
	id STRING PRIMARY KEY,
	sha STRING NOT NULL,
	repository STRING NOT NULL,
	parent STRING NOT NULL DEFAULT '',
	fork_point STRING NOT NULL DEFAULT '',
	on_default_branch BOOL NOT NULL DEFAULT false,
	commit_time TIMESTAMPTZ NOT NULL,
	UNIQUE INDEX by_sha (repository, sha),
	INDEX by_default_branch (repository, on_default_branch, commit_time DESC)
);

CREATE TABLE IF NOT EXISTS Runs (
	id STRING PRIMARY KEY,
	name STRING NOT NULL DEFAULT '',
	commit_id STRING,
	hardware_id STRING NOT NULL,
	reason STRING NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	INDEX by_commit (commit_id)
);

CREATE TABLE IF NOT EXISTS Cases (
	id STRING PRIMARY KEY,
	tags JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS Contexts (
	id STRING PRIMARY KEY,
	tags JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS BenchmarkResults (
	id STRING PRIMARY KEY,
	run_id STRING NOT NULL,
	case_id STRING NOT NULL,
	context_id STRING NOT NULL,
	benchmark_name STRING NOT NULL,
	data JSONB NOT NULL,
	svs FLOAT8,
	svs_type STRING NOT NULL DEFAULT '',
	unit STRING NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	begins_distribution_change BOOL NOT NULL DEFAULT false,
	INDEX by_time (started_at DESC, id DESC),
	INDEX by_run (run_id),
	INDEX by_series (benchmark_name, case_id, context_id, started_at DESC)
);
`
