package cmd

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/lwz9103/conbench/bmrt/go/commitstore"
	"github.com/lwz9103/conbench/bmrt/go/commitstore/memcommitstore"
	"github.com/lwz9103/conbench/bmrt/go/commitstore/sqlcommitstore"
	"github.com/lwz9103/conbench/bmrt/go/config"
	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/resultstore/memresultstore"
	"github.com/lwz9103/conbench/bmrt/go/resultstore/sqlresultstore"
	bmrtsql "github.com/lwz9103/conbench/bmrt/go/sql"
	"github.com/lwz9103/conbench/go/skerr"
	"github.com/lwz9103/conbench/go/sklog"
	"github.com/lwz9103/conbench/go/sql/pool"
	"github.com/lwz9103/conbench/go/sql/pool/wrapper/timeout"
)

// connectTimeout bounds the retries of the initial database connection.
const connectTimeout = 2 * time.Minute

// stores are the two stores the service runs on, plus a func to release
// them.
type stores struct {
	results resultstore.Store
	commits commitstore.Store
	close   func()
}

// connect opens a pool to the database, retrying with exponential backoff
// since the database often comes up after the server.
func connect(ctx context.Context, connection string) (*pgxpool.Pool, error) {
	var db *pgxpool.Pool
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = connectTimeout
	err := backoff.RetryNotify(func() error {
		var err error
		db, err = pgxpool.Connect(ctx, connection)
		if err != nil {
			return err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		sklog.Warningf("Failed to connect to database, retrying in %s: %s", next, err)
	})
	if err != nil {
		return nil, skerr.Wrapf(err, "connecting to database")
	}
	return db, nil
}

// sqlStores connects to the database named by cfg and applies the schema.
func sqlStores(ctx context.Context, cfg *config.InstanceConfig, checkDeadlines bool) (*stores, error) {
	raw, err := connect(ctx, cfg.DatabaseConnection)
	if err != nil {
		return nil, err
	}
	if _, err := raw.Exec(ctx, bmrtsql.Schema); err != nil {
		raw.Close()
		return nil, skerr.Wrapf(err, "applying schema")
	}
	var db pool.Pool = raw
	if checkDeadlines {
		db = timeout.New(db)
	}
	commits, err := sqlcommitstore.New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &stores{
		results: sqlresultstore.New(db),
		commits: commits,
		close:   db.Close,
	}, nil
}

// demoFixture is the generated data served by the demo.
func demoFixture(cfg *config.InstanceConfig) *fixture.Fixture {
	return fixture.Synthetic(fixture.SyntheticOptions{
		Repository:     cfg.Repository,
		Commits:        200,
		Benchmarks:     10,
		CasesPerBench:  5,
		Hardware:       2,
		SamplesPerCase: 5,
		Start:          time.Now().Add(-200 * time.Hour).UTC().Truncate(time.Hour),
		Step:           time.Hour,
		Seed:           time.Now().UnixNano(),
	})
}

// memoryStores returns in-memory stores holding f.
func memoryStores(f *fixture.Fixture) *stores {
	results := memresultstore.New()
	results.Add(f.RawResults()...)
	return &stores{
		results: results,
		commits: memcommitstore.NewFromFixture(f),
		close:   func() {},
	}
}

// openStores returns SQL stores if a database is configured, otherwise
// in-memory stores holding the demo fixture.
func openStores(ctx context.Context, cfg *config.InstanceConfig, checkDeadlines bool) (*stores, error) {
	if cfg.DatabaseConnection != "" {
		return sqlStores(ctx, cfg, checkDeadlines)
	}
	sklog.Warning("No database_connection configured, serving generated demo data from memory.")
	return memoryStores(demoFixture(cfg)), nil
}
