package repo

import (
	"context"

	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
	"lexiscan/internal/platform/store"
	"lexiscan/internal/services/extract/domain"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS lexiscan_runs (
	run_id        text        NOT NULL,
	variant       text        NOT NULL,
	profile       text        NOT NULL,
	attempts      bigint      NOT NULL,
	successes     bigint      NOT NULL,
	rate_limited  bigint      NOT NULL,
	failures      bigint      NOT NULL,
	requests      bigint      NOT NULL,
	name_count    integer     NOT NULL,
	cancelled     boolean     NOT NULL DEFAULT false,
	started_at    timestamptz NOT NULL,
	finished_at   timestamptz NOT NULL,
	PRIMARY KEY (run_id, variant)
);
CREATE TABLE IF NOT EXISTS lexiscan_names (
	variant     text        NOT NULL,
	name        text        NOT NULL,
	first_run   text        NOT NULL,
	first_seen  timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (variant, name)
);`

const upsertRun = `INSERT INTO lexiscan_runs
	(run_id, variant, profile, attempts, successes, rate_limited, failures, requests,
	 name_count, cancelled, started_at, finished_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (run_id, variant) DO UPDATE SET
	profile = EXCLUDED.profile,
	attempts = EXCLUDED.attempts,
	successes = EXCLUDED.successes,
	rate_limited = EXCLUDED.rate_limited,
	failures = EXCLUDED.failures,
	requests = EXCLUDED.requests,
	name_count = EXCLUDED.name_count,
	cancelled = EXCLUDED.cancelled,
	finished_at = EXCLUDED.finished_at`

const insertNames = `INSERT INTO lexiscan_names (variant, name, first_run)
SELECT $1, n, $3 FROM unnest($2::text[]) AS n
ON CONFLICT (variant, name) DO NOTHING`

const countNames = `SELECT count(*) FROM lexiscan_names WHERE variant = $1`

const selectNames = `SELECT name FROM lexiscan_names WHERE variant = $1 ORDER BY name`

// pgTxAttempts bounds retries of a save on serialization failures and deadlocks
const pgTxAttempts = 3

// PG stores runs and names in Postgres and serves them back as history
type PG struct {
	db  store.TxRunner
	log *logger.Logger
}

// NewPG binds the sink to a transaction runner
func NewPG(db store.TxRunner, log *logger.Logger) *PG {
	if log == nil {
		log = logger.Nop()
	}
	return &PG{db: db, log: log}
}

// Migrate creates the tables when missing
func (p *PG) Migrate(ctx context.Context) error {
	_, err := store.Exec(ctx, p.db, pgSchema)
	return perr.FromPostgres(err, "pg sink: migrate")
}

// Name implements domain.Sink
func (*PG) Name() string { return "postgres" }

// Save implements domain.Sink; the run row and its names land in one transaction
func (p *PG) Save(ctx context.Context, s domain.Summary) error {
	names := s.Names
	if names == nil {
		names = []string{}
	}

	var (
		total int64
		err   error
	)
	for attempt := 1; attempt <= pgTxAttempts; attempt++ {
		err = p.db.Tx(ctx, func(q store.RowQuerier) error {
			if err := store.ExecOne(ctx, q, upsertRun,
				s.RunID, s.Variant, s.Profile, s.Attempts, s.Successes, s.RateLimited,
				s.Failures, s.Requests, len(names), s.Cancelled, s.StartedAt, s.FinishedAt,
			); err != nil {
				return err
			}
			if len(names) > 0 {
				if _, err := store.Exec(ctx, q, insertNames, s.Variant, names, s.RunID); err != nil {
					return err
				}
			}
			n, err := store.Scalar[int64](ctx, q, countNames, s.Variant)
			total = n
			return err
		})
		if err == nil || !perr.IsRetryable(err) {
			break
		}
		p.log.Warn().Err(err).Int("attempt", attempt).Str("variant", s.Variant).Msg("pg sink: retrying save")
	}
	if err != nil {
		return perr.FromPostgres(err, "pg sink: save "+s.Variant)
	}

	p.log.Debug().
		Str("variant", s.Variant).
		Int("names", len(names)).
		Int64("stored", total).
		Msg("pg sink: saved")
	return nil
}

// Names implements domain.History
func (p *PG) Names(ctx context.Context, variant string) ([]string, error) {
	out, err := store.Many(ctx, p.db, store.ScanString, selectNames, variant)
	if err != nil {
		return nil, perr.FromPostgres(err, "pg history: names")
	}
	return out, nil
}
