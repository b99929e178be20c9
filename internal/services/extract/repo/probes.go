package repo

import (
	"context"
	"sync"
	"time"

	"lexiscan/internal/core/query"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
	"lexiscan/internal/platform/store"
)

// ProbeTable receives one row per logical query
const ProbeTable = "lexiscan_probes"

const probeSchema = `CREATE TABLE IF NOT EXISTS lexiscan_probes (
	run_id      String,
	variant     LowCardinality(String),
	prefix      String,
	outcome     LowCardinality(String),
	results     UInt32,
	retries     UInt16,
	latency_us  UInt64,
	at          DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (variant, at)`

// DefaultProbeBatch is the buffered row count that triggers a flush
const DefaultProbeBatch = 1000

var _ query.ProbeRecorder = (*ProbeLog)(nil)

// ProbeLog batches probes into ClickHouse; write errors are logged and the batch dropped
type ProbeLog struct {
	ch      store.Clickhouse
	log     *logger.Logger
	batch   int
	timeout time.Duration

	mu      sync.Mutex
	buf     [][]any
	dropped int64
	wg      sync.WaitGroup
}

// NewProbeLog binds the recorder; batch <= 0 means DefaultProbeBatch
func NewProbeLog(ch store.Clickhouse, batch int, log *logger.Logger) *ProbeLog {
	if batch <= 0 {
		batch = DefaultProbeBatch
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ProbeLog{ch: ch, log: log, batch: batch, timeout: 30 * time.Second}
}

// Migrate creates the probe table when missing
func (p *ProbeLog) Migrate(ctx context.Context) error {
	if err := p.ch.Exec(ctx, probeSchema); err != nil {
		return perr.Wrap(err, perr.ErrorCodeStore, "probe log: migrate")
	}
	return nil
}

// Record implements query.ProbeRecorder
func (p *ProbeLog) Record(ctx context.Context, pr query.Probe) {
	row := []any{
		logger.RunID(ctx),
		pr.Variant,
		pr.Prefix,
		string(pr.Outcome),
		uint32(max(pr.Results, 0)),
		uint16(max(pr.Retries, 0)),
		uint64(max(pr.Latency.Microseconds(), 0)),
		pr.At.UTC(),
	}

	p.mu.Lock()
	p.buf = append(p.buf, row)
	if len(p.buf) < p.batch {
		p.mu.Unlock()
		return
	}
	full := p.buf
	p.buf = make([][]any, 0, p.batch)
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.flush(context.WithoutCancel(ctx), full)
	}()
}

// Close waits for in-flight batches and writes what is left
func (p *ProbeLog) Close(ctx context.Context) error {
	p.wg.Wait()
	p.mu.Lock()
	rest := p.buf
	p.buf = nil
	p.mu.Unlock()
	if len(rest) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.ch.Insert(ctx, ProbeTable, rest); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStore, "probe log: final flush of %d rows", len(rest))
	}
	return nil
}

// Dropped counts rows lost to failed background flushes
func (p *ProbeLog) Dropped() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *ProbeLog) flush(ctx context.Context, rows [][]any) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.ch.Insert(ctx, ProbeTable, rows); err != nil {
		p.mu.Lock()
		p.dropped += int64(len(rows))
		p.mu.Unlock()
		p.log.Warn().Err(err).Int("rows", len(rows)).Msg("probe log: flush failed")
		return
	}
	p.log.Debug().Int("rows", len(rows)).Msg("probe log: flushed")
}
