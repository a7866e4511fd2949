// Package repo stores served predictions in ClickHouse
package repo

import (
	"context"
	"sync"
	"time"

	"churnops/internal/platform/logger"
	"churnops/internal/platform/store"
	"churnops/internal/services/api/predict/domain"
)

// Table is the prediction audit table
const Table = "churn_predictions"

const ddl = `CREATE TABLE IF NOT EXISTS ` + Table + ` (
	id               UUID,
	served_at        DateTime64(3, 'UTC'),
	model            LowCardinality(String),
	label            LowCardinality(String),
	probability      Float64,
	tenure           UInt32,
	contract         LowCardinality(String),
	monthly_charges  Float64
) ENGINE = MergeTree
ORDER BY (served_at, id)`

// Options tune batching
type Options struct {
	// Buffer is how many records may wait; Record drops beyond it
	Buffer int
	// Batch flushes once this many records are waiting
	Batch int
	// Every flushes whatever is waiting on this interval
	Every time.Duration
}

// Recorder batches prediction records into ClickHouse off the request path
type Recorder struct {
	ch   store.Clickhouse
	opts Options
	in   chan domain.Record
	log  *logger.Logger

	mu      sync.Mutex
	dropped int
	done    chan struct{}
}

// NewRecorder constructs a recorder; call Run to start flushing
func NewRecorder(ch store.Clickhouse, opts Options) *Recorder {
	if opts.Buffer <= 0 {
		opts.Buffer = 4096
	}
	if opts.Batch <= 0 {
		opts.Batch = 500
	}
	if opts.Every <= 0 {
		opts.Every = 2 * time.Second
	}
	return &Recorder{
		ch:   ch,
		opts: opts,
		in:   make(chan domain.Record, opts.Buffer),
		log:  logger.Named("predict-recorder"),
		done: make(chan struct{}),
	}
}

// Migrate creates the audit table when absent
func (r *Recorder) Migrate(ctx context.Context) error {
	return r.ch.Exec(ctx, ddl)
}

// Record queues rec, dropping it when the buffer is full
func (r *Recorder) Record(rec domain.Record) {
	select {
	case r.in <- rec:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
	}
}

// Dropped returns how many records were discarded for a full buffer
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Run flushes batches until ctx ends, then drains what is queued
// Done is closed on return
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	t := time.NewTicker(r.opts.Every)
	defer t.Stop()

	batch := make([][]any, 0, r.opts.Batch)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := r.ch.Insert(ctx, Table, batch); err != nil {
			r.log.Warn().Err(err).Int("rows", len(batch)).Msg("prediction batch lost")
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-r.in:
			batch = append(batch, row(rec))
			if len(batch) >= r.opts.Batch {
				flush(ctx)
			}
		case <-t.C:
			flush(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			for {
				select {
				case rec := <-r.in:
					batch = append(batch, row(rec))
				default:
					flush(final)
					return
				}
			}
		}
	}
}

// Done is closed once Run has flushed and returned
func (r *Recorder) Done() <-chan struct{} { return r.done }

func row(rec domain.Record) []any {
	return []any{
		rec.ID, rec.At, rec.Model, rec.Label, rec.Probability,
		uint32(max(rec.Tenure, 0)), rec.Contract, rec.MonthlyCharges,
	}
}
