// Package repro runs the round-trip verification harness: it encodes and
// decodes rows concurrently and stops at the first row that does not survive
// the trip unchanged.
package repro

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/rowcheck/pkg/codec"
	"github.com/ssargent/rowcheck/pkg/config"
	"github.com/ssargent/rowcheck/pkg/logging"
	"github.com/ssargent/rowcheck/pkg/storage"
	"go.uber.org/zap"
)

// Config holds the runner settings.
type Config struct {
	// Attempts is the total attempt budget shared by all workers; 0 runs until
	// the context is cancelled.
	Attempts       int
	RowsPerAttempt int
	// Workers defaults to runtime.NumCPU() when 0.
	Workers int
	Series  string
	// InMemory selects an in-memory store per attempt; otherwise each attempt
	// gets its own directory under DataDir, removed when the attempt ends.
	InMemory bool
	DataDir  string
}

// FromConfig extracts the runner settings from the application config.
func FromConfig(c *config.Config) Config {
	return Config{
		Attempts:       c.Harness.Attempts,
		RowsPerAttempt: c.Harness.RowsPerAttempt,
		Workers:        c.Harness.Workers,
		Series:         c.Harness.Series,
		InMemory:       c.Store.InMemory,
		DataDir:        c.Store.DataDir,
	}
}

// Stats summarizes a single attempt.
type Stats struct {
	Rows  int64
	Bytes int64
}

// Report summarizes a run.
type Report struct {
	RunID    ksuid.KSUID
	Workers  int
	Attempts int64
	Rows     int64
	Bytes    int64
	Duration time.Duration
}

// Runner executes attempts.
type Runner struct {
	cfg     Config
	codec   Encoder
	logger  *zap.Logger
	metrics *Metrics
}

// Option customizes a Runner.
type Option func(*Runner)

// WithCodec replaces the codec under test.
func WithCodec(c Encoder) Option {
	return func(r *Runner) { r.codec = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner validates cfg and creates a runner. Without WithMetrics the runner
// registers its collectors on a private registry.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	if cfg.Attempts < 0 {
		return nil, errors.Newf("repro: attempts must not be negative: %d", cfg.Attempts)
	}
	if cfg.RowsPerAttempt <= 0 {
		return nil, errors.Newf("repro: rows per attempt must be positive: %d", cfg.RowsPerAttempt)
	}
	if cfg.Workers < 0 {
		return nil, errors.Newf("repro: workers must not be negative: %d", cfg.Workers)
	}
	if !cfg.InMemory && cfg.DataDir == "" {
		return nil, errors.New("repro: data dir is required for an on-disk store")
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	r := &Runner{
		cfg:    cfg,
		codec:  codec.NewRowCodec(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return r, nil
}

// Attempt opens a fresh store, round-trips RowsPerAttempt rows derived from
// the series name, stores them and reads them back in key order.
func (r *Runner) Attempt(ctx context.Context) (Stats, error) {
	id := ksuid.New()
	log := r.logger.With(zap.Stringer("attempt", id))

	opts := storage.Options{InMemory: r.cfg.InMemory}
	if !r.cfg.InMemory {
		opts.Dir = filepath.Join(r.cfg.DataDir, id.String())
	}
	store, err := storage.Open(opts)
	if err != nil {
		return Stats{}, errors.Wrap(err, "repro: store init")
	}
	defer func() {
		if err := store.Destroy(); err != nil {
			log.Warn("failed to release store", zap.Error(err))
		}
	}()

	var stats Stats
	want := make(map[string]codec.Row, r.cfg.RowsPerAttempt)

	for i := 0; i < r.cfg.RowsPerAttempt; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row := codec.NewRow(r.cfg.Series, int64(i))
		encoded, err := RoundTrip(r.codec, row)
		r.metrics.RecordRow(err, len(encoded))
		if err != nil {
			if IsMismatch(err) {
				log.Error("round trip mismatch", zap.Error(err))
			}
			return stats, err
		}

		key, err := store.Put(id, row)
		if err != nil {
			return stats, err
		}
		want[string(key)] = row

		stats.Rows++
		stats.Bytes += int64(len(encoded))
	}

	if err := r.verifyStore(store, id, want); err != nil {
		log.Error("store verification failed", zap.Error(err))
		return stats, err
	}

	log.Debug("attempt complete", zap.Int64("rows", stats.Rows), zap.Int64("bytes", stats.Bytes))
	return stats, nil
}

// verifyStore checks that the store returns exactly the rows written, with
// sort keys in ascending order.
func (r *Runner) verifyStore(store *storage.RowStore, id ksuid.KSUID, want map[string]codec.Row) error {
	c := codec.NewRowCodec()
	seen := 0
	var prev codec.Row

	err := store.Scan(func(row codec.Row, attempt ksuid.KSUID) error {
		if attempt != id {
			return errors.Newf("repro: row %v written by attempt %s", row, attempt)
		}
		if seen > 0 && row.SortKey() < prev.SortKey() {
			return errors.Newf("repro: scan out of order: %v after %v", row, prev)
		}

		key, err := c.Encode(row)
		if err != nil {
			return err
		}
		expected, ok := want[string(key)]
		if !ok {
			return errors.Newf("repro: unexpected row %v in store", row)
		}
		if !expected.Equal(row) {
			return &RoundTripMismatch{Expected: expected, Actual: row, Encoded: key}
		}

		prev = row
		seen++
		return nil
	})
	if err != nil {
		return err
	}

	if seen != len(want) {
		return errors.Newf("repro: store returned %d rows, wrote %d", seen, len(want))
	}
	return nil
}

// Run executes attempts on Workers goroutines until the attempt budget is
// spent, the context is cancelled or an attempt fails. The first failure
// cancels the remaining workers and is returned with the partial report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: ksuid.New(), Workers: r.cfg.Workers}
	log := r.logger.With(zap.Stringer("run", report.RunID))
	log.Info("run started",
		zap.Int("workers", r.cfg.Workers),
		zap.Int("attempts", r.cfg.Attempts),
		zap.Int("rows_per_attempt", r.cfg.RowsPerAttempt),
		zap.String("series", r.cfg.Series),
		zap.Bool("in_memory", r.cfg.InMemory),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		claimed  atomic.Int64
		attempts atomic.Int64
		rows     atomic.Int64
		bytes    atomic.Int64
		once     sync.Once
		firstErr error
		wg       sync.WaitGroup
	)

	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	start := time.Now()
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.metrics.workerStarted()
			defer r.metrics.workerStopped()

			for runCtx.Err() == nil {
				if r.cfg.Attempts > 0 && claimed.Add(1) > int64(r.cfg.Attempts) {
					return
				}

				began := time.Now()
				stats, err := r.Attempt(runCtx)
				if err != nil && runCtx.Err() != nil && errors.Is(err, runCtx.Err()) {
					return
				}
				r.metrics.RecordAttempt(err, time.Since(began))
				if err != nil {
					fail(err)
					return
				}

				attempts.Add(1)
				rows.Add(stats.Rows)
				bytes.Add(stats.Bytes)
			}
		}()
	}
	wg.Wait()

	report.Attempts = attempts.Load()
	report.Rows = rows.Load()
	report.Bytes = bytes.Load()
	report.Duration = time.Since(start)

	if firstErr != nil {
		log.Error("run failed", zap.Error(firstErr), zap.Int64("attempts", report.Attempts))
		return report, firstErr
	}
	if err := ctx.Err(); err != nil {
		log.Info("run cancelled", zap.Int64("attempts", report.Attempts), zap.Duration("duration", report.Duration))
		return report, err
	}

	log.Info("run complete",
		zap.Int64("attempts", report.Attempts),
		zap.Int64("rows", report.Rows),
		zap.Int64("bytes", report.Bytes),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// IsMismatch reports whether err is or wraps a *RoundTripMismatch.
func IsMismatch(err error) bool {
	var m *RoundTripMismatch
	return errors.As(err, &m)
}
