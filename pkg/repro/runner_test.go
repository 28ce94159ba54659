package repro

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ssargent/rowcheck/pkg/codec"
	"github.com/ssargent/rowcheck/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corruptingCodec decodes correctly except for rows at a chosen offset, whose
// offset comes back off by one.
type corruptingCodec struct {
	inner  *codec.RowCodec
	target int64
}

func (c *corruptingCodec) Encode(r codec.Row) ([]byte, error) {
	return c.inner.Encode(r)
}

func (c *corruptingCodec) Decode(data []byte) (codec.Row, error) {
	r, err := c.inner.Decode(data)
	if err != nil || r.Offset() != c.target {
		return r, err
	}
	return codec.RowOf(r.SortKey(), r.Name(), r.Offset()+1), nil
}

func testConfig() Config {
	return Config{
		Attempts:       20,
		RowsPerAttempt: 10,
		Workers:        4,
		Series:         "name",
		InMemory:       true,
	}
}

func TestRoundTrip(t *testing.T) {
	c := codec.NewRowCodec()

	t.Run("matching row", func(t *testing.T) {
		row := codec.NewRow("name", 3)
		encoded, err := RoundTrip(c, row)
		require.NoError(t, err)
		assert.Len(t, encoded, c.EncodedSize(row))
	})

	t.Run("mismatch", func(t *testing.T) {
		row := codec.NewRow("name", 5)
		_, err := RoundTrip(&corruptingCodec{inner: c, target: 5}, row)
		require.Error(t, err)
		assert.True(t, IsMismatch(err))

		var m *RoundTripMismatch
		require.ErrorAs(t, err, &m)
		assert.Equal(t, row, m.Expected)
		assert.Equal(t, int64(6), m.Actual.Offset())
		assert.Contains(t, err.Error(), "expected Row{")
	})

	t.Run("encoding error", func(t *testing.T) {
		_, err := RoundTrip(c, codec.RowOf(0, "\xfe", 0))
		require.Error(t, err)
		assert.False(t, IsMismatch(err))
		assert.ErrorIs(t, err, codec.ErrInvalidUTF8)
	})
}

func TestNewRunner(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "default workers", mutate: func(c *Config) { c.Workers = 0 }},
		{name: "negative attempts", mutate: func(c *Config) { c.Attempts = -1 }, wantErr: true},
		{name: "zero rows", mutate: func(c *Config) { c.RowsPerAttempt = 0 }, wantErr: true},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }, wantErr: true},
		{name: "on-disk without dir", mutate: func(c *Config) { c.InMemory = false }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			r, err := NewRunner(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Positive(t, r.cfg.Workers)
			assert.NotNil(t, r.logger)
			assert.NotNil(t, r.metrics)
		})
	}
}

func TestFromConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.Harness.Attempts = 3
	c.Store.InMemory = false

	cfg := FromConfig(c)
	assert.Equal(t, 3, cfg.Attempts)
	assert.Equal(t, 10, cfg.RowsPerAttempt)
	assert.Equal(t, "name", cfg.Series)
	assert.False(t, cfg.InMemory)
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestRunner_Attempt(t *testing.T) {
	r, err := NewRunner(testConfig())
	require.NoError(t, err)

	stats, err := r.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Rows)
	// 8 + (1 + len("name")) + 8 per row
	assert.Equal(t, int64(10*21), stats.Bytes)
}

func TestRunner_AttemptMismatch(t *testing.T) {
	r, err := NewRunner(testConfig(), WithCodec(&corruptingCodec{inner: codec.NewRowCodec(), target: 7}))
	require.NoError(t, err)

	stats, err := r.Attempt(context.Background())
	require.Error(t, err)
	assert.True(t, IsMismatch(err))
	assert.Equal(t, int64(7), stats.Rows)
}

func TestRunner_AttemptInvalidSeries(t *testing.T) {
	cfg := testConfig()
	cfg.Series = "bad\xff"
	r, err := NewRunner(cfg)
	require.NoError(t, err)

	_, err = r.Attempt(context.Background())
	require.Error(t, err)

	var encErr *codec.EncodingError
	assert.ErrorAs(t, err, &encErr)
}

func TestRunner_AttemptCancelled(t *testing.T) {
	r, err := NewRunner(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Attempt(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Run(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r, err := NewRunner(testConfig(), WithMetrics(m))
	require.NoError(t, err)

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(20), report.Attempts)
	assert.Equal(t, int64(200), report.Rows)
	assert.Equal(t, int64(200*21), report.Bytes)
	assert.Equal(t, 4, report.Workers)
	assert.False(t, report.RunID.IsNil())

	assert.Equal(t, float64(20), testutil.ToFloat64(m.attemptsTotal.WithLabelValues(statusSuccess)))
	assert.Equal(t, float64(200), testutil.ToFloat64(m.rowsTotal.WithLabelValues(statusSuccess)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.workersActive))
}

func TestRunner_RunStopsOnMismatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	cfg := testConfig()
	cfg.Attempts = 0
	r, err := NewRunner(cfg,
		WithCodec(&corruptingCodec{inner: codec.NewRowCodec(), target: 3}),
		WithMetrics(m),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = r.Run(ctx)
	require.Error(t, err)
	assert.True(t, IsMismatch(err))
	assert.NoError(t, ctx.Err())
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.attemptsTotal.WithLabelValues(statusMismatch)), float64(1))
}

func TestRunner_RunUntilCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.Attempts = 0
	r, err := NewRunner(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	report, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, report.Rows, report.Attempts*10)
}

func TestRunner_RunOnDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Attempts = 4
	cfg.Workers = 2
	cfg.InMemory = false
	cfg.DataDir = dir

	r, err := NewRunner(cfg)
	require.NoError(t, err)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), report.Attempts)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordAttempt(nil, time.Millisecond)
	m.RecordAttempt(errors.New("boom"), time.Millisecond)
	m.RecordRow(&RoundTripMismatch{}, 17)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"rowcheck_attempts_total",
		"rowcheck_attempt_duration_seconds",
		"rowcheck_rows_total",
		"rowcheck_encoded_row_bytes",
		"rowcheck_workers_active",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(m.attemptsTotal.WithLabelValues(statusError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rowsTotal.WithLabelValues(statusMismatch)))

	// a second set of metrics on a fresh registry must not conflict
	assert.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}
