package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsAfterInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProfiler(
		WithInterval(20*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	_, reported := p.Tick()
	assert.False(t, reported)
	assert.Zero(t, buf.Len())

	time.Sleep(30 * time.Millisecond)
	stats, reported := p.Tick()
	assert.True(t, reported)
	assert.Greater(t, stats.TPS, 0.0)
	assert.Greater(t, stats.SysMB, 0.0)
	assert.Contains(t, buf.String(), "tps=")

	_, reported = p.Tick()
	assert.False(t, reported)
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
