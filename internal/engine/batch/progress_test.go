package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	p := NewProgress(10, 4, clock)
	assert.Equal(t, "[5/10] (50.0%)", p.Label(4))
	assert.Equal(t, 6, p.Remaining())
	assert.Equal(t, now.Add(12*time.Second), p.EstimatedCompletion(2*time.Second))
	assert.Zero(t, p.EstimatedTimeRemaining())

	now = now.Add(9 * time.Second)
	p.AddProcessed()
	p.AddProcessed()
	p.AddProcessed()

	assert.Equal(t, 9*time.Second, p.ElapsedTime())
	assert.Equal(t, 3*time.Second, p.AveragePerItem())
	assert.Equal(t, 3, p.Remaining())
	assert.Equal(t, 9*time.Second, p.EstimatedTimeRemaining())
}

func TestProgress_LabelRounding(t *testing.T) {
	p := NewProgress(3, 0, nil)
	assert.Equal(t, "[1/3] (33.3%)", p.Label(0))
	assert.Equal(t, "[3/3] (100.0%)", p.Label(2))
}

func TestProgress_AverageWithNothingProcessed(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	p := NewProgress(5, 0, clock)
	now = now.Add(2 * time.Second)
	assert.Equal(t, 2*time.Second, p.AveragePerItem())
}
