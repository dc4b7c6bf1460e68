package batch

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancellation_Request(t *testing.T) {
	c := NewCancellation()
	assert.False(t, c.Requested())

	assert.True(t, c.Request())
	assert.False(t, c.Request())
	assert.True(t, c.Requested())

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after Request")
	}
}

func TestCancellation_WatchTwoStage(t *testing.T) {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	c := NewCancellation()
	signals := make(chan os.Signal, 2)
	forced := make(chan struct{})
	c.Watch(ctx, signals, func() { close(forced) })

	signals <- syscall.SIGINT
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("first signal did not request cancellation")
	}

	select {
	case <-forced:
		t.Fatal("force called on first signal")
	default:
	}

	signals <- syscall.SIGINT
	select {
	case <-forced:
	case <-time.After(time.Second):
		t.Fatal("second signal did not force")
	}
}

func TestPace(t *testing.T) {
	t.Run("fractional delay", func(t *testing.T) {
		sleeper := &fakeSleeper{}
		obs := &recordingObserver{}

		require.True(t, pace(2500*time.Millisecond, NewCancellation(), sleeper, obs))
		assert.Equal(t, []time.Duration{time.Second, time.Second, 500 * time.Millisecond}, sleeper.slept)
		assert.Equal(t, []int{1, 2, 3}, obs.ticks)
		assert.Equal(t, 1, obs.finished)
	})

	t.Run("zero delay", func(t *testing.T) {
		sleeper := &fakeSleeper{}
		obs := &recordingObserver{}

		assert.True(t, pace(0, NewCancellation(), sleeper, obs))
		assert.Empty(t, sleeper.slept)
		assert.Empty(t, obs.started)
	})

	t.Run("already cancelled", func(t *testing.T) {
		c := NewCancellation()
		c.Request()
		sleeper := &fakeSleeper{}
		obs := &recordingObserver{}

		assert.False(t, pace(5*time.Second, c, sleeper, obs))
		assert.Empty(t, sleeper.slept)
		assert.Equal(t, 1, obs.interrupted)
	})
}
