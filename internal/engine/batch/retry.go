package batch

import (
	"context"
	"time"

	"github.com/rshade/apreboot/internal/logging"
)

// Attempts per task.
const (
	DefaultMaxAttempts = 3
	MaxAttemptsLimit   = 10
)

// ActionInvoker performs the remote action for one task.
type ActionInvoker interface {
	InvokeAction(ctx context.Context, groupKey, identity string) error
}

// Sleeper blocks for a duration. Tests substitute a fake.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper sleeps with time.Sleep.
type RealSleeper struct{}

// Sleep implements Sleeper.
func (RealSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// RetryingInvoker calls an ActionInvoker up to MaxAttempts times, sleeping
// 2^attempt seconds between attempts (1s, 2s, 4s...). The backoff is not
// interrupted by a cancellation request; the current task always finishes.
type RetryingInvoker struct {
	invoker     ActionInvoker
	maxAttempts int
	sleeper     Sleeper
	metrics     Recorder
	now         func() time.Time
}

// NewRetryingInvoker wraps invoker. maxAttempts < 1 means DefaultMaxAttempts
// and values above MaxAttemptsLimit are clamped to it.
func NewRetryingInvoker(invoker ActionInvoker, maxAttempts int, sleeper Sleeper, metrics Recorder) *RetryingInvoker {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	maxAttempts = min(maxAttempts, MaxAttemptsLimit)
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &RetryingInvoker{
		invoker:     invoker,
		maxAttempts: maxAttempts,
		sleeper:     sleeper,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Invoke runs the action for task and reports whether it eventually
// succeeded. On exhaustion the last error message is returned.
func (r *RetryingInvoker) Invoke(ctx context.Context, task Task) (bool, string) {
	log := logging.FromContext(ctx).With().
		Str("identity", task.Identity).
		Str("group_key", task.GroupKey).
		Logger()

	var lastErr error
	for attempt := range r.maxAttempts {
		start := r.now()
		err := r.invoker.InvokeAction(ctx, task.GroupKey, task.Identity)
		r.metrics.ActionAttempt(r.now().Sub(start), err == nil)
		if err == nil {
			return true, ""
		}
		lastErr = err

		if attempt < r.maxAttempts-1 {
			wait := time.Duration(1<<attempt) * time.Second
			log.Warn().Ctx(ctx).Err(err).
				Int("attempt", attempt+1).
				Int("max_attempts", r.maxAttempts).
				Dur("retry_in", wait).
				Msg("action failed, retrying")
			r.sleeper.Sleep(wait)
		}
	}

	log.Error().Ctx(ctx).Err(lastErr).Int("attempts", r.maxAttempts).Msg("action failed after all attempts")
	return false, lastErr.Error()
}
