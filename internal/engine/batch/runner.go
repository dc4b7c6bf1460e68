package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/apreboot/internal/logging"
)

// Batch size gates.
const (
	// ForceThreshold is the largest task list that runs without Force.
	ForceThreshold = 100

	// ConfirmThreshold is the largest live task list that runs without
	// confirmation.
	ConfirmThreshold = 1000

	// DefaultBatchSize is the checkpoint interval in tasks.
	DefaultBatchSize = 50
)

// Errors that abort a run before any task is processed.
var (
	ErrLargeBatchRefused    = errors.New("task list too large without force")
	ErrConfirmationDeclined = errors.New("large batch not confirmed")
)

// State is the lifecycle state of a Runner.
type State int

// Runner states.
const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options control one run.
type Options struct {
	// Delay is the pacing wait between consecutive tasks.
	Delay time.Duration

	// Simulate records ready tasks as successes without invoking the action.
	Simulate bool

	// Force allows task lists longer than ForceThreshold.
	Force bool

	// Resume continues from the saved checkpoint, if any.
	Resume bool

	// BatchSize is the checkpoint interval; < 1 means DefaultBatchSize.
	BatchSize int

	// SkipStatusCheck trusts the task list statuses instead of live ones.
	SkipStatusCheck bool
}

// Report is the outcome of a run. It is returned for every run that got
// past the size gates, including cancelled ones.
type Report struct {
	State    State
	Stats    Stats
	Simulate bool

	// StartIndex is where this run started; NextIndex is the first task it
	// did not process.
	StartIndex int
	NextIndex  int

	Elapsed        time.Duration
	AveragePerTask time.Duration
}

// Confirmer asks an operator to approve a large live batch.
type Confirmer interface {
	Confirm(ctx context.Context, total int) bool
}

// StatusLookup resolves the live status of a task identity.
type StatusLookup interface {
	Lookup(identity string) (string, bool)
}

// StatusLoader builds a status snapshot once per run.
type StatusLoader func(ctx context.Context) StatusLookup

// ActionDescriber is optionally implemented by an ActionInvoker to describe
// the request it would send; simulate mode logs the description.
type ActionDescriber interface {
	DescribeAction(groupKey, identity string) string
}

// Runner executes a task list strictly in order.
type Runner struct {
	invoker   *RetryingInvoker
	store     CheckpointStore
	cancel    *Cancellation
	statuses  StatusLoader
	confirmer Confirmer
	sleeper   Sleeper
	observer  WaitObserver
	metrics   Recorder
	now       func() time.Time

	state State
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithStatusLoader enables live status checks.
func WithStatusLoader(l StatusLoader) RunnerOption {
	return func(r *Runner) { r.statuses = l }
}

// WithConfirmer sets the large-batch confirmer.
func WithConfirmer(c Confirmer) RunnerOption {
	return func(r *Runner) { r.confirmer = c }
}

// WithSleeper replaces the pacing sleeper.
func WithSleeper(s Sleeper) RunnerOption {
	return func(r *Runner) { r.sleeper = s }
}

// WithWaitObserver receives pacing countdown events.
func WithWaitObserver(o WaitObserver) RunnerOption {
	return func(r *Runner) { r.observer = o }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Recorder) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithClock overrides time.Now for timing and estimates.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns an idle Runner.
func NewRunner(invoker *RetryingInvoker, store CheckpointStore, cancel *Cancellation, opts ...RunnerOption) *Runner {
	r := &Runner{
		invoker:  invoker,
		store:    store,
		cancel:   cancel,
		sleeper:  RealSleeper{},
		observer: nopWaitObserver{},
		metrics:  NopRecorder{},
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cancel == nil {
		r.cancel = NewCancellation()
	}
	return r
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return r.state
}

// Run processes src. A run refused by the size gates returns an error and an
// Aborted report; every other run returns a nil error, with the report State
// telling whether it completed or was cancelled.
func (r *Runner) Run(ctx context.Context, src Source, opts Options) (*Report, error) {
	log := logging.ComponentLogger(*logging.FromContext(ctx), "batch").With().
		Str("source", src.Key).
		Logger()

	r.state = StateRunning
	total := len(src.Tasks)
	report := &Report{Simulate: opts.Simulate}
	report.Stats.Total = total

	if total == 0 {
		log.Warn().Ctx(ctx).Msg("no tasks found in the task list")
		return r.finish(report, StateCompleted), nil
	}

	if err := r.checkGates(ctx, total, opts); err != nil {
		log.Error().Ctx(ctx).Err(err).Int("tasks", total).Msg("run aborted")
		return r.finish(report, StateAborted), err
	}

	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	start := r.resumeIndex(ctx, log, src, opts, &report.Stats)
	report.StartIndex = start
	progress := NewProgress(total, start, r.now)

	mode := "LIVE MODE"
	if opts.Simulate {
		mode = "SIMULATE MODE"
	}
	log.Info().Ctx(ctx).
		Str("mode", mode).
		Int("tasks", total-start).
		Dur("delay", opts.Delay).
		Time("estimated_completion", progress.EstimatedCompletion(opts.Delay)).
		Msgf("%s: processing %d tasks", mode, total-start)

	statuses := r.loadStatuses(ctx, log, opts)

	report.State = StateCompleted
	next := total
	for i := start; i < total; i++ {
		if r.cancel.Requested() {
			r.saveCheckpoint(ctx, src.Key, report.Stats.checkpoint(i))
			log.Warn().Ctx(ctx).Int("index", i).Msg("shutdown requested, checkpoint saved; resume with --resume")
			report.State = StateCancelled
			next = i
			break
		}

		task := src.Tasks[i]
		log.Info().Ctx(ctx).
			Str("name", task.Name).
			Str("identity", task.Identity).
			Dur("eta", progress.EstimatedTimeRemaining()).
			Msgf("%s processing %s", progress.Label(i), task.Name)

		r.process(ctx, log, task, r.effectiveStatus(ctx, log, task, statuses, opts), opts, &report.Stats)
		report.Stats.Processed++
		progress.AddProcessed()

		if (i+1)%batchSize == 0 {
			r.saveCheckpoint(ctx, src.Key, report.Stats.checkpoint(i+1))
		}

		if i < total-1 {
			pace(opts.Delay, r.cancel, r.sleeper, r.observer)
		}
	}
	report.NextIndex = next

	if report.State == StateCompleted {
		r.store.Delete(ctx, src.Key)
		log.Info().Ctx(ctx).Msg("operation completed, checkpoint removed")
	}

	report.Elapsed = progress.ElapsedTime()
	report.AveragePerTask = progress.AveragePerItem()
	return r.finish(report, report.State), nil
}

func (r *Runner) finish(report *Report, state State) *Report {
	r.state = state
	report.State = state
	return report
}

func (r *Runner) checkGates(ctx context.Context, total int, opts Options) error {
	if total > ForceThreshold && !opts.Force {
		return fmt.Errorf("%w: %d tasks exceed %d, use --force", ErrLargeBatchRefused, total, ForceThreshold)
	}
	if total > ConfirmThreshold && !opts.Simulate {
		if r.confirmer == nil || !r.confirmer.Confirm(ctx, total) {
			return fmt.Errorf("%w: %d tasks", ErrConfirmationDeclined, total)
		}
	}
	return nil
}

// resumeIndex loads the checkpoint when resuming and seeds stats from it.
func (r *Runner) resumeIndex(
	ctx context.Context,
	log zerolog.Logger,
	src Source,
	opts Options,
	stats *Stats,
) int {
	if !opts.Resume {
		return 0
	}

	cp, ok := r.store.Load(ctx, src.Key)
	if !ok {
		log.Info().Ctx(ctx).Msg("no checkpoint to resume from, starting from the beginning")
		return 0
	}
	if cp.LastProcessedIndex > len(src.Tasks) {
		log.Warn().Ctx(ctx).
			Int("checkpoint_index", cp.LastProcessedIndex).
			Int("tasks", len(src.Tasks)).
			Msg("checkpoint is beyond the end of the task list, starting from the beginning")
		return 0
	}

	stats.seed(cp)
	if cp.LastProcessedIndex > 0 {
		log.Info().Ctx(ctx).Msgf("resuming from task %d/%d", cp.LastProcessedIndex+1, len(src.Tasks))
	}
	return cp.LastProcessedIndex
}

func (r *Runner) loadStatuses(ctx context.Context, log zerolog.Logger, opts Options) StatusLookup {
	switch {
	case opts.Simulate:
		log.Info().Ctx(ctx).Msg("runtime status checking: N/A (simulate mode uses task list status)")
		return nil
	case opts.SkipStatusCheck:
		log.Info().Ctx(ctx).Msg("runtime status checking: DISABLED (trusting task list status)")
		return nil
	case r.statuses == nil:
		return nil
	}

	log.Info().Ctx(ctx).Msg("runtime status checking: ENABLED")
	return r.statuses(ctx)
}

// effectiveStatus prefers the live status when one is known.
func (r *Runner) effectiveStatus(
	ctx context.Context,
	log zerolog.Logger,
	task Task,
	statuses StatusLookup,
	opts Options,
) string {
	if statuses == nil || opts.Simulate || opts.SkipStatusCheck {
		return task.Status
	}

	live, ok := statuses.Lookup(task.Identity)
	if !ok {
		log.Debug().Ctx(ctx).Str("identity", task.Identity).Msg("no live status, using task list status")
		return task.Status
	}
	if live != task.Status {
		log.Info().Ctx(ctx).
			Str("identity", task.Identity).
			Str("from", task.Status).
			Str("to", live).
			Msg("status update")
	}
	return live
}

func (r *Runner) process(
	ctx context.Context,
	log zerolog.Logger,
	task Task,
	status string,
	opts Options,
	stats *Stats,
) {
	switch {
	case !IsReady(status):
		log.Warn().Ctx(ctx).
			Str("identity", task.Identity).
			Str("status", status).
			Msgf("skipping %s: not operational", task.Name)
		stats.recordSkipped(task, status)
		r.metrics.TaskFinished(OutcomeSkipped)

	case opts.Simulate:
		log.Info().Ctx(ctx).
			Str("identity", task.Identity).
			Str("group_key", task.GroupKey).
			Msg("SIMULATE: would invoke action")
		if d, ok := r.invoker.invoker.(ActionDescriber); ok {
			log.Info().Ctx(ctx).Msgf("SIMULATE: %s", d.DescribeAction(task.GroupKey, task.Identity))
		}
		stats.recordSuccess(task)
		r.metrics.TaskFinished(OutcomeSuccess)

	default:
		if ok, errMsg := r.invoker.Invoke(ctx, task); ok {
			log.Info().Ctx(ctx).Str("identity", task.Identity).Msg("action succeeded")
			stats.recordSuccess(task)
			r.metrics.TaskFinished(OutcomeSuccess)
		} else {
			log.Error().Ctx(ctx).Str("identity", task.Identity).Str("error", errMsg).Msg("action failed")
			stats.recordFailure(task, errMsg)
			r.metrics.TaskFinished(OutcomeFailed)
		}
	}
}

func (r *Runner) saveCheckpoint(ctx context.Context, key string, cp Checkpoint) {
	r.store.Save(ctx, key, cp)
	r.metrics.CheckpointSaved(cp.LastProcessedIndex)
}
