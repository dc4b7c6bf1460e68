package batch

import (
	"fmt"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks how far a run is through its task list.
type Progress struct {
	// TotalItems is the length of the whole task list.
	TotalItems int

	// StartIndex is where this run started (non-zero on resume).
	StartIndex int

	// ProcessedItems counts tasks processed by this run only.
	ProcessedItems int

	StartTime time.Time

	now func() time.Time
}

// NewProgress starts tracking a run over totalItems tasks beginning at
// startIndex.
func NewProgress(totalItems, startIndex int, now func() time.Time) *Progress {
	if now == nil {
		now = time.Now
	}
	return &Progress{
		TotalItems: totalItems,
		StartIndex: startIndex,
		StartTime:  now(),
		now:        now,
	}
}

// AddProcessed records one more processed task.
func (p *Progress) AddProcessed() {
	p.ProcessedItems++
}

// Label renders the position of the task at index as "[n/total] (pct%)".
func (p *Progress) Label(index int) string {
	pct := 0.0
	if p.TotalItems > 0 {
		pct = float64(index+1) / float64(p.TotalItems) * percentMultiplier
	}
	return fmt.Sprintf("[%d/%d] (%.1f%%)", index+1, p.TotalItems, pct)
}

// Remaining returns the number of tasks this run has not processed yet.
func (p *Progress) Remaining() int {
	return p.TotalItems - p.StartIndex - p.ProcessedItems
}

// ElapsedTime returns the time elapsed since the run started.
func (p *Progress) ElapsedTime() time.Duration {
	return p.now().Sub(p.StartTime)
}

// AveragePerItem is the elapsed time divided by the tasks processed in this
// run, or by one when none were.
func (p *Progress) AveragePerItem() time.Duration {
	return p.ElapsedTime() / time.Duration(max(p.ProcessedItems, 1))
}

// EstimatedCompletion projects the finish time assuming each remaining task
// costs one pacing delay.
func (p *Progress) EstimatedCompletion(delay time.Duration) time.Time {
	return p.now().Add(time.Duration(p.Remaining()) * delay)
}

// EstimatedTimeRemaining estimates the remaining time from the observed
// average. Returns 0 if nothing has been processed yet.
func (p *Progress) EstimatedTimeRemaining() time.Duration {
	if p.ProcessedItems == 0 {
		return 0
	}
	return p.AveragePerItem() * time.Duration(p.Remaining())
}
