package batch

import "time"

// WaitObserver is notified while the runner paces between tasks, so a
// caller can render a countdown. Tick receives the number of whole seconds
// waited so far.
type WaitObserver interface {
	WaitStarted(total time.Duration)
	Tick(elapsed int)
	WaitInterrupted()
	WaitFinished()
}

type nopWaitObserver struct{}

func (nopWaitObserver) WaitStarted(time.Duration) {}
func (nopWaitObserver) Tick(int)                  {}
func (nopWaitObserver) WaitInterrupted()          {}
func (nopWaitObserver) WaitFinished()             {}

// pace waits delay in one-second steps, checking cancel before each step.
// It returns false if the wait was cut short by a cancellation request.
// A trailing fraction of a second is slept as a final step.
func pace(delay time.Duration, cancel *Cancellation, sleeper Sleeper, observer WaitObserver) bool {
	if delay <= 0 {
		return true
	}

	observer.WaitStarted(delay)
	waited := time.Duration(0)
	elapsed := 0
	for waited < delay {
		if cancel.Requested() {
			observer.WaitInterrupted()
			return false
		}
		step := min(time.Second, delay-waited)
		sleeper.Sleep(step)
		waited += step
		elapsed++
		observer.Tick(elapsed)
	}
	observer.WaitFinished()
	return true
}
