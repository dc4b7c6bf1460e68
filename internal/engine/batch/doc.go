// Package batch runs a remote action over a task list, one task at a time,
// in a way that survives interruption and partial failure.
//
// Runner walks the list in order. A task whose status is not ready is
// skipped; every other task is handed to a RetryingInvoker (or only logged in
// simulate mode). Between tasks the runner waits a fixed delay in one-second
// steps so a cancellation request is noticed within a second. Progress is
// checkpointed to disk every BatchSize tasks and whenever the run is
// cancelled, so a later run with Resume set continues at exactly the next
// unprocessed index with the earlier counts and outcome lists restored.
//
// Cancellation is cooperative: the first request lets the current task and
// its retries finish, then the runner saves a checkpoint and stops. Forced
// termination is handled outside this package.
package batch
