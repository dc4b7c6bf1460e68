package batch

// Stats are the running counts and outcome lists of one batch. The lists
// only grow, and on resume they start from the checkpointed values.
type Stats struct {
	Total     int
	Processed int
	Success   int
	Failed    int
	Skipped   int

	SuccessTasks []SucceededTask
	SkippedTasks []SkippedTask
	FailedTasks  []FailedTask
}

func (s *Stats) recordSuccess(t Task) {
	s.Success++
	s.SuccessTasks = append(s.SuccessTasks, SucceededTask{Identity: t.Identity, Name: t.Name, GroupKey: t.GroupKey})
}

func (s *Stats) recordSkipped(t Task, status string) {
	s.Skipped++
	s.SkippedTasks = append(s.SkippedTasks, SkippedTask{
		Identity: t.Identity,
		Name:     t.Name,
		GroupKey: t.GroupKey,
		Status:   status,
	})
}

func (s *Stats) recordFailure(t Task, errMsg string) {
	s.Failed++
	s.FailedTasks = append(s.FailedTasks, FailedTask{Identity: t.Identity, Name: t.Name, Error: errMsg})
}

// seed restores counts and lists from a checkpoint taken at cp.LastProcessedIndex.
func (s *Stats) seed(cp Checkpoint) {
	s.Processed = cp.LastProcessedIndex
	s.Success = cp.Success
	s.Failed = cp.Failed
	s.Skipped = cp.Skipped
	s.SuccessTasks = append([]SucceededTask(nil), cp.SuccessTasks...)
	s.SkippedTasks = append([]SkippedTask(nil), cp.SkippedTasks...)
	s.FailedTasks = append([]FailedTask(nil), cp.FailedTasks...)
}

// checkpoint snapshots the stats with next as the next unprocessed index.
func (s *Stats) checkpoint(next int) Checkpoint {
	return Checkpoint{
		FormatVersion:      CheckpointFormatVersion,
		LastProcessedIndex: next,
		Success:            s.Success,
		Failed:             s.Failed,
		Skipped:            s.Skipped,
		SuccessTasks:       append([]SucceededTask{}, s.SuccessTasks...),
		SkippedTasks:       append([]SkippedTask{}, s.SkippedTasks...),
		FailedTasks:        append([]FailedTask{}, s.FailedTasks...),
	}
}
