package operations

// JobStatus is the lifecycle of one work list
type JobStatus string

const (
	JobStatusNotStarted JobStatus = "NOT_STARTED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
)

// JobState is the persisted progress of one work list
type JobState struct {
	// NextIndex is the 1-based data row to process next
	NextIndex int  `json:"next_index"`
	Completed bool `json:"completed"`
	// Started is set once a checkpoint file exists
	Started bool `json:"started"`
}

// InitialJobState is the state of a work list that has never been run
func InitialJobState() JobState {
	return JobState{NextIndex: 1}
}

// Status derives the lifecycle state
func (s JobState) Status() JobStatus {
	switch {
	case s.Completed:
		return JobStatusCompleted
	case s.Started:
		return JobStatusInProgress
	default:
		return JobStatusNotStarted
	}
}
