package constants

// JobStatus is the canonical status for rows in edit_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning   JobStatus = "RUNNING"   // pipeline in progress
	JobStatusNoText    JobStatus = "NO_TEXT"   // terminal: document has no extractable text
	JobStatusSucceeded JobStatus = "SUCCEEDED" // terminal: edited document produced
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)
