package tasks

import "time"

// Task Types
const (
	// Retries pending media file deletions
	TaskTypeMediaSweep = "media:sweep"
)

// Task Queues
const (
	QueueCritical = "critical" // For time-sensitive tasks
	QueueDefault  = "default"  // For regular tasks
	QueueLow      = "low"      // For background tasks like cleanup
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
	TimeoutLong   = 30 * time.Minute
)

// Task Retry Settings
const (
	RetryMax     = 5
	RetryDefault = 3
	RetryMin     = 1
)

// MediaSweepPayload is the payload of TaskTypeMediaSweep.
type MediaSweepPayload struct {
	Limit int `json:"limit"`
}
