package queue

import "time"

// Progress is a point-in-time snapshot of a queue's processing state, as
// consumed by progress displays.
type Progress struct {
	// HasStarted reports whether any item was dequeued yet.
	HasStarted bool

	// HasFinished reports whether the last enqueued item was dequeued.
	HasFinished bool

	// StartTime is when the first item was dequeued.
	StartTime time.Time

	// FinishTime is when the last item was dequeued.
	FinishTime time.Time

	// ProgressPct is the processed share of all items, from 0 to 100.
	ProgressPct float64

	// TotalItems is the number of items ever enqueued.
	TotalItems int

	// ProcessedItems is the number of items with a recorded outcome.
	ProcessedItems int

	// InProgressItems is the number of items dequeued without an outcome
	// yet.
	InProgressItems int

	// SuccessItems is the number of successfully processed items.
	SuccessItems int

	// SkippedItems is the number of skipped items.
	SkippedItems int

	// ETA is the estimated completion time, zero while unknown.
	ETA time.Time

	// TimeLeft is the estimated remaining duration, zero while unknown.
	TimeLeft time.Duration

	// Throughput is the processing rate in [Progress.ThroughputUnit].
	Throughput float64

	// ThroughputUnit is the unit [Progress.Throughput] is reported in.
	ThroughputUnit string
}
