package entity

import "time"

// DeliveryLog is one durable record of a channel-level dispatch
// outcome, written after each drain so operators can audit what left
// the system even after the in-memory job is pruned.
type DeliveryLog struct {
	ID        int64
	JobID     int64
	BatchID   string
	Channel   Channel
	Kind      Kind
	Priority  Priority
	Status    JobStatus
	Succeeded int
	Failed    int
	LastError string
	CreatedAt time.Time
}
