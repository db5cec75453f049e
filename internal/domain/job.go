package domain

import "time"

// JobKind identifies the media type of a swap job
type JobKind string

const (
	KindImage JobKind = "image"
	KindVideo JobKind = "video"
	KindOther JobKind = "other"
)

// ValidKind reports whether k is a known job kind
func ValidKind(k JobKind) bool {
	switch k {
	case KindImage, KindVideo, KindOther:
		return true
	}
	return false
}

// Job status constants. A job enters "processing" at creation and leaves it
// exactly once, to either "completed" or "failed".
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status permits no further transitions
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents a swap job tracked from provider submission through a
// terminal outcome. RequestID is provider-assigned and is the primary key.
type Job struct {
	RequestID      string    `db:"request_id"`
	OwnerID        string    `db:"owner_id"`
	DeliveryTarget string    `db:"delivery_target"`
	Kind           JobKind   `db:"kind"`
	Status         JobStatus `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	ResultRef      string    `db:"result_ref"`
	FailureReason  string    `db:"failure_reason"`

	// Poll scheduling metadata, owned by the poller
	Attempts   int       `db:"attempts"`
	NextPollAt time.Time `db:"next_poll_at"`

	// ReservedCost is debited at submission and credited back at most once
	// if the job fails
	ReservedCost int64  `db:"reserved_cost"`
	RefundReason string `db:"refund_reason"`
}
