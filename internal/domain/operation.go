package domain

import "time"

// OperationState is the lifecycle of a background ticket creation.
type OperationState string

const (
	OperationInProgress OperationState = "IN_PROGRESS"
	OperationCompleted  OperationState = "COMPLETED"
	OperationFailed     OperationState = "FAILED"
)

// OperationRecord is the latest submission outcome for one identity.
type OperationRecord struct {
	Identity     string         `json:"identity"`
	State        OperationState `json:"state"`
	SubmissionID string         `json:"submission_id"`
	Sequence     uint64         `json:"sequence"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	TicketID     *int64         `json:"ticket_id,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// Terminal reports whether the record no longer changes.
func (r OperationRecord) Terminal() bool {
	return r.State == OperationCompleted || r.State == OperationFailed
}
