package domain

// DefaultDescription fills an empty ticket description.
const DefaultDescription = "No description provided."

// SubmissionRequest is a validated ticket form submission.
type SubmissionRequest struct {
	SubmissionID   string
	Email          string
	Subject        string
	Description    string
	MailboxID      *int64
	StatusID       *int64
	PriorityID     *int64
	ConversationID string
}
