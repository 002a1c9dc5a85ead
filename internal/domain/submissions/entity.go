package submissions

import "time"

// Status of a settled submission
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Submission is the journal entry written once a submission settles.
type Submission struct {
	ID                string    `json:"id"`
	FileName          string    `json:"file_name"`
	SizeBytes         int64     `json:"size_bytes"`
	Status            Status    `json:"status"`
	TotalTransactions int       `json:"total_transactions"`
	FlaggedCount      int       `json:"flagged_count"`
	RiskScore         *float64  `json:"risk_score,omitempty"`
	Error             string    `json:"error,omitempty"`
	ArchiveURL        string    `json:"archive_url,omitempty"`
	ReportURL         string    `json:"report_url,omitempty"`
	SubmittedAt       time.Time `json:"submitted_at"`
	CompletedAt       time.Time `json:"completed_at"`
}

// Duration between submission and settlement
func (s *Submission) Duration() time.Duration {
	if s.CompletedAt.IsZero() || s.SubmittedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.SubmittedAt)
}
