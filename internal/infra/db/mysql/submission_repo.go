package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/auditor-console/internal/domain/submissions"
)

const schema = `
CREATE TABLE IF NOT EXISTS console_submissions (
  id                 VARCHAR(36)  NOT NULL PRIMARY KEY,
  file_name          VARCHAR(255) NOT NULL,
  size_bytes         BIGINT       NOT NULL DEFAULT 0,
  status             VARCHAR(16)  NOT NULL,
  total_transactions INT          NOT NULL DEFAULT 0,
  flagged_count      INT          NOT NULL DEFAULT 0,
  risk_score         DOUBLE       NULL,
  error_message      TEXT         NULL,
  archive_url        TEXT         NULL,
  report_url         TEXT         NULL,
  submitted_at       DATETIME(3)  NOT NULL,
  completed_at       DATETIME(3)  NOT NULL,
  KEY idx_console_submissions_completed (completed_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

type SubmissionRepository struct{ db *sql.DB }

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// EnsureSchema creates the journal table when missing.
func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create console_submissions: %w", err)
	}
	return nil
}

// Save insert/update a journal entry
func (r *SubmissionRepository) Save(ctx context.Context, s *domain.Submission) error {
	const q = `
INSERT INTO console_submissions
(id, file_name, size_bytes, status, total_transactions, flagged_count,
 risk_score, error_message, archive_url, report_url, submitted_at, completed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status),
 total_transactions=VALUES(total_transactions),
 flagged_count=VALUES(flagged_count),
 risk_score=VALUES(risk_score),
 error_message=VALUES(error_message),
 archive_url=VALUES(archive_url),
 report_url=VALUES(report_url),
 completed_at=VALUES(completed_at)`

	completed := s.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}
	submitted := s.SubmittedAt
	if submitted.IsZero() {
		submitted = completed
	}

	_, err := r.db.ExecContext(ctx, q,
		s.ID, stringOrDash(s.FileName), s.SizeBytes, string(s.Status),
		s.TotalTransactions, s.FlaggedCount, nullFloat(s.RiskScore),
		s.Error, s.ArchiveURL, s.ReportURL, submitted, completed,
	)
	if err != nil {
		return fmt.Errorf("save submission %s: %w", s.ID, err)
	}
	return nil
}

const selectCols = `
SELECT id, file_name, size_bytes, status, total_transactions, flagged_count,
       risk_score, COALESCE(error_message,''), COALESCE(archive_url,''), COALESCE(report_url,''),
       submitted_at, completed_at
FROM console_submissions`

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*domain.Submission, error) {
	var s domain.Submission
	var status string
	var score sql.NullFloat64
	if err := row.Scan(
		&s.ID, &s.FileName, &s.SizeBytes, &status, &s.TotalTransactions, &s.FlaggedCount,
		&score, &s.Error, &s.ArchiveURL, &s.ReportURL, &s.SubmittedAt, &s.CompletedAt,
	); err != nil {
		return nil, err
	}
	s.Status = domain.Status(status)
	s.RiskScore = floatPtr(score)
	return &s, nil
}

func (r *SubmissionRepository) Get(ctx context.Context, id string) (*domain.Submission, error) {
	s, err := scanSubmission(r.db.QueryRowContext(ctx, selectCols+` WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %s: %w", id, err)
	}
	return s, nil
}

// Latest entries, newest first
func (r *SubmissionRepository) Latest(ctx context.Context, limit int) ([]*domain.Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectCols+` ORDER BY completed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
