package submissions

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no submission has the id.
var ErrNotFound = errors.New("submission not found")

// Repository port (persistence for the submission journal)
type Repository interface {
	Save(ctx context.Context, s *Submission) error
	Get(ctx context.Context, id string) (*Submission, error)
	Latest(ctx context.Context, limit int) ([]*Submission, error)
}

// ArtifactStore port (archive for uploaded files and reports)
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
