// Package memory keeps the submission journal in process memory. It is the
// default storage driver and the one tests use.
package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/bryanwahyu/auditor-console/internal/domain/submissions"
)

type SubmissionRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Submission
	max  int
}

// NewSubmissionRepository keeps at most max entries (0 means 500), evicting
// the oldest completed first.
func NewSubmissionRepository(max int) *SubmissionRepository {
	if max <= 0 {
		max = 500
	}
	return &SubmissionRepository{byID: make(map[string]*domain.Submission), max: max}
}

func (r *SubmissionRepository) Save(_ context.Context, s *domain.Submission) error {
	cp := *s
	if s.RiskScore != nil {
		v := *s.RiskScore
		cp.RiskScore = &v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = &cp
	if len(r.byID) > r.max {
		r.evictOldestLocked()
	}
	return nil
}

func (r *SubmissionRepository) Get(_ context.Context, id string) (*domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// Latest returns newest first by completion time.
func (r *SubmissionRepository) Latest(_ context.Context, limit int) ([]*domain.Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.RLock()
	out := make([]*domain.Submission, 0, len(r.byID))
	for _, s := range r.byID {
		cp := *s
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SubmissionRepository) evictOldestLocked() {
	var oldest *domain.Submission
	for _, s := range r.byID {
		if oldest == nil || s.CompletedAt.Before(oldest.CompletedAt) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(r.byID, oldest.ID)
	}
}
