//go:build integration

package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/auditor-console/internal/domain/submissions"
)

func setupRepo(t *testing.T) *SubmissionRepository {
	t.Helper()
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set, skipping integration test")
	}
	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)

	repo := NewSubmissionRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, "DELETE FROM console_submissions")
		_ = db.Close()
	})
	return repo
}

func TestSubmissionRepository(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	score := 0.42
	ok := &domain.Submission{ID: "a", FileName: "spend.csv", SizeBytes: 12, Status: domain.StatusSucceeded,
		TotalTransactions: 100, FlaggedCount: 7, RiskScore: &score, SubmittedAt: t0, CompletedAt: t0.Add(time.Second)}
	failed := &domain.Submission{ID: "b", FileName: "q3.csv", Status: domain.StatusFailed,
		Error: "Upload failed", SubmittedAt: t0, CompletedAt: t0.Add(time.Minute)}

	require.NoError(t, repo.Save(ctx, ok))
	require.NoError(t, repo.Save(ctx, failed))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 7, got.FlaggedCount)
	require.NotNil(t, got.RiskScore)
	assert.InDelta(t, 0.42, *got.RiskScore, 1e-9)

	latest, err := repo.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "b", latest[0].ID)
	assert.Nil(t, latest[0].RiskScore)

	_, err = repo.Get(ctx, "zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
