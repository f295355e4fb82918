package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/callaudit/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testAnalysis(id, sessionID string, verdict model.VerdictStatus, analyzedAt time.Time) *model.Analysis {
	return &model.Analysis{
		ID:        id,
		SessionID: sessionID,
		Intent:    model.CallerIntent{Type: model.IntentBooking, Confidence: 0.9},
		Sequence:  model.ToolSequenceResult{IntentType: model.IntentBooking, CompletionRate: 1.0},
		Verdict: model.FulfillmentVerdict{
			Status:     verdict,
			Summary:    "summary",
			VerifiedAt: analyzedAt,
		},
		AnalyzedAt: analyzedAt,
	}
}

func TestSQLite_SaveAndLatest(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a-old", "s1", model.VerdictFailed, now.Add(-2*time.Hour))))
	require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a-new", "s1", model.VerdictVerified, now)))

	got, err := s.LatestAnalysis(ctx, "s1", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a-new", got.ID)
	assert.Equal(t, model.VerdictVerified, got.Verdict.Status)
	assert.Equal(t, model.IntentBooking, got.Intent.Type)
}

func TestSQLite_LatestIgnoresStaleAndOtherSessions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAnalysis(ctx,
		testAnalysis("a-1", "s1", model.VerdictVerified, time.Now().UTC().Add(-2*time.Hour))))

	got, err := s.LatestAnalysis(ctx, "s1", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.LatestAnalysis(ctx, "unknown-session", 24*time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ListAnalyses(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a-1", "s1", model.VerdictVerified, now.Add(-3*time.Minute))))
	require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a-2", "s1", model.VerdictPartial, now.Add(-2*time.Minute))))
	require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a-3", "s2", model.VerdictVerified, now.Add(-time.Minute))))

	all, err := s.ListAnalyses(ctx, AnalysisFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "a-3", all[0].ID)

	bySession, err := s.ListAnalyses(ctx, AnalysisFilter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, bySession, 2)

	byStatus, err := s.ListAnalyses(ctx, AnalysisFilter{Status: model.VerdictPartial})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "a-2", byStatus[0].ID)

	limited, err := s.ListAnalyses(ctx, AnalysisFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	offset, err := s.ListAnalyses(ctx, AnalysisFilter{Limit: 10, Offset: 2})
	require.NoError(t, err)
	require.Len(t, offset, 1)
	assert.Equal(t, "a-1", offset[0].ID)
}

func TestSQLite_DeleteOlderThan(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a-old1", "s1", model.VerdictFailed, now.Add(-48*time.Hour))))
	require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a-old2", "s2", model.VerdictFailed, now.Add(-30*time.Hour))))
	require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a-fresh", "s3", model.VerdictVerified, now)))

	n, err := s.DeleteOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining, err := s.ListAnalyses(ctx, AnalysisFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "a-fresh", remaining[0].ID)
}
