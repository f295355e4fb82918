// Package store persists completed analyses and backs the orchestrator's
// time-boxed result cache.
package store

import (
	"context"
	"time"

	"github.com/sells-group/callaudit/internal/model"
)

// AnalysisFilter specifies criteria for listing analyses.
type AnalysisFilter struct {
	SessionID string              `json:"session_id,omitempty"`
	Status    model.VerdictStatus `json:"status,omitempty"`
	Limit     int                 `json:"limit,omitempty"`
	Offset    int                 `json:"offset,omitempty"`
}

// Store defines the persistence interface for session analyses.
type Store interface {
	// SaveAnalysis records a completed analysis.
	SaveAnalysis(ctx context.Context, analysis *model.Analysis) error

	// LatestAnalysis returns the most recent analysis for a session no
	// older than maxAge, or nil when none qualifies.
	LatestAnalysis(ctx context.Context, sessionID string, maxAge time.Duration) (*model.Analysis, error)

	// ListAnalyses returns stored analyses matching the filter, newest first.
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error)

	// DeleteOlderThan removes analyses past the retention window and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, age time.Duration) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
