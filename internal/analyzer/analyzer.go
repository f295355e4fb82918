// Package analyzer sequences the analysis pipeline for one session:
// intent classification, tool-sequence mapping, fulfillment verification.
package analyzer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/callaudit/internal/fulfillment"
	"github.com/sells-group/callaudit/internal/intent"
	"github.com/sells-group/callaudit/internal/model"
	"github.com/sells-group/callaudit/internal/sequence"
	"github.com/sells-group/callaudit/internal/store"
	"github.com/sells-group/callaudit/internal/transcript"
)

// Analyzer runs the three-stage pipeline and caches results through the
// store. Stages run strictly in order: both downstream stages consume
// the classified intent.
type Analyzer struct {
	classifier *intent.Classifier
	verifier   *fulfillment.Verifier
	vocab      sequence.Vocabulary
	store      store.Store // nil disables caching and persistence
	cacheTTL   time.Duration
}

// Options alter a single Analyze call.
type Options struct {
	// Force bypasses the cached analysis and reruns the pipeline.
	Force bool
}

// New creates an analyzer. Store may be nil for one-shot runs.
func New(classifier *intent.Classifier, verifier *fulfillment.Verifier, vocab sequence.Vocabulary, st store.Store, cacheTTL time.Duration) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		verifier:   verifier,
		vocab:      vocab,
		store:      st,
		cacheTTL:   cacheTTL,
	}
}

// Analyze produces an Analysis for the session, using a cached one when
// fresh enough. The pipeline itself never fails; only cache reads can
// return an error here.
func (a *Analyzer) Analyze(ctx context.Context, session *transcript.Session, opts Options) (*model.Analysis, error) {
	if a.store != nil && !opts.Force {
		cached, err := a.store.LatestAnalysis(ctx, session.ID, a.cacheTTL)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			zap.L().Debug("analyze: returning cached analysis",
				zap.String("session_id", session.ID),
				zap.Time("analyzed_at", cached.AnalyzedAt),
			)
			return cached, nil
		}
	}

	started := time.Now()

	ci := a.classifier.Classify(ctx, session.Turns)
	if ci.Type == model.IntentBooking {
		claims := fulfillment.ExtractClaims(session.Observations, a.vocab)
		ci = intent.Enhance(ci, claims)
	}

	seq := sequence.Map(ci, session.Observations, a.vocab)
	verdict := a.verifier.Verify(ctx, session.Observations, ci)

	analysis := &model.Analysis{
		ID:         uuid.New().String(),
		SessionID:  session.ID,
		Intent:     ci,
		Sequence:   seq,
		Verdict:    verdict,
		AnalyzedAt: time.Now().UTC(),
	}

	zap.L().Info("analyze: session analyzed",
		zap.String("session_id", session.ID),
		zap.String("intent", string(ci.Type)),
		zap.Float64("completion_rate", seq.CompletionRate),
		zap.String("verdict", string(verdict.Status)),
		zap.Duration("took", time.Since(started)),
	)

	if a.store != nil {
		if err := a.store.SaveAnalysis(ctx, analysis); err != nil {
			zap.L().Warn("analyze: failed to persist analysis",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		}
	}

	return analysis, nil
}
