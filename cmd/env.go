package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/callaudit/internal/analyzer"
	"github.com/sells-group/callaudit/internal/fulfillment"
	"github.com/sells-group/callaudit/internal/intent"
	"github.com/sells-group/callaudit/internal/sequence"
	"github.com/sells-group/callaudit/internal/store"
	"github.com/sells-group/callaudit/pkg/anthropic"
	"github.com/sells-group/callaudit/pkg/pms"
)

// env bundles the wired pipeline for commands.
type env struct {
	Analyzer *analyzer.Analyzer
	Store    store.Store
}

func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initEnv wires the analyzer from configuration: vocabulary, provider
// client, system-of-record client, and the analysis store.
func initEnv(ctx context.Context) (*env, error) {
	vocab := sequence.DefaultVocabulary()
	if cfg.Pipeline.VocabularyPath != "" {
		v, err := sequence.LoadVocabulary(cfg.Pipeline.VocabularyPath)
		if err != nil {
			return nil, err
		}
		vocab = v
	}

	aiClient := anthropic.NewClient(cfg.Anthropic.Key)
	if !aiClient.Available() {
		zap.L().Warn("anthropic key not configured; intent classification will use the fallback classifier")
	}

	pmsClient := pms.NewClient(cfg.PMS.Key, cfg.PMS.BaseURL,
		pms.WithRateLimit(cfg.PMS.RequestsPerSecond),
	)

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	classifier := intent.NewClassifier(aiClient, cfg.Anthropic)
	verifier := fulfillment.NewVerifier(pmsClient, vocab, cfg.Pipeline.VerifyDelay())

	return &env{
		Analyzer: analyzer.New(classifier, verifier, vocab, st, cfg.Pipeline.CacheTTL()),
		Store:    st,
	}, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "none", "":
		return nil, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
