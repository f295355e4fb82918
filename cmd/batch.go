package main

import (
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/callaudit/internal/analyzer"
	"github.com/sells-group/callaudit/internal/model"
	"github.com/sells-group/callaudit/internal/transcript"
)

var batchForce bool

// batchCmd analyzes every session file in a directory. Sessions are
// independent, so they run in parallel; claims within one session are
// still checked sequentially by the verifier.
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyze every session telemetry file in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		paths, err := filepath.Glob(filepath.Join(args[0], "*.json"))
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			zap.L().Warn("batch: no session files found", zap.String("dir", args[0]))
			return nil
		}

		var verified, flagged, failed atomic.Int64

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentSessions)

		for _, path := range paths {
			g.Go(func() error {
				session, err := transcript.Load(path)
				if err != nil {
					zap.L().Error("batch: unreadable session file",
						zap.String("path", path),
						zap.Error(err),
					)
					failed.Add(1)
					return nil
				}

				analysis, err := env.Analyzer.Analyze(gCtx, session, analyzer.Options{Force: batchForce})
				if err != nil {
					zap.L().Error("batch: analysis failed",
						zap.String("session_id", session.ID),
						zap.Error(err),
					)
					failed.Add(1)
					return nil
				}

				if analysis.Verdict.Status == model.VerdictVerified {
					verified.Add(1)
				} else {
					flagged.Add(1)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch: done",
			zap.Int("sessions", len(paths)),
			zap.Int64("verified", verified.Load()),
			zap.Int64("flagged", flagged.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "bypass cached analyses")
	rootCmd.AddCommand(batchCmd)
}
