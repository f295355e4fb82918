package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/callaudit/internal/analyzer"
	"github.com/sells-group/callaudit/internal/transcript"
)

var analyzeForce bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <session.json>",
	Short: "Analyze one session telemetry file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		session, err := transcript.Load(args[0])
		if err != nil {
			return err
		}

		analysis, err := env.Analyzer.Analyze(ctx, session, analyzer.Options{Force: analyzeForce})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "bypass the cached analysis")
	rootCmd.AddCommand(analyzeCmd)
}
