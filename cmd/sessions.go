package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/callaudit/internal/model"
	"github.com/sells-group/callaudit/internal/store"
)

var (
	sessionsStatus string
	sessionsLimit  int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored session analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("no store configured")
		}
		defer st.Close()

		analyses, err := st.ListAnalyses(ctx, store.AnalysisFilter{
			Status: model.VerdictStatus(sessionsStatus),
			Limit:  sessionsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tINTENT\tCOMPLETION\tVERDICT\tANALYZED")
		for _, a := range analyses {
			fmt.Fprintf(w, "%s\t%s\t%.0f%%\t%s\t%s\n",
				a.SessionID,
				a.Intent.Type,
				a.Sequence.CompletionRate*100,
				a.Verdict.Status,
				a.AnalyzedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsStatus, "status", "", "filter by verdict status")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 50, "maximum rows")
	rootCmd.AddCommand(sessionsCmd)
}
