package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"proof-of-portfolio/internal/reporting"
)

var (
	reportOut       string
	reportFromStore bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a Markdown and CSV evaluation report",
	Long: `Evaluates every miner in the snapshot and renders the score table,
risk-profile penalties and signal commitments. With --from-store the
latest stored evaluation of each snapshot miner is reported instead.

Example:
  pop report --out reports/
  pop report --store postgres --from-store`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write report.md and scores.csv here instead of printing Markdown")
	reportCmd.Flags().BoolVar(&reportFromStore, "from-store", false, "report stored evaluations without re-evaluating")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	gen := reporting.NewGenerator(a.evaluations, a.commitments)

	var r *reporting.Report
	if reportFromStore {
		if r, err = gen.Generate(ctx, snap.Hotkeys()); err != nil {
			return err
		}
	} else {
		portfolios, err := snap.Portfolios()
		if err != nil {
			return err
		}
		batch, err := a.evaluator.EvaluateBatch(ctx, portfolios, scoreOptions(), a.rt.Parallelism)
		if err != nil {
			return err
		}
		r = gen.FromBatch(batch)
	}

	if reportOut == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), reporting.RenderMarkdown(r))
		return err
	}
	if err := reporting.WriteFiles(reportOut, r); err != nil {
		return err
	}
	a.log.WithFields(map[string]interface{}{
		"dir":    reportOut,
		"miners": r.Summary.TotalMiners,
	}).Info("report written")
	return nil
}
