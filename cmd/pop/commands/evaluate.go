package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"proof-of-portfolio/internal/api"
	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/reporting"
)

var (
	evaluateAll       bool
	evaluateReportDir string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score, commit and persist portfolios",
	Long: `Runs the full evaluation (daily returns, scores, signal commitment) for
one miner, or for every miner in the snapshot with --all, and persists the
records to the configured store.

Example:
  pop evaluate --hotkey 5F...
  pop evaluate --all --store postgres --report out/`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&evaluateAll, "all", false, "evaluate every miner in the snapshot")
	evaluateCmd.Flags().StringVar(&evaluateReportDir, "report", "", "write report.md and scores.csv to this directory")
}

type evaluateOutput struct {
	RunID    string                 `json:"run_id"`
	Results  []api.EvaluateResponse `json:"results"`
	Failures map[string]string      `json:"failures,omitempty"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
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

	var portfolios []domain.Portfolio
	if evaluateAll {
		if portfolios, err = snap.Portfolios(); err != nil {
			return err
		}
	} else {
		p, err := snap.Portfolio(hotkey)
		if err != nil {
			return err
		}
		portfolios = []domain.Portfolio{p}
	}

	batch, err := a.evaluator.EvaluateBatch(ctx, portfolios, scoreOptions(), a.rt.Parallelism)
	if err != nil {
		return err
	}

	out := evaluateOutput{RunID: batch.RunID}
	for _, res := range batch.Results {
		if res != nil {
			out.Results = append(out.Results, api.NewEvaluateResponse(res))
		}
	}
	if len(batch.Errors) > 0 {
		out.Failures = make(map[string]string, len(batch.Errors))
		for miner, err := range batch.Errors {
			out.Failures[miner] = err.Error()
		}
	}

	if evaluateReportDir != "" {
		r := reporting.NewGenerator(a.evaluations, a.commitments).FromBatch(batch)
		if err := reporting.WriteFiles(evaluateReportDir, r); err != nil {
			return err
		}
		a.log.WithField("dir", evaluateReportDir).Info("report written")
	}

	if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if len(out.Failures) > 0 {
		return fmt.Errorf("%d of %d evaluations failed", len(out.Failures), len(portfolios))
	}
	return nil
}
