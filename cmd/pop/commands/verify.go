package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"proof-of-portfolio/internal/verification"
)

var verifyEvaluationID string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-derive stored evaluations and check them field by field",
	Long: `Replays stored evaluations from the snapshot and compares every score,
the persisted daily return series and every Merkle path of the commitment.
With the memory store the snapshot is evaluated first, which makes verify
a self-consistency check.

Example:
  pop verify --store postgres --hotkey 5F...
  pop verify --store postgres --evaluation-id 3f2a...`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyEvaluationID, "evaluation-id", "", "verify a single evaluation")
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	v := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		Evaluator:        a.evaluator,
		Portfolios:       snap,
		EvaluationStore:  a.evaluations,
		CommitmentStore:  a.commitments,
		DailyReturnStore: a.dailyReturns,
		Logger:           a.log,
		Metrics:          a.metrics,
	})

	if verifyEvaluationID != "" {
		result, err := v.VerifyEvaluation(ctx, verifyEvaluationID)
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if !result.Match {
			return fmt.Errorf("evaluation %s diverged in %d fields", verifyEvaluationID, len(result.Divergences))
		}
		return nil
	}

	hotkeys := snap.Hotkeys()
	if hotkey != "" {
		hotkeys = []string{hotkey}
	}

	if a.rt.StoreBackend == "memory" {
		for _, k := range hotkeys {
			p, err := snap.Portfolio(k)
			if err != nil {
				return err
			}
			if _, err := a.evaluator.Evaluate(ctx, p, scoreOptions()); err != nil {
				return fmt.Errorf("evaluate %s: %w", k, err)
			}
		}
	}

	divergent := 0
	reports := make(map[string]*verification.VerificationReport, len(hotkeys))
	for _, k := range hotkeys {
		report, err := v.VerifyMiner(ctx, k)
		if err != nil {
			return err
		}
		reports[k] = report
		divergent += report.DivergentEvaluations
	}

	if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
		return err
	}
	if divergent > 0 {
		return fmt.Errorf("%d evaluations diverged", divergent)
	}
	return nil
}
