package commands

import (
	"github.com/spf13/cobra"

	"proof-of-portfolio/internal/api"
	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/metrics"
)

var scoreFixed bool

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Reduce a ledger to daily returns and score it",
	Long: `Reduces the miner's checkpoints to daily log returns and prints every
metric with the composite score. Nothing is persisted.

Example:
  pop score --hotkey 5F... --fixed`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().BoolVar(&scoreFixed, "fixed", false, "include the fixed-point scores")
}

type scoreOutput struct {
	MinerHotkey          string               `json:"miner_hotkey"`
	DailyReturns         []float64            `json:"daily_returns"`
	TruncatedCheckpoints int                  `json:"truncated_checkpoints"`
	Scores               api.ScoreView        `json:"scores"`
	Fixed                *metrics.FixedScores `json:"fixed,omitempty"`
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := selectedPortfolio()
	if err != nil {
		return err
	}

	reduction := a.evaluator.ReduceToDailyReturns(p.Ledger)
	returns := domain.DailyReturnValues(reduction.Returns)
	out := scoreOutput{
		MinerHotkey:          p.MinerHotkey,
		DailyReturns:         returns,
		TruncatedCheckpoints: reduction.Truncated,
		Scores:               api.NewScoreView(a.evaluator.ComputeScores(returns, p.Positions, scoreOptions())),
	}
	if scoreFixed {
		fp := metrics.NewFixedPoint(a.cfg)
		fixed := fp.Score(metrics.ComputeQuantities(returns, p.Positions, scoreOptions(), a.cfg))
		out.Fixed = &fixed
	}
	return writeJSON(cmd.OutOrStdout(), out)
}
