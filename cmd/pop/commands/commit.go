package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	commitPaths   bool
	commitWitness string
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Encode the miner's orders and build the signal commitment",
	Long: `Encodes every open/close order pair into signals, pads them to capacity
and prints the Merkle root. With --witness the full circuit input set
(checkpoints, daily returns, roots, signals, fixed-point score) is written
to a JSON file.

Example:
  pop commit --hotkey 5F... --paths
  pop commit --witness witness.json`,
	RunE: runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)
	commitCmd.Flags().BoolVar(&commitPaths, "paths", false, "include every Merkle path")
	commitCmd.Flags().StringVar(&commitWitness, "witness", "", "write circuit inputs to this file")
}

type commitOutput struct {
	MinerHotkey    string     `json:"miner_hotkey"`
	Root           string     `json:"root"`
	HashFunc       string     `json:"hash_func"`
	Depth          int        `json:"depth"`
	ActualLen      int        `json:"actual_len"`
	Capacity       int        `json:"capacity"`
	TruncatedPairs int        `json:"truncated_pairs"`
	UnpairedOrders int        `json:"unpaired_orders"`
	TradePairs     []string   `json:"trade_pairs,omitempty"`
	PathElements   [][]string `json:"path_elements,omitempty"`
	PathIndices    [][]int    `json:"path_indices,omitempty"`
}

func runCommit(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := selectedPortfolio()
	if err != nil {
		return err
	}

	set, c, err := a.evaluator.BuildSignalCommitment(p.MinerHotkey, p.Positions)
	if err != nil {
		return err
	}

	out := commitOutput{
		MinerHotkey:    p.MinerHotkey,
		Root:           c.Root.String(),
		HashFunc:       c.HashFunc,
		Depth:          c.Depth,
		ActualLen:      c.ActualLen,
		Capacity:       c.Capacity(),
		TruncatedPairs: set.TruncatedPairs,
		UnpairedOrders: set.UnpairedOrders,
		TradePairs:     set.TradePairs,
	}
	if commitPaths {
		out.PathElements, out.PathIndices = c.PathFields()
	}

	if commitWitness != "" {
		res, err := a.evaluator.Replay(cmd.Context(), p, scoreOptions())
		if err != nil {
			return err
		}
		w, err := a.evaluator.CircuitWitness(p, res)
		if err != nil {
			return err
		}
		if err := writeJSONFile(commitWitness, w); err != nil {
			return fmt.Errorf("write witness: %w", err)
		}
		a.log.WithField("path", commitWitness).Info("circuit witness written")
	}

	return writeJSON(cmd.OutOrStdout(), out)
}
