// Package commands implements the pop command tree.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile       string
	snapshotPath     string
	hotkey           string
	bypassConfidence bool
	weighted         bool
	storeBackend     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pop",
	Short: "Proof-of-portfolio risk metrics and signal commitments",
	Long: `pop scores miner portfolios from validator checkpoint snapshots and
commits to their trading signals with a fixed-depth Merkle tree.

Examples:
  pop score --snapshot validator_checkpoint.json --hotkey 5F...
  pop commit --hotkey 5F... --paths
  pop evaluate --all --report out/
  pop verify --hotkey 5F...
  pop serve --schedule "@every 1h"
  pop migrate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configFile, "config", "", "engine config YAML (default: built-in constants or $ENGINE_CONFIG)")
	f.StringVar(&snapshotPath, "snapshot", "validator_checkpoint.json", "validator checkpoint snapshot")
	f.StringVar(&hotkey, "hotkey", "", "miner hotkey (default: first hotkey in the snapshot)")
	f.BoolVar(&bypassConfidence, "bypass-confidence", false, "compute Sharpe below the minimum sample size")
	f.BoolVar(&weighted, "weighted", true, "apply recency-decay weighting")
	f.StringVar(&storeBackend, "store", "", "store backend: memory|postgres (default: $STORE_BACKEND)")
}
