// =============================================================================
// Trade Reconciliation - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reconciler)
//   ├── runCmd      (reconciler run)
//   ├── validateCmd (reconciler validate)
//   └── versionCmd  (reconciler version)
//
// EXIT CODES:
//   0  the command completed
//   1  bad flags, bad configuration, unreadable input or a fatal run error
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging when set.
var verbose bool

// errReported marks a failure that was already logged.
var errReported = errors.New("run failed")

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Trade Reconciliation - reconcile executed trades against reference data",
	Long: `Trade Reconciliation validates a file of executed trades against an
active-symbol master and a file of counterparty fill confirmations.

Every trade row ends up in exactly one place:
  - the cleaned trades output (JSON array), flagged when its fill disagrees
  - the exception report (JSON array), with a machine-readable reason
  - nowhere, when the trade is CANCELLED

Example Usage:
  reconciler run                       # Reconcile using ./config.yaml
  reconciler run --config ./prod.yaml  # Use a custom configuration file
  reconciler validate                  # Check configuration and input headers`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
