// =============================================================================
// Trade Reconciliation - Main Entry Point
// =============================================================================
//
// USAGE:
//   reconciler run        - Reconcile the configured trades file
//   reconciler validate   - Check configuration and input headers
//   reconciler version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : parsing, reconciliation, outputs, config, logging, metrics
//   - pkg/       : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/trade-reconciliation/cmd"
)

func main() {
	cmd.Execute()
}
