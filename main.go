// =============================================================================
// Ledger Consolidation - Main Entry Point
// =============================================================================
//
// USAGE:
//   consolidator edit                - Open the interactive form
//   consolidator submit FILE         - Submit a batch file
//   consolidator report LEDGER_CODE  - Show the consolidated view of a ledger
//   consolidator version             - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core workflow and its infrastructure
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ledger-consolidation/cmd"
)

func main() {
	cmd.Execute()
}
