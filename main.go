// =============================================================================
// Structure Dataset Builder - Main Entry Point
// =============================================================================
//
// USAGE:
//   structds build     - Build the dataset in every configured format
//   structds validate  - Build in memory and report, without writing
//   structds version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Pipeline, reference tables, catalog and assemblers
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/structure-dataset/cmd"
)

func main() {
	cmd.Execute()
}
