// =============================================================================
// Trade Reconciliation - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It checks that a run would be
// able to start, without reading data rows or writing any output:
//   - the configuration loads and passes validation
//   - every input file opens and has a header line
//   - every header carries the columns its file needs
//
// COMMAND USAGE:
//   reconciler validate [--config config.yaml]
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/trade-reconciliation/internal/config"
	"github.com/ginjaninja78/trade-reconciliation/internal/source"
	"github.com/ginjaninja78/trade-reconciliation/internal/validation"
	"github.com/ginjaninja78/trade-reconciliation/pkg/utils"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and input file headers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateSetup(cfgFile, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateSetup loads the configuration and checks each input header,
// printing one line per input file to out.
func validateSetup(configPath string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	inputs := []struct {
		name    string
		path    string
		columns []string
	}{
		{"symbols", cfg.Read.SymbolsRefFile, validation.SymbolColumns},
		{"fills", cfg.Read.FillsFile, validation.FillColumns},
		{"trades", cfg.Read.TradesFile, validation.TradeColumns},
	}

	var failed []string
	for _, in := range inputs {
		if err := checkHeaders(in.path, in.columns); err != nil {
			fmt.Fprintf(out, "FAIL  %-8s %s: %v\n", in.name, in.path, err)
			failed = append(failed, in.name)
			continue
		}
		size, _ := utils.GetFileSize(in.path)
		fmt.Fprintf(out, "OK    %-8s %s (%d bytes)\n", in.name, in.path, size)
	}

	if len(failed) > 0 {
		return fmt.Errorf("invalid input files: %s", strings.Join(failed, ", "))
	}

	fmt.Fprintf(out, "Configuration %s is valid\n", configPath)
	return nil
}

func checkHeaders(path string, columns []string) error {
	src, err := source.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	if missing := validation.MissingColumns(src.Headers(), columns); len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
