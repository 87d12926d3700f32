package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the processed-file ledger",
}

// -- ledger list --

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print recorded input files as <digest> <file> lines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		if kind != "daily" && kind != "weekly" {
			return eris.Errorf("ledger list: --kind must be daily or weekly, got %q", kind)
		}

		l, err := initLedger(cmd.Context(), cfg, kind, "")
		if err != nil {
			return eris.Wrap(err, "ledger list")
		}
		defer l.Close() //nolint:errcheck

		out := cmd.OutOrStdout()
		for _, e := range l.Entries() {
			fmt.Fprintln(out, ledger.FormatLine(e))
		}
		return nil
	},
}

func init() {
	ledgerListCmd.Flags().String("kind", "daily", "report kind: daily or weekly")
	ledgerCmd.AddCommand(ledgerListCmd)
	rootCmd.AddCommand(ledgerCmd)
}
