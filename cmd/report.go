package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	dailyForce  bool
	weeklyForce bool
)

var dailyCmd = &cobra.Command{
	Use:   "daily [file.json]",
	Short: "Build daily coverage reports",
	Long:  "Folds unprocessed export files into one report per publication day (DD-MM-YYYY.json).",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, "daily", args, dailyForce)
	},
}

var weeklyCmd = &cobra.Command{
	Use:   "weekly [file.json]",
	Short: "Build weekly coverage reports",
	Long:  "Folds unprocessed export files into one report per week, with per-weekday entity tallies when enabled.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, "weekly", args, weeklyForce)
	},
}

func init() {
	dailyCmd.Flags().BoolVar(&dailyForce, "force", false, "fold files the ledger already lists")
	weeklyCmd.Flags().BoolVar(&weeklyForce, "force", false, "fold files the ledger already lists")
	rootCmd.AddCommand(dailyCmd, weeklyCmd)
}

func runReport(cmd *cobra.Command, kind string, args []string, force bool) error {
	ctx := cmd.Context()
	req := runRequest{Kind: kind, Force: force}
	if len(args) == 1 {
		req.File = args[0]
	}

	env, err := initRun(ctx, cfg, req)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.Runner.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d processed, %d skipped, %d failed, %d reports written\n",
		res.RunID, len(res.Processed), len(res.Skipped), len(res.Failed), len(res.Reports))
	for _, p := range res.Reports {
		fmt.Fprintln(out, p)
	}
	return res.Err()
}
