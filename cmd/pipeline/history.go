package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"consumption-pipeline/internal/config"
	"consumption-pipeline/internal/store"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent runs, or one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}

			history, err := store.Open(cmd.Context(), cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer history.Close()

			out := cmd.OutOrStdout()

			if len(args) == 1 {
				run, err := history.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if root.output == "json" {
					return printJSON(out, run)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "ID\t%s\n", run.ID)
				fmt.Fprintf(tw, "LOGICAL TIME\t%s\n", run.LogicalTime.Format(time.RFC3339))
				fmt.Fprintf(tw, "STATUS\t%s\n", run.Status)
				fmt.Fprintf(tw, "ATTEMPT\t%d\n", run.Attempt)
				if run.Error != "" {
					fmt.Fprintf(tw, "ERROR\t%s\n", run.Error)
				}
				fmt.Fprintln(tw)
				fmt.Fprintln(tw, "STAGE\tSTATUS\tDURATION")
				for _, s := range run.Stages {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Stage, s.Status, s.Duration())
				}
				if run.Verification != nil {
					fmt.Fprintln(tw)
					fmt.Fprintln(tw, "TABLE\tPRODUCED\tPERSISTED\tMATCH")
					for _, v := range run.Verification.Tables {
						fmt.Fprintf(tw, "%s\t%d\t%d\t%t\n", v.Table, v.ProducedCount, v.PersistedCount, v.Match)
					}
				}
				return tw.Flush()
			}

			runs, err := history.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if root.output == "json" {
				return printJSON(out, runs)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLOGICAL DATE\tSTATUS\tATTEMPT\tUPDATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.LogicalTime.Format("2006-01-02"), r.Status, r.Attempt, r.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")

	return cmd
}
