package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/pkg/utils"
)

func newTablesCmd(root *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Print the target table names for a logical date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logicalTime, err := utils.ParseLogicalTime(date, time.Now())
			if err != nil {
				return err
			}
			tables := model.TablesFor(logicalTime)
			if root.output == "json" {
				return printJSON(cmd.OutOrStdout(), tables)
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), t.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Logical date (default today)")

	return cmd
}
