package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"consumption-pipeline/internal/pipeline"
	"consumption-pipeline/internal/storage"
	"consumption-pipeline/internal/store"
	"consumption-pipeline/pkg/utils"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		logicalDate string
		input       string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once for a logical date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			logicalTime, err := utils.ParseLogicalTime(logicalDate, time.Now())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			history, err := store.Open(ctx, cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer history.Close()

			active, err := history.ActiveRun(ctx)
			if err != nil {
				return err
			}
			if active != nil {
				if !force {
					return fmt.Errorf("run %s (logical time %s) is still running; use --force to start anyway",
						active.ID, active.LogicalTime.Format(time.RFC3339))
				}
				logger.Warn("starting while another run is marked running", zap.String("active_run", active.ID))
			}

			opts := cfg.PipelineOptions()
			if input != "" {
				opts.InputPath = input
			}
			runner := pipeline.NewRunner(
				storage.NewOpener(cfg.Storage.Driver, cfg.Storage.DSN),
				opts,
				pipeline.WithTracker(history),
				pipeline.WithLogger(logger),
			)

			run := runner.NewRun(logicalTime)
			report, err := pipeline.RunWithRetry(ctx, runner, run, cfg.Retry)
			if err != nil {
				return &exitError{code: pipeline.ExitCode(err), err: fmt.Errorf("run %s %s", run.ID, pipeline.Describe(err))}
			}

			if root.output == "json" {
				return printJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s succeeded in %s\n", run.ID, report.Elapsed)
			return nil
		},
	}

	cmd.Flags().StringVar(&logicalDate, "logical-date", "", "Logical date or timestamp of the run (default now)")
	cmd.Flags().StringVar(&input, "input", "", "Input path template, overrides input_path ({date} becomes YYYYMMDD)")
	cmd.Flags().BoolVar(&force, "force", false, "Start even if another run is marked running")

	return cmd
}
