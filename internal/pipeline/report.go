package pipeline

import (
	"time"

	"go.uber.org/zap"

	"consumption-pipeline/internal/model"
)

// BuildRunReport derives the run report from stage durations given in stage
// order. On ties the earlier stage wins for both longest and shortest.
func BuildRunReport(start, end time.Time, durations []model.StageDuration) model.RunReport {
	report := model.RunReport{
		StartTime: start,
		EndTime:   end,
		Elapsed:   end.Sub(start),
		Stages:    append([]model.StageDuration(nil), durations...),
	}
	if len(durations) == 0 {
		return report
	}

	longest, shortest := durations[0], durations[0]
	for _, d := range durations[1:] {
		if d.Duration > longest.Duration {
			longest = d
		}
		if d.Duration < shortest.Duration {
			shortest = d
		}
	}
	report.Longest = &longest
	report.Shortest = &shortest
	return report
}

// LogRunReport writes the report to the operator log
func LogRunReport(logger *zap.Logger, report model.RunReport) {
	logger.Info("📋 run information",
		zap.String("run_id", report.RunID),
		zap.Time("logical_time", report.LogicalTime),
		zap.Time("start", report.StartTime),
		zap.Time("end", report.EndTime),
		zap.Duration("elapsed", report.Elapsed))

	for _, d := range report.Stages {
		logger.Info("stage duration", zap.String("stage", d.Stage), zap.Duration("duration", d.Duration))
	}

	if report.Longest != nil {
		logger.Info("⏱️ longest stage", zap.String("stage", report.Longest.Stage), zap.Duration("duration", report.Longest.Duration))
	}
	if report.Shortest != nil {
		logger.Info("⚡ shortest stage", zap.String("stage", report.Shortest.Stage), zap.Duration("duration", report.Shortest.Duration))
	}
}
