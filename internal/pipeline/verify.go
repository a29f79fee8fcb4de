package pipeline

import (
	"context"

	"go.uber.org/zap"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/internal/storage"
)

// VerifyCounts compares the produced count of each loaded table with its
// persisted row count. A mismatch is reported, not enforced.
func VerifyCounts(ctx context.Context, st storage.Store, load model.LoadResult, logger *zap.Logger) (model.VerificationResult, error) {
	result := model.VerificationResult{Tables: make([]model.TableVerification, 0, len(load.Tables))}

	for _, tc := range load.Tables {
		persisted, err := st.Count(ctx, tc.Table)
		if err != nil {
			return model.VerificationResult{}, connectivityError("count "+tc.Table, err)
		}

		v := model.TableVerification{
			Table:          tc.Table,
			ProducedCount:  tc.Count,
			PersistedCount: persisted,
			Match:          tc.Count == persisted,
		}
		if v.Match {
			logger.Info("🔎 row count verified",
				zap.String("table", v.Table),
				zap.Int64("count", v.PersistedCount))
		} else {
			logger.Warn("row count mismatch",
				zap.String("table", v.Table),
				zap.Int64("produced", v.ProducedCount),
				zap.Int64("persisted", v.PersistedCount))
		}
		result.Tables = append(result.Tables, v)
	}

	return result, nil
}
