package pipeline

import (
	"context"

	"go.uber.org/zap"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/internal/storage"
)

// PrepareSchema creates each target table if it does not exist. It never
// drops or truncates, so it is safe on every run.
func PrepareSchema(ctx context.Context, st storage.Store, tables []model.TableDescriptor, logger *zap.Logger) error {
	for _, t := range tables {
		if err := st.EnsureTable(ctx, t); err != nil {
			return connectivityError("create table "+t.Name, err)
		}
		logger.Debug("table ready", zap.String("table", t.Name))
	}
	logger.Info("🧱 schema prepared", zap.Int("tables", len(tables)))
	return nil
}
