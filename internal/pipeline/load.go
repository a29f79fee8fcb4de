package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/internal/storage"
)

// TransformAndLoad reads the input file, normalizes and partitions its rows,
// and appends each partition to its table. Every table gets an entry in the
// result, zero included. Rows whose category matches no table are counted in
// Unmatched and not loaded. Each table is committed on its own, so a failure
// part way returns the tables loaded so far and, when rows were already
// committed, a *LoadError carrying their number.
func TransformAndLoad(
	ctx context.Context,
	st storage.Store,
	fsys afero.Fs,
	path string,
	logicalTime time.Time,
	tables []model.TableDescriptor,
	policy model.RerunPolicy,
	logger *zap.Logger,
) (model.LoadResult, error) {
	rows, err := ReadConsumptionCSV(fsys, path)
	if err != nil {
		return model.LoadResult{}, err
	}

	records, stats := Normalize(rows, logicalTime)
	if stats.BadDates > 0 || stats.BadAmounts > 0 {
		logger.Warn("cells coerced to NULL",
			zap.Int("bad_dates", stats.BadDates),
			zap.Int("bad_amounts", stats.BadAmounts))
	}

	parts := Partition(records)
	result := model.LoadResult{
		Tables:    make([]model.TableCount, 0, len(tables)),
		Unmatched: int64(len(parts.Unmatched)),
	}

	for _, t := range tables {
		recs := parts.For(t.Category)
		produced := int64(len(recs))

		written, err := st.Append(ctx, t.Name, recs, policy)
		if err != nil {
			return result, partialLoad(result.Total(), connectivityError("append to "+t.Name, err))
		}
		if written != produced {
			result.Tables = append(result.Tables, model.TableCount{Table: t.Name, Count: written})
			return result, partialLoad(result.Total(),
				fmt.Errorf("%w: %s: wrote %d of %d rows", ErrConnectivity, t.Name, written, produced))
		}

		logger.Info("📥 table loaded",
			zap.String("table", t.Name),
			zap.Int64("rows", produced),
			zap.String("policy", string(policy)))
		result.Tables = append(result.Tables, model.TableCount{Table: t.Name, Count: produced})
	}

	if result.Unmatched > 0 {
		logger.Warn("rows dropped by category filter",
			zap.Int64("unmatched", result.Unmatched),
			zap.Strings("categories", unmatchedLabels(parts.Unmatched)))
	}

	logger.Info("✅ load complete",
		zap.Int("source_rows", len(records)),
		zap.Int64("loaded_rows", result.Total()),
		zap.Any("counts", result.AsMap()))
	return result, nil
}
