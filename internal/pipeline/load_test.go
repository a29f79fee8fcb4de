package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/internal/storage"
)

const inputPath = "/data/rawdata/consumption_20230305.csv"

var standardCounts = map[string]int{
	model.CategoryAlcoholic.Label:     10,
	model.CategoryCerealsBakery.Label: 5,
	model.CategoryMeatsPoultry.Label:  3,
	"Dairy":                           2,
}

func openSQLite(t *testing.T) (storage.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warehouse.db")
	st, err := storage.Open(context.Background(), storage.DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func loadOnce(t *testing.T, st storage.Store, fs afero.Fs, policy model.RerunPolicy) model.LoadResult {
	t.Helper()
	ctx := context.Background()
	tables := model.TablesFor(testLogicalTime)
	require.NoError(t, PrepareSchema(ctx, st, tables, zap.NewNop()))
	res, err := TransformAndLoad(ctx, st, fs, inputPath, testLogicalTime, tables, policy, zap.NewNop())
	require.NoError(t, err)
	return res
}

func TestTransformAndLoad_SQLite(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, inputPath, consumptionCSV(standardCounts))
	st, dbPath := openSQLite(t)

	res := loadOnce(t, st, fs, model.RerunAppend)

	assert.Equal(t, []model.TableCount{
		{Table: "consumption_alcoholic_20230305", Count: 10},
		{Table: "consumption_cereals_bakery_20230305", Count: 5},
		{Table: "consumption_meats_poultry_20230305", Count: 3},
	}, res.Tables)
	assert.Equal(t, int64(2), res.Unmatched)

	for _, tc := range res.Tables {
		n, err := st.Count(context.Background(), tc.Table)
		require.NoError(t, err)
		assert.Equal(t, tc.Count, n, tc.Table)
	}

	db, err := sql.Open(storage.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer db.Close()

	var distinct int
	require.NoError(t, db.QueryRow(`SELECT COUNT(DISTINCT pipeline_exc_datetime) FROM consumption_alcoholic_20230305`).Scan(&distinct))
	assert.Equal(t, 1, distinct, "one timestamp per run")

	var others int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM consumption_alcoholic_20230305 WHERE category <> 'Alcoholic beverages'`).Scan(&others))
	assert.Zero(t, others)
}

func TestTransformAndLoad_AppendTwiceDoublesRows(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, inputPath, consumptionCSV(standardCounts))
	st, _ := openSQLite(t)

	loadOnce(t, st, fs, model.RerunAppend)
	second := loadOnce(t, st, fs, model.RerunAppend)

	n, err := st.Count(context.Background(), "consumption_alcoholic_20230305")
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)

	v, err := VerifyCounts(context.Background(), st, second, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, v.AllMatch(), "a second append for the same date duplicates rows")
}

func TestTransformAndLoad_ReplaceIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, inputPath, consumptionCSV(standardCounts))
	st, _ := openSQLite(t)

	loadOnce(t, st, fs, model.RerunReplace)
	second := loadOnce(t, st, fs, model.RerunReplace)

	v, err := VerifyCounts(context.Background(), st, second, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, v.AllMatch())
	assert.Equal(t, int64(10), v.Tables[0].PersistedCount)
}

func TestTransformAndLoad_HeaderOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, inputPath, csvHeader+"\n")
	st := newFakeStore()

	res := loadOnce(t, st, fs, model.RerunAppend)
	require.Len(t, res.Tables, 3)
	assert.Zero(t, res.Total())
	assert.Zero(t, res.Unmatched)
}

func TestTransformAndLoad_BadCellsKeepRows(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, inputPath, csvHeader+"\n"+
		"Alcoholic beverages,Wine,not-a-date,12\n"+
		"Alcoholic beverages,Beer,05/03/2023,lots\n")
	st := newFakeStore()

	res := loadOnce(t, st, fs, model.RerunAppend)
	c, ok := res.Count("consumption_alcoholic_20230305")
	require.True(t, ok)
	assert.Equal(t, int64(2), c)
}

func TestTransformAndLoad_Errors(t *testing.T) {
	ctx := context.Background()
	tables := model.TablesFor(testLogicalTime)

	t.Run("missing column", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, inputPath, "Category,Sub-Category,Month\n")
		st := newFakeStore()
		require.NoError(t, PrepareSchema(ctx, st, tables, zap.NewNop()))

		_, err := TransformAndLoad(ctx, st, fs, inputPath, testLogicalTime, tables, model.RerunAppend, zap.NewNop())
		assert.ErrorIs(t, err, ErrDataFormat)
		assert.Zero(t, st.rows["consumption_alcoholic_20230305"])
	})

	t.Run("append failure", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, inputPath, consumptionCSV(standardCounts))
		st := newFakeStore()
		require.NoError(t, PrepareSchema(ctx, st, tables, zap.NewNop()))
		st.appendErr = errors.New("connection reset")

		_, err := TransformAndLoad(ctx, st, fs, inputPath, testLogicalTime, tables, model.RerunAppend, zap.NewNop())
		assert.ErrorIs(t, err, ErrConnectivity)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Zero(t, AppendedRows(err))
	})

	t.Run("failure after first table keeps partial result", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, inputPath, consumptionCSV(standardCounts))
		st := newFakeStore()
		require.NoError(t, PrepareSchema(ctx, st, tables, zap.NewNop()))
		st.failTable = map[string]int{"consumption_cereals_bakery_20230305": 1}

		res, err := TransformAndLoad(ctx, st, fs, inputPath, testLogicalTime, tables, model.RerunAppend, zap.NewNop())
		assert.ErrorIs(t, err, ErrConnectivity)
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, int64(10), le.Appended)
		c, ok := res.Count("consumption_alcoholic_20230305")
		require.True(t, ok)
		assert.Equal(t, int64(10), c)
		_, ok = res.Count("consumption_cereals_bakery_20230305")
		assert.False(t, ok)
	})

	t.Run("short write", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, inputPath, consumptionCSV(standardCounts))
		st := newFakeStore()
		require.NoError(t, PrepareSchema(ctx, st, tables, zap.NewNop()))
		st.shortBy = 1

		_, err := TransformAndLoad(ctx, st, fs, inputPath, testLogicalTime, tables, model.RerunAppend, zap.NewNop())
		assert.ErrorIs(t, err, ErrConnectivity)
		assert.Contains(t, err.Error(), "wrote 9 of 10 rows")
		assert.Equal(t, int64(9), AppendedRows(err))
	})
}

func TestPrepareSchema(t *testing.T) {
	ctx := context.Background()
	tables := model.TablesFor(testLogicalTime)

	st := newFakeStore()
	require.NoError(t, PrepareSchema(ctx, st, tables, zap.NewNop()))
	require.NoError(t, PrepareSchema(ctx, st, tables, zap.NewNop()))
	assert.Len(t, st.tables, 3)

	failing := newFakeStore()
	failing.ensureErr = errors.New("dial tcp: refused")
	err := PrepareSchema(ctx, failing, tables, zap.NewNop())
	assert.ErrorIs(t, err, ErrConnectivity)
	assert.Contains(t, err.Error(), "consumption_alcoholic_20230305")
}
