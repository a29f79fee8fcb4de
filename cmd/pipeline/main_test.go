package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/internal/store"
)

type env struct {
	dir        string
	configPath string
	history    string
}

// newEnv writes a config pointing at a temp warehouse, history db and input dir
func newEnv(t *testing.T, extra string) env {
	t.Helper()
	dir := t.TempDir()
	e := env{dir: dir, configPath: filepath.Join(dir, "pipeline.yaml"), history: filepath.Join(dir, "history.db")}
	cfg := fmt.Sprintf(`
input_path: %s
poke_interval: 10ms
wait_timeout: 30ms
history_path: %s
storage:
  driver: sqlite3
  dsn: %s
log:
  level: error
%s`, filepath.Join(dir, "consumption_{date}.csv"), e.history, filepath.Join(dir, "warehouse.db"), extra)
	require.NoError(t, os.WriteFile(e.configPath, []byte(cfg), 0o644))
	return e
}

func (e env) writeInput(t *testing.T, date string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("Category,Sub-Category,Month,Millions of Dollars\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Alcoholic beverages,Beer %d,05/03/2023,%d\n", i, i)
	}
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "Cereals and bakery products,Bread %d,05/03/2023,%d\n", i, i)
	}
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "Meats and poultry,Beef %d,05/03/2023,%d\n", i, i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "consumption_"+date+".csv"), []byte(b.String()), 0o644))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTablesCmd(t *testing.T) {
	out, err := runCLI(t, "tables", "--date", "2023-08-28")
	require.NoError(t, err)
	assert.Equal(t, "consumption_alcoholic_20230828\nconsumption_cereals_bakery_20230828\nconsumption_meats_poultry_20230828\n", out)

	out, err = runCLI(t, "tables", "--date", "20230828", "-o", "json")
	require.NoError(t, err)
	var tables []model.TableDescriptor
	require.NoError(t, json.Unmarshal([]byte(out), &tables))
	assert.Len(t, tables, 3)

	_, err = runCLI(t, "tables", "-o", "yaml")
	assert.Error(t, err)
}

func TestRunCmd_Success(t *testing.T) {
	e := newEnv(t, "")
	e.writeInput(t, "20230305")

	out, err := runCLI(t, "run", "-c", e.configPath, "--logical-date", "2023-03-05", "-o", "json")
	require.NoError(t, err)

	var report model.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Stages, 4)

	out, err = runCLI(t, "history", "-c", e.configPath, "-o", "json")
	require.NoError(t, err)
	var runs []model.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunSuccess, runs[0].Status)

	out, err = runCLI(t, "history", "-c", e.configPath, runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "consumption_alcoholic_20230305")
	assert.Contains(t, out, "transform_and_load")
}

func TestRunCmd_TimeoutExitCode(t *testing.T) {
	e := newEnv(t, "")

	_, err := runCLI(t, "run", "-c", e.configPath, "--logical-date", "2023-03-05")
	require.Error(t, err)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.code)
	assert.Contains(t, err.Error(), "failed at wait_for_file")

	out, err := runCLI(t, "history", "-c", e.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "failed")
}

func TestRunCmd_RefusesWhileAnotherRunIsActive(t *testing.T) {
	e := newEnv(t, "")
	e.writeInput(t, "20230305")

	ctx := context.Background()
	history, err := store.Open(ctx, e.history)
	require.NoError(t, err)
	require.NoError(t, history.StartRun(ctx, model.Run{ID: "stuck", LogicalTime: time.Now(), Attempt: 1}))
	require.NoError(t, history.Close())

	_, err = runCLI(t, "run", "-c", e.configPath, "--logical-date", "2023-03-05")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still running")

	_, err = runCLI(t, "run", "-c", e.configPath, "--logical-date", "2023-03-05", "--force")
	assert.NoError(t, err)
}

func TestRunCmd_InputOverride(t *testing.T) {
	e := newEnv(t, "rerun_policy: replace\n")
	e.writeInput(t, "20230305")
	custom := filepath.Join(e.dir, "custom.csv")
	require.NoError(t, os.Rename(filepath.Join(e.dir, "consumption_20230305.csv"), custom))

	_, err := runCLI(t, "run", "-c", e.configPath, "--logical-date", "2023-03-05", "--input", custom)
	require.NoError(t, err)
	_, err = runCLI(t, "run", "-c", e.configPath, "--logical-date", "2023-03-05", "--input", custom)
	require.NoError(t, err)

	out, err := runCLI(t, "history", "-c", e.configPath, "-o", "json", "-n", "1")
	require.NoError(t, err)
	var runs []model.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)

	out, err = runCLI(t, "history", "-c", e.configPath, "-o", "json", runs[0].ID)
	require.NoError(t, err)
	var run model.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	require.NotNil(t, run.Verification)
	assert.True(t, run.Verification.AllMatch(), "replace keeps counts stable across re-runs")
}
