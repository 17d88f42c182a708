package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invdash/internal/exporter"
	"invdash/internal/selection"
	"invdash/internal/services"
	"invdash/internal/shared/testutil"
)

var key = selection.SelectionKey{
	Agent:       selection.AgentBasestock,
	OrderType:   selection.OrderUpToLevelEq,
	Disruption:  selection.DisruptionShort,
	Sensitivity: selection.Sensitivity05,
}

func setup(t *testing.T) (dataDir, reportsDir string) {
	t.Helper()
	dataDir, reportsDir = t.TempDir(), t.TempDir()
	testutil.WriteWorkbook(t, selection.PathFor(dataDir, key),
		testutil.LongSheet("DS 1 state",
			[]interface{}{66, "Backlog", 2},
			[]interface{}{67, "Backlog", 6},
			[]interface{}{66, "Inventory", 20},
			[]interface{}{67, "Inventory", 12},
		),
	)
	t.Setenv("INVDASH_CONFIG", "")
	t.Setenv("INVDASH_PATHS_REPORTS_DIR", reportsDir)
	return dataDir, reportsDir
}

func baseArgs(dataDir string) []string {
	return []string{
		"-data", dataDir,
		"-agent", string(key.Agent),
		"-sensitivity", string(key.Sensitivity),
		"-disruption", string(key.Disruption),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "BOM prefix")
	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "defaults", args: nil},
		{name: "xlsx", args: []string{"-format", "xlsx"}},
		{name: "bad format", args: []string{"-format", "pdf"}, wantErr: "unknown format"},
		{name: "bad kind", args: []string{"-kind", "everything"}, wantErr: "unknown kind"},
		{name: "append to stdout", args: []string{"-append", "-out", "-"}, wantErr: "-append"},
		{name: "append xlsx", args: []string{"-append", "-format", "xlsx", "-out", "a.xlsx"}, wantErr: "-append"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSelectionsDefaultToEveryValue(t *testing.T) {
	opts, err := parseFlags([]string{"-disruption", "multiple (67-72, 110-116)", "-kind", "charts"})
	require.NoError(t, err)

	sel, err := opts.selections(selection.OrderUpToLevelHC1Trust)
	require.NoError(t, err)
	assert.Equal(t, selection.Agents, sel.Agents)
	assert.Equal(t, selection.Sensitivities, sel.Sensitivities)
	assert.Equal(t, []selection.Disruption{selection.DisruptionMultiple}, sel.Disruptions, "commas are kept")
	assert.Equal(t, selection.OrderUpToLevelHC1Trust, sel.OrderType)
	assert.Equal(t, selection.Metrics, sel.Metrics, "chart export needs metrics")

	opts, err = parseFlags([]string{"-agent", "PPO"})
	require.NoError(t, err)
	_, err = opts.selections(selection.OrderUpToLevelEq)
	assert.ErrorIs(t, err, selection.ErrUnknownValue)
}

func TestRunWritesAndAppendsCSV(t *testing.T) {
	dataDir, reportsDir := setup(t)
	args := append(baseArgs(dataDir), "-out", "summary.csv")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), args, &stdout))
	path := filepath.Join(reportsDir, "summary.csv")
	assert.Equal(t, path, strings.TrimSpace(stdout.String()))

	records := readCSV(t, path)
	require.Greater(t, len(records), 1)
	assert.Equal(t, exporter.SummaryHeaders, records[0])
	for _, r := range records[1:] {
		assert.Equal(t, string(key.Agent), r[0])
		assert.Equal(t, string(selection.MetricDS1State), r[3])
	}
	rows := len(records) - 1

	require.NoError(t, run(context.Background(), append(args, "-append"), &stdout))
	records = readCSV(t, path)
	assert.Len(t, records, 1+2*rows, "header written once")
}

func TestRunXLSX(t *testing.T) {
	dataDir, reportsDir := setup(t)

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), append(baseArgs(dataDir), "-format", "xlsx"), &stdout))

	path := strings.TrimSpace(stdout.String())
	assert.Equal(t, reportsDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "invdash-report-"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Rewards and time", "Skipped"}, f.GetSheetList())
}

func TestRunStdout(t *testing.T) {
	dataDir, _ := setup(t)

	var stdout bytes.Buffer
	args := append(baseArgs(dataDir), "-kind", services.ExportSkipped, "-metric", string(selection.MetricReward), "-out", "-")
	require.NoError(t, run(context.Background(), args, &stdout))
	assert.Contains(t, stdout.String(), string(selection.SkipMissingTable))
}

func TestRunListsSheets(t *testing.T) {
	dataDir, _ := setup(t)
	args := append(baseArgs(dataDir), "-disruption", string(selection.DisruptionLong), "-sheets")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), args, &stdout))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, selection.PathFor(dataDir, key)+": DS 1 state", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ": missing"), lines[1])
}

func TestRunRejectsUnknownValues(t *testing.T) {
	dataDir, _ := setup(t)
	err := run(context.Background(), []string{"-data", dataDir, "-sensitivity", "0.9"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, selection.ErrUnknownValue)
}
