package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invdash/internal/frame"
	"invdash/internal/selection"
)

var key = selection.SelectionKey{
	Agent:       selection.AgentDRL,
	OrderType:   selection.OrderUpToLevelEq,
	Disruption:  selection.DisruptionShort,
	Sensitivity: selection.Sensitivity05,
}

func sampleOutcomes() []selection.Outcome {
	return []selection.Outcome{
		{
			Key:    key,
			Metric: selection.MetricDS1State,
			Frame: &frame.WideFrame{
				IndexCol: "Time",
				Category: "item",
				Index:    []int{41, 42},
				Columns:  []string{"Backlog"},
				Cells:    [][]frame.Cell{{frame.Number(10)}, {{}}},
			},
			Average: []frame.Cell{frame.Number(10), {}},
		},
		{
			Key:    key,
			Metric: selection.MetricReward,
			Skip:   &selection.SkipNotice{Key: key, Metric: selection.MetricReward, Reason: selection.SkipMissingTable},
		},
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "13.4", formatFloat(13.4))
	assert.Equal(t, "-2", formatFloat(-2))
	assert.Equal(t, "", formatCell(frame.Cell{}))
	assert.Equal(t, "0.5", formatCell(frame.Number(0.5)))
}

func TestOutcomeTable(t *testing.T) {
	headers, records := OutcomeTable(sampleOutcomes())
	assert.Equal(t, FrameHeaders, headers)
	require.Len(t, records, 4, "two cells and two averages; skipped outcome left out")
	assert.Equal(t, []string{"DRL", "UpToLevel_Eq", "0.5", "short (67-72)", "DS 1 state", "41", "Backlog", "10"}, records[0])
	assert.Equal(t, []string{"DRL", "UpToLevel_Eq", "0.5", "short (67-72)", "DS 1 state", "42", "Average", ""}, records[3])
}

func TestSummaryAndSkipTables(t *testing.T) {
	_, records := SummaryTable([]selection.SummaryRow{{
		Agent: selection.AgentDRL, Scenario: selection.Sensitivity01, Disruption: selection.DisruptionNone,
		Entity: "DS 1 state", Item: "Backlog", Statistic: "mean", Value: frame.Number(12),
	}})
	assert.Equal(t, [][]string{{"DRL", "0.1", "No disruption", "DS 1 state", "Backlog", "mean", "12"}}, records)

	_, skips := SkipTable([]selection.SkipNotice{*sampleOutcomes()[1].Skip})
	require.Len(t, skips, 1)
	assert.Equal(t, "missing_table", skips[0][5])
}

func TestCSVWriterWritesBOMAndAppends(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteSimpleCSV("out/summary.csv", []string{"a", "b"}, [][]string{{"1", "x,y"}}))
	require.NoError(t, w.AppendToCSV("out/summary.csv", [][]string{{"2", "z"}}))

	content, err := os.ReadFile(filepath.Join(dir, "out", "summary.csv"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, utf8BOM))

	rows, err := csv.NewReader(bytes.NewReader(content[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "x,y"}, {"2", "z"}}, rows)
}

func TestWriteToStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, WriteOptions{Headers: []string{"h"}, Records: [][]string{{"v"}}}))
	assert.Equal(t, "h\nv\n", buf.String())
}

func TestXLSXWriter(t *testing.T) {
	headers, records := OutcomeTable(sampleOutcomes())
	sh, srecords := SkipTable([]selection.SkipNotice{*sampleOutcomes()[1].Skip})

	var buf bytes.Buffer
	err := NewXLSXWriter().Write(&buf,
		Table{Name: "Charts", Headers: headers, Records: records},
		Table{Name: "Skipped: [missing]", Headers: sh, Records: srecords},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Charts", "Skipped_ _missing_"}, f.GetSheetList())
	rows, err := f.GetRows("Charts")
	require.NoError(t, err)
	assert.Equal(t, FrameHeaders, rows[0])
	assert.Equal(t, "10", rows[1][7])

	err = NewXLSXWriter().Write(&buf)
	assert.Error(t, err)
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)
	first := uniqueSheetName(long, used)
	second := uniqueSheetName(long, used)
	assert.Len(t, first, 31)
	assert.Len(t, second, 31)
	assert.True(t, strings.HasSuffix(second, " (2)"))
	assert.Equal(t, "Sheet", uniqueSheetName("  ", used))
}
