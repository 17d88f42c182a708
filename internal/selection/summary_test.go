package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invdash/internal/shared/testutil"
)

func findRow(rows []SummaryRow, entity, item, stat string) (SummaryRow, bool) {
	for _, r := range rows {
		if r.Entity == entity && r.Item == item && r.Statistic == stat {
			return r, true
		}
	}
	return SummaryRow{}, false
}

func writeScenario(t *testing.T, dir string) {
	testutil.WriteWorkbook(t, PathFor(dir, baseKey),
		testutil.LongSheet("DS 1 state",
			[]interface{}{30, "Backlog", 1000},
			[]interface{}{41, "Backlog", 10}, []interface{}{41, "Order", 2}, []interface{}{41, "Lead-time", 2},
			[]interface{}{42, "Backlog", 12}, []interface{}{42, "Order", 4}, []interface{}{42, "Lead-time", 4},
			[]interface{}{43, "Backlog", 14}, []interface{}{43, "Order", 6}, []interface{}{43, "Lead-time", 6},
		),
		testutil.LongSheet("HC 1 trust",
			[]interface{}{41, "DS 1", 1}, []interface{}{42, "DS 1", 2}, []interface{}{43, "DS 1", 3},
			[]interface{}{44, "DS 1", 4}, []interface{}{45, "DS 1", 5},
		),
		testutil.LongSheet("HC 1 shipments",
			[]interface{}{41, "Shipment", 3}, []interface{}{42, "Shipment", 5},
		),
		testutil.Sheet{Name: "Reward", Rows: [][]interface{}{
			{"Time", "item", "Value", "Agent"},
			{41, "Reward", -4, "DS 1"},
			{41, "Reward", -8, "DS 2"},
			{42, "Reward", -2, "DS 1"},
			{42, "Reward", -6, "DS 2"},
		}},
	)
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir)

	report, err := newTestPipeline(t, dir).Summarize(context.Background(), single())
	require.NoError(t, err)

	check := func(entity, item, stat string, want float64) {
		t.Helper()
		r, ok := findRow(report.Rows, entity, item, stat)
		require.True(t, ok, "%s/%s/%s", entity, item, stat)
		require.True(t, r.Value.Valid)
		assert.InDelta(t, want, r.Value.Value, 1e-9, "%s/%s/%s", entity, item, stat)
		assert.Equal(t, AgentBasestock, r.Agent)
		assert.Equal(t, Sensitivity01, r.Scenario)
	}

	check("DS 1 state", "Backlog", "mean", 12)
	check("DS 1 state", "Backlog", "std", 2)
	check("DS 1 state", "Order", "mean", 4)
	check("DS 1 state", "Order", "mad", 4.0/3.0)
	check("DS 1 state", "Lead-time", "cv", 0.5)
	check("HC 1 trust", "DS 1", "median", 3)
	check("HC 1 trust", "DS 1", "q1", 1.5)
	check("HC 1 trust", "DS 1", "max", 5)
	check("HC 1 shipments", "Shipment", "mean", 4)
	check("Reward", "DS 1", "mean", -3)
	check("Reward", "DS 2", "mean", -7)

	_, ok := findRow(report.Rows, "DS 1 state", "Inventory", "mean")
	assert.False(t, ok, "absent items are not summarised")

	// Every other sheet of the full schema is missing from the workbook.
	assert.Len(t, report.Skipped, 8)
	for _, s := range report.Skipped {
		assert.Equal(t, SkipMissingTable, s.Reason)
	}
}

func TestSummarizeMissingWorkbook(t *testing.T) {
	report, err := newTestPipeline(t, t.TempDir()).Summarize(context.Background(), single())
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, SkipMissingFile, report.Skipped[0].Reason)
}

func TestRewardsAndTime(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir)
	testutil.WriteWorkbook(t, TimingPathFor(dir, baseKey),
		testutil.Sheet{Name: DefaultTimingSheet, Rows: [][]interface{}{
			{"Episode", "Value"},
			{1, 10.5},
			{2, 11.5},
		}},
	)

	report, err := newTestPipeline(t, dir).RewardsAndTime(context.Background(), single())
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)
	require.Len(t, report.Rows, 3)

	assert.Equal(t, "DS 1", report.Rows[0].Item)
	assert.Equal(t, -3.0, report.Rows[0].Value.Value)
	assert.Equal(t, "DS 2", report.Rows[1].Item)
	assert.Equal(t, TimingEntity, report.Rows[2].Entity)
	assert.Equal(t, 11.0, report.Rows[2].Value.Value)
}

func TestRewardsAndTimeWithoutTimingWorkbook(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir)

	report, err := newTestPipeline(t, dir).RewardsAndTime(context.Background(), single())
	require.NoError(t, err)
	assert.Len(t, report.Rows, 2)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, SkipMissingFile, report.Skipped[0].Reason)
	assert.Contains(t, report.Skipped[0].Message, TimingEntity)
}
