package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "invdash/internal/errors"
	"invdash/internal/selection"
	"invdash/internal/shared/testutil"
	"invdash/internal/workbook"
)

var drlKey = selection.SelectionKey{
	Agent:       selection.AgentDRL,
	OrderType:   selection.OrderUpToLevelEq,
	Disruption:  selection.DisruptionShort,
	Sensitivity: selection.Sensitivity04,
}

func selectionFor(metrics ...selection.Metric) selection.Selections {
	return selection.Selections{
		Agents:        []selection.Agent{drlKey.Agent},
		OrderType:     drlKey.OrderType,
		Sensitivities: []selection.Sensitivity{drlKey.Sensitivity},
		Disruptions:   []selection.Disruption{drlKey.Disruption},
		Metrics:       metrics,
	}
}

// newRealService wires the service to a pipeline reading workbooks from a
// temp dir holding one DRL scenario.
func newRealService(t *testing.T) (*DashboardService, string) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteWorkbook(t, selection.PathFor(dir, drlKey),
		testutil.LongSheet("DS 1 state",
			[]interface{}{66, "Backlog", 4},
			[]interface{}{67, "Backlog", 9},
			[]interface{}{68, "Backlog", 11},
			[]interface{}{66, "Inventory", 20},
			[]interface{}{67, "Inventory", 14},
			[]interface{}{68, "Inventory", 12},
		),
		testutil.Sheet{Name: "Reward", Rows: [][]interface{}{
			{"Time", "Agent", "Value"},
			{66, "DS 1", -2},
			{67, "DS 1", -4},
			{66, "DS 2", -1},
			{67, "DS 2", -3},
		}},
	)

	logger, _ := testutil.NewTestLogger(t)
	p, err := selection.NewPipeline(workbook.NewExcelLoader(logger), selection.DefaultConfig(dir), logger, nil)
	require.NoError(t, err)
	return NewDashboardService(p, selection.OrderUpToLevelEq, logger), dir
}

func TestVocabulary(t *testing.T) {
	pipeline := new(MockPipeline)
	cfg := selection.DefaultConfig("data")
	cfg.Schema = selection.SchemaRewardOnly
	pipeline.On("Config").Return(cfg)

	v := NewDashboardService(pipeline, selection.OrderUpToLevelHC1Trust, nil).Vocabulary()

	assert.Equal(t, selection.OrderUpToLevelHC1Trust, v.DefaultOrderType)
	assert.Equal(t, selection.SchemaRewardOnly, v.Schema)
	assert.Equal(t, 40, v.TimeCutoff)
	require.Len(t, v.Disruptions, 6)
	assert.Equal(t, []selection.Interval{{Start: 67, End: 72}, {Start: 110, End: 116}}, v.Disruptions[5].Intervals)
	require.Len(t, v.Metrics, 12)
	for _, m := range v.Metrics {
		assert.Equal(t, m.Name == selection.MetricReward, m.Available, m.Name)
	}
}

func TestChartsRejectsUnknownValues(t *testing.T) {
	pipeline := new(MockPipeline)
	svc := NewDashboardService(pipeline, selection.OrderUpToLevelEq, nil)

	sel := selectionFor(selection.MetricReward)
	sel.Agents = []selection.Agent{"PPO"}

	_, err := svc.Charts(context.Background(), sel)
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeValidation, appErr.Type)
	assert.ErrorIs(t, err, selection.ErrUnknownValue)
	pipeline.AssertNotCalled(t, "CombineForScenarios", mock.Anything, mock.Anything)
}

func TestPipelineErrorsAreWrapped(t *testing.T) {
	pipeline := new(MockPipeline)
	sel := selectionFor(selection.MetricReward)
	pipeline.On("Summarize", mock.Anything, sel).Return(nil, context.Canceled)

	_, err := NewDashboardService(pipeline, selection.OrderUpToLevelEq, nil).Summary(context.Background(), sel)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "summarize")
	pipeline.AssertExpectations(t)
}

func TestChartSVG(t *testing.T) {
	svc, _ := newRealService(t)

	var out bytes.Buffer
	err := svc.ChartSVG(context.Background(), selectionFor(selection.MetricDS1State), SVGOptions{Width: 640, Height: 320}, &out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out.String()), "<svg"))
	assert.Contains(t, out.String(), "Backlog")
	assert.Contains(t, out.String(), "Disruption")
}

func TestChartSVGBlockedAndEmpty(t *testing.T) {
	svc, _ := newRealService(t)

	sel := selectionFor(selection.MetricDS1State, selection.MetricReward)
	err := svc.ChartSVG(context.Background(), sel, SVGOptions{}, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrBlocked)
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	guidance := appErr.Context["guidance"].([]selection.Guidance)
	assert.Equal(t, selection.GuidanceSingleMetric, guidance[0].Code)

	err = svc.ChartSVG(context.Background(), selectionFor(selection.MetricHC1Trust), SVGOptions{}, &bytes.Buffer{})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeNoData, appErr.Type)
}

func TestExportCSV(t *testing.T) {
	svc, _ := newRealService(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, selectionFor(selection.MetricReward), ExportCharts, &out))
	require.True(t, bytes.HasPrefix(out.Bytes(), []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(out.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Agent", "OrderType", "Scenario", "Disruption", "Sheet", "Time", "Series", "Value"}, records[0])
	// 2 periods x (DS 1, DS 2, Average)
	require.Len(t, records, 7)
	assert.Equal(t, []string{"DRL", "UpToLevel_Eq", "0.4", "short (67-72)", "Reward", "66", "Average", "-1.5"}, records[3])

	out.Reset()
	require.NoError(t, svc.ExportCSV(ctx, selectionFor(), ExportRewards, &out))
	assert.Contains(t, out.String(), "DS 2")

	err = svc.ExportCSV(ctx, selectionFor(selection.MetricReward), "pdf", &out)
	assert.ErrorIs(t, err, ErrUnknownExport)

	err = svc.ExportCSV(ctx, selectionFor(), ExportCharts, &out)
	assert.ErrorIs(t, err, ErrBlocked, "charts need a metric")
}

func TestExportXLSX(t *testing.T) {
	svc, _ := newRealService(t)

	var out bytes.Buffer
	require.NoError(t, svc.ExportXLSX(context.Background(), selectionFor(selection.MetricDS1State), &out))

	f, err := excelize.OpenReader(&out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Rewards and time", "Charts", "Skipped"}, f.GetSheetList())

	rows, err := f.GetRows("Skipped")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2, "absent sheets and timing workbook are reported")
}

func TestExportXLSXPipelineFailure(t *testing.T) {
	pipeline := new(MockPipeline)
	sel := selectionFor()
	pipeline.On("Summarize", mock.Anything, sel).Return(nil, errors.New("disk gone"))

	err := NewDashboardService(pipeline, selection.OrderUpToLevelEq, nil).ExportXLSX(context.Background(), sel, &bytes.Buffer{})
	assert.ErrorContains(t, err, "disk gone")
}
