package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "invdash/internal/errors"
	"invdash/internal/selection"
	"invdash/internal/shared/testutil"
)

func newValidator(t *testing.T) *ValidationMiddleware {
	logger, _ := testutil.NewTestLogger(t)
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
}

func requestWith(q url.Values) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/dashboard/charts?"+q.Encode(), nil)
}

func TestSelectionsFromQuery(t *testing.T) {
	v := newValidator(t)
	q := url.Values{
		"agent":       {"DRL", "basestock"},
		"sensitivity": {"0.1", " "},
		"disruption":  {"multiple (67-72, 110-116)"},
		"metric":      {"DS 1 state", "Reward"},
		"view":        {"detail"},
	}

	sel, view, err := v.Selections(requestWith(q), selection.OrderUpToLevelHC1Trust)
	require.NoError(t, err)
	assert.Equal(t, selection.ViewDetail, view)
	assert.Equal(t, []selection.Agent{selection.AgentDRL, selection.AgentBasestock}, sel.Agents)
	assert.Equal(t, selection.OrderUpToLevelHC1Trust, sel.OrderType, "default order type")
	assert.Equal(t, []selection.Sensitivity{selection.Sensitivity01}, sel.Sensitivities, "blank values dropped")
	assert.Equal(t, []selection.Disruption{selection.DisruptionMultiple}, sel.Disruptions)
	assert.Equal(t, []selection.Metric{selection.MetricDS1State, selection.MetricReward}, sel.Metrics)

	q.Set("order_type", "UpToLevel_Eq")
	q.Del("view")
	sel, view, err = v.Selections(requestWith(q), selection.OrderUpToLevelHC1Trust)
	require.NoError(t, err)
	assert.Equal(t, selection.OrderUpToLevelEq, sel.OrderType)
	assert.Equal(t, selection.ViewCharts, view)
}

func TestSelectionsRejectUnknownValues(t *testing.T) {
	v := newValidator(t)
	q := url.Values{
		"agent":      {"DRL", "PPO"},
		"disruption": {"medium"},
		"view":       {"table"},
	}

	_, _, err := v.Selections(requestWith(q), selection.OrderUpToLevelEq)
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	fields := apiErr.Details.([]apierrors.ValidationError)
	require.Len(t, fields, 3)
	assert.Equal(t, "agent[1]", fields[0].Field)
	assert.Equal(t, "PPO", fields[0].Value)
	assert.Equal(t, "agent must be one of: DRL, DRL_RNN, basestock", fields[0].Message)
	assert.Equal(t, "disruption[0]", fields[1].Field)
	assert.Equal(t, "view must be one of: charts, detail, summary", fields[2].Message)
}

func TestQueryParamValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	rec := httptest.NewRecorder()
	width, ok := v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?width=640", nil), "width", 200, 4000, 960)
	assert.True(t, ok)
	assert.Equal(t, 640, width)

	width, ok = v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/", nil), "width", 200, 4000, 960)
	assert.True(t, ok)
	assert.Equal(t, 960, width)

	rec = httptest.NewRecorder()
	_, ok = v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?width=10", nil), "width", 200, 4000, 960)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	_, ok = v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?width=wide", nil), "width", 200, 4000, 960)
	assert.False(t, ok)

	format, ok := v.ValidateEnum(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?format=xlsx", nil), "format", []string{"csv", "xlsx"}, "csv")
	assert.True(t, ok)
	assert.Equal(t, "xlsx", format)

	rec = httptest.NewRecorder()
	_, ok = v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?format=pdf", nil), "format", []string{"csv", "xlsx"}, "csv")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
