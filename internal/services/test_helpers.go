package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invdash/internal/selection"
)

// MockPipeline is a testify mock of Pipeline.
type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) CombineForScenarios(ctx context.Context, sel selection.Selections) (*selection.Report, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*selection.Report), args.Error(1)
}

func (m *MockPipeline) Detail(ctx context.Context, sel selection.Selections) (*selection.Report, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*selection.Report), args.Error(1)
}

func (m *MockPipeline) Summarize(ctx context.Context, sel selection.Selections) (*selection.SummaryReport, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*selection.SummaryReport), args.Error(1)
}

func (m *MockPipeline) RewardsAndTime(ctx context.Context, sel selection.Selections) (*selection.SummaryReport, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*selection.SummaryReport), args.Error(1)
}

func (m *MockPipeline) Config() selection.Config {
	return m.Called().Get(0).(selection.Config)
}
