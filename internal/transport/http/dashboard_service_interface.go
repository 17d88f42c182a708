package http

import (
	"context"
	"io"

	"invdash/internal/selection"
	"invdash/internal/services"
)

// DashboardServiceInterface defines the interface for dashboard operations
type DashboardServiceInterface interface {
	Vocabulary() services.Vocabulary
	Charts(ctx context.Context, sel selection.Selections) (*selection.Report, error)
	Detail(ctx context.Context, sel selection.Selections) (*selection.Report, error)
	Summary(ctx context.Context, sel selection.Selections) (*selection.SummaryReport, error)
	Rewards(ctx context.Context, sel selection.Selections) (*selection.SummaryReport, error)
	ChartSVG(ctx context.Context, sel selection.Selections, opts services.SVGOptions, out io.Writer) error
	ExportCSV(ctx context.Context, sel selection.Selections, kind string, out io.Writer) error
	ExportXLSX(ctx context.Context, sel selection.Selections, out io.Writer) error
}
