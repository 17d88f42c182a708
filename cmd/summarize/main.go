// Command summarize writes the key-metric tables of a set of simulation
// scenarios without starting the dashboard.
//
//	summarize -data app_data -agent DRL -agent basestock \
//	    -disruption "multiple (67-72, 110-116)" -format xlsx -out report.xlsx
//
// -sheets lists the sheets of each selected workbook instead. Unset
// selection flags select every value. Repeat a flag to pick several
// values; values are never split on commas since disruption names contain
// them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"invdash/internal/config"
	"invdash/internal/exporter"
	"invdash/internal/infrastructure"
	"invdash/internal/selection"
	"invdash/internal/services"
	"invdash/internal/workbook"
)

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, "; ") }

func (l *listFlag) Set(v string) error {
	if v = strings.TrimSpace(v); v != "" {
		*l = append(*l, v)
	}
	return nil
}

// options are the parsed command line.
type options struct {
	dataDir       string
	orderType     string
	agents        listFlag
	sensitivities listFlag
	disruptions   listFlag
	metrics       listFlag
	format        string
	kind          string
	out           string
	append        bool
	sheets        bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("summarize failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	fs.StringVar(&opts.dataDir, "data", "", "directory holding the simulation workbooks (defaults to the configured data dir)")
	fs.StringVar(&opts.orderType, "order-type", "", "order type (defaults to the configured default)")
	fs.Var(&opts.agents, "agent", "agent to include; repeatable")
	fs.Var(&opts.sensitivities, "sensitivity", "sensitivity factor to include; repeatable")
	fs.Var(&opts.disruptions, "disruption", "disruption scenario to include; repeatable")
	fs.Var(&opts.metrics, "metric", "metric for the chart data sheet of xlsx output or -kind charts; repeatable")
	fs.StringVar(&opts.format, "format", "csv", "csv | xlsx")
	fs.StringVar(&opts.kind, "kind", services.ExportSummary, "csv table: "+strings.Join(services.ExportKinds, " | "))
	fs.StringVar(&opts.out, "out", "", `output file, relative to the reports dir; "-" writes to stdout (defaults to a stamped file)`)
	fs.BoolVar(&opts.append, "append", false, "append csv records to an existing file without repeating the header")
	fs.BoolVar(&opts.sheets, "sheets", false, "list the sheets of every selected workbook instead of writing a report")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch opts.format {
	case "csv", "xlsx":
	default:
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	if opts.format == "csv" && !contains(services.ExportKinds, opts.kind) {
		return nil, fmt.Errorf("unknown kind %q", opts.kind)
	}
	if opts.append && (opts.format != "csv" || opts.out == "" || opts.out == "-") {
		return nil, errors.New("-append needs csv format and a named -out file")
	}
	return opts, nil
}

// selections converts the flags, filling unset lists with the whole
// vocabulary.
func (o *options) selections(defaultOrder selection.OrderType) (selection.Selections, error) {
	sel := selection.Selections{OrderType: defaultOrder}
	if o.orderType != "" {
		sel.OrderType = selection.OrderType(o.orderType)
	}
	sel.Agents = pick(o.agents, selection.Agents)
	sel.Sensitivities = pick(o.sensitivities, selection.Sensitivities)
	sel.Disruptions = pick(o.disruptions, selection.Disruptions)
	sel.Metrics = pick[selection.Metric](o.metrics, nil)
	if o.kind == services.ExportCharts && len(sel.Metrics) == 0 {
		sel.Metrics = selection.Metrics
	}
	return sel, sel.Validate()
}

func pick[T ~string](values []string, all []T) []T {
	if len(values) == 0 {
		return append([]T(nil), all...)
	}
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.dataDir != "" {
		cfg.Paths.DataDir = opts.dataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()
	logger = infrastructure.WithComponent(logger, "summarize")
	ctx = infrastructure.EnsureTraceID(ctx)

	sel, err := opts.selections(cfg.OrderType())
	if err != nil {
		return err
	}

	loader := workbook.NewExcelLoader(logger)
	if opts.sheets {
		return listSheets(ctx, loader, cfg.Paths.DataDir, sel, stdout, logger)
	}

	selCfg, err := cfg.Selection()
	if err != nil {
		return err
	}
	pipeline, err := selection.NewPipeline(loader, selCfg, logger, nil)
	if err != nil {
		return err
	}
	svc := services.NewDashboardService(pipeline, cfg.OrderType(), logger)

	logger.InfoContext(ctx, "Starting summary export",
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.String("format", opts.format),
		slog.String("kind", opts.kind),
		slog.Int("scenarios", len(sel.Keys())))

	if opts.out == "-" {
		if opts.format == "xlsx" {
			return svc.ExportXLSX(ctx, sel, stdout)
		}
		return svc.ExportCSV(ctx, sel, opts.kind, stdout)
	}

	name := opts.out
	if name == "" {
		kind := opts.kind
		if opts.format == "xlsx" {
			kind = "report"
		}
		name = services.ExportFileName(kind, opts.format)
	}

	var path string
	if opts.format == "xlsx" {
		path, err = writeXLSX(ctx, svc, sel, resolve(cfg.Paths.ReportsDir, name))
	} else {
		path, err = writeCSV(ctx, svc, sel, opts, cfg.Paths.ReportsDir, name)
	}
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Summary written", slog.String("path", path))
	fmt.Fprintln(stdout, path)
	return nil
}

// listSheets prints one line per selected workbook with its sheet names, or
// "missing" when the file does not exist.
func listSheets(ctx context.Context, loader *workbook.ExcelLoader, dataDir string, sel selection.Selections, stdout io.Writer, logger *slog.Logger) error {
	for _, key := range sel.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := selection.PathFor(dataDir, key)
		names, err := loader.SheetNames(path)
		switch {
		case errors.Is(err, workbook.ErrFileNotFound):
			fmt.Fprintf(stdout, "%s: missing\n", path)
		case err != nil:
			infrastructure.WithError(logger, err).WarnContext(ctx, "Failed to read workbook", slog.String("path", path))
			fmt.Fprintf(stdout, "%s: unreadable\n", path)
		default:
			fmt.Fprintf(stdout, "%s: %s\n", path, strings.Join(names, ", "))
		}
	}
	return nil
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func writeCSV(ctx context.Context, svc *services.DashboardService, sel selection.Selections, opts *options, reportsDir, name string) (string, error) {
	headers, records, err := svc.Table(ctx, sel, opts.kind)
	if err != nil {
		return "", err
	}

	w := exporter.NewCSVWriter(reportsDir)
	path := resolve(reportsDir, name)
	if _, statErr := os.Stat(path); opts.append && statErr == nil {
		return path, w.AppendToCSV(name, records)
	}
	return path, w.WriteSimpleCSV(name, headers, records)
}

func writeXLSX(ctx context.Context, svc *services.DashboardService, sel selection.Selections, path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	if err := svc.ExportXLSX(ctx, sel, f); err != nil {
		f.Close()
		return "", errors.Join(err, os.Remove(path))
	}
	return path, f.Close()
}
