// Package services sits between the HTTP handlers and the selection
// pipeline. Handlers hand it validated selections; it runs the pipeline,
// renders charts and exports, and translates failures into
// internal/errors types the error handler understands.
//
// # Available Services
//
//   - DashboardService: charts, detail SVG, summaries, rewards and exports
//   - HealthService: liveness, readiness and version information
//
// # Testing
//
// Services are tested with testify mocks of their dependencies:
//
//	pipeline := new(MockPipeline)
//	pipeline.On("Summarize", mock.Anything, sel).Return(report, nil)
//	svc := NewDashboardService(pipeline, selection.OrderUpToLevelEq, logger)
package services
