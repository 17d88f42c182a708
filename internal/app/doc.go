// Package app wires the dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, YAML and INVDASH_* variables
//  2. Initialize logging and OpenTelemetry
//  3. Build the cached workbook loader and the selection pipeline
//  4. Initialize services with their dependencies
//  5. Set up HTTP handlers and middleware
//  6. Configure and start the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// SIGINT and SIGTERM stop the listener, let active requests finish within
// the shutdown timeout, drop the workbook cache and flush telemetry.
//
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
