// Package app provides application initialization and lifecycle management
// for the shipbuilding price dashboard.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, YAML file, .env, environment)
//  2. Initialize logging and OpenTelemetry
//  3. Resolve paths and load the price snapshot
//  4. Build the dashboard and health services around the snapshot
//  5. Set up middleware, API routes, /metrics and the dashboard page
//  6. Create the HTTP server
//
// A snapshot that cannot be loaded stops the sequence at step 3. The error
// wraps a *dataset.DataUnavailableError and no service or router exists, so
// the caller can show DataUnavailableError.UserMessage and exit.
//
// # Usage
//
//	application, err := app.NewApplication(webFS)
//	if err != nil {
//	    // report and exit
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM (or a listener failure), then drains
// in-flight requests within the configured shutdown timeout, flushes the
// OpenTelemetry providers and closes the log file.
//
// The app does not call os.Exit; the main function controls the exit code.
package app
