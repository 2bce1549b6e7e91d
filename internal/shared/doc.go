// Package shared holds helpers used across the shipdash packages that belong
// to no single layer.
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler and NewTestLogger for asserting on structured logs
//	- price table fixtures (SampleTable, Observed, Predicted) matching the
//	  dataset layout
//	- WriteCSV for building dataset files in a test's temp directory
//
// Only test helpers and domain-free utilities belong here.
package shared
