// Package analytics derives the dashboard views from an immutable price table.
//
// Every function here is a pure function of its inputs: the table passed in
// is never modified and the same input always yields the same output, so the
// functions are safe to call concurrently from request handlers.
//
// # Architecture
//
//   - partition.go: kind and entity filters producing sub-tables
//   - correlation.go: date x entity pivot and pairwise Pearson coefficients
//   - stitch.go: joins an entity's last observed point to its predicted points
//   - trend.go: per-entity line series and prediction summaries
//   - errors.go: NoHistoryError
//
// # Usage Example
//
//	observed := analytics.Observed(table)
//	matrix := analytics.Correlate(observed)
//
//	history, predicted := analytics.EntitySeries(table, "HD")
//	series, err := analytics.Stitch(history, predicted)
//	if errors.Is(err, analytics.ErrNoHistory) {
//		// the prediction view for HD cannot be drawn
//	}
//
// # Undefined Correlation
//
// A pair of entities with fewer than two aligned dates, or with a constant
// price over those dates, has no Pearson coefficient. Such cells hold NaN
// (see domain.IsUndefined) and are never reported as zero.
package analytics
