// Package dataset loads the price snapshot the dashboard is built on.
//
// The snapshot is a single local table of historical and predicted share
// prices, one row per (company, date, type). Two file formats are accepted:
//
//   - CSV with a header row
//   - XLSX, read from the first sheet with the same header row
//
// # Columns
//
// Columns are looked up by header name, ignoring case and surrounding
// whitespace. Extra columns are ignored.
//
//	Date            calendar date (2006-01-02, 2006/01/02 or an ISO timestamp)
//	Company         entity identifier
//	Type            "History" or "Prediction"
//	Price           required when Type is History
//	Predicted_Price required when Type is Prediction
//
// # Failure
//
// Loading either yields a complete, immutable *domain.PriceTable or a
// *DataUnavailableError. There is no partial result and no retry: a missing
// or malformed file ends the session.
//
//	table, err := dataset.Load("data/ship_bigdata.csv")
//	if errors.Is(err, dataset.ErrDataUnavailable) {
//		// show the blocking message and stop
//	}
package dataset
