package analytics

import (
	"errors"

	"shipdash/pkg/contracts/domain"
)

// Stitch joins the last observed point with every predicted point so that
// history and prediction draw as one continuous line. Both inputs must hold
// a single entity's rows in date order.
//
// With no predicted rows the result is the anchor alone. With no observed
// rows there is nothing to anchor to and a *NoHistoryError is returned.
func Stitch(observed, predicted *domain.PriceTable) (domain.StitchedSeries, error) {
	anchor, ok := observed.Last()
	if !ok {
		entity := ""
		if first, ok := firstRecord(predicted); ok {
			entity = first.Entity
		}
		return domain.StitchedSeries{}, &NoHistoryError{Entity: entity, Predicted: predicted.Len()}
	}

	points := make([]domain.SeriesPoint, 0, predicted.Len()+1)
	points = append(points, anchor.Point())
	points = append(points, predicted.Points()...)

	return domain.StitchedSeries{Entity: anchor.Entity, Points: points}, nil
}

// StitchEntity stitches the series of one entity of a full table
func StitchEntity(table *domain.PriceTable, id string) (domain.StitchedSeries, error) {
	observed, predicted := EntitySeries(table, id)
	series, err := Stitch(observed, predicted)
	if err != nil {
		var nh *NoHistoryError
		if errors.As(err, &nh) {
			nh.Entity = id
		}
		return domain.StitchedSeries{}, err
	}
	return series, nil
}

func firstRecord(table *domain.PriceTable) (domain.PriceRecord, bool) {
	if table.IsEmpty() {
		return domain.PriceRecord{}, false
	}
	return table.At(0), true
}
