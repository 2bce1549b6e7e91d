package analytics

import (
	"shipdash/pkg/contracts/domain"
)

// Lines groups a table into one line per entity, in table entity order
func Lines(table *domain.PriceTable) []domain.Line {
	entities := table.Entities()
	lines := make([]domain.Line, len(entities))
	index := make(map[string]int, len(entities))
	for i, e := range entities {
		lines[i] = domain.Line{Entity: e, Points: []domain.SeriesPoint{}}
		index[e] = i
	}

	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		line := &lines[index[r.Entity]]
		line.Points = append(line.Points, r.Point())
	}
	return lines
}

// Trend returns the observed price line of every entity
func Trend(table *domain.PriceTable) []domain.Line {
	return Lines(Observed(table))
}

// Summarize describes a stitched series: where history ends, where the
// prediction ends and the relative change between the two.
func Summarize(series domain.StitchedSeries) domain.PredictionSummary {
	summary := domain.PredictionSummary{Entity: series.Entity}

	anchor, ok := series.Anchor()
	if !ok {
		return summary
	}
	summary.LastObserved = anchor
	summary.Horizon = series.Len() - 1

	if series.IsDegenerate() {
		return summary
	}

	final := series.Points[len(series.Points)-1]
	summary.FinalPredicted = &final
	if anchor.Price != 0 {
		change := (final.Price - anchor.Price) / anchor.Price * 100
		summary.ChangePercent = &change
	}
	return summary
}
