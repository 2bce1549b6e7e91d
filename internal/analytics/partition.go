package analytics

import (
	"shipdash/pkg/contracts/domain"
)

// Predicate selects records for a sub-table
type Predicate func(domain.PriceRecord) bool

// Filter returns the rows of table matching predicate, in table order.
// A zero-row result is valid.
func Filter(table *domain.PriceTable, predicate Predicate) *domain.PriceTable {
	return table.Select(predicate)
}

// ByKind selects rows of one record kind
func ByKind(kind domain.RecordKind) Predicate {
	return func(r domain.PriceRecord) bool {
		return r.Kind == kind
	}
}

// ByEntity selects rows of one entity
func ByEntity(id string) Predicate {
	return func(r domain.PriceRecord) bool {
		return r.Entity == id
	}
}

// And selects rows matching every predicate
func And(predicates ...Predicate) Predicate {
	return func(r domain.PriceRecord) bool {
		for _, p := range predicates {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Observed returns the history rows of table
func Observed(table *domain.PriceTable) *domain.PriceTable {
	return Filter(table, ByKind(domain.KindObserved))
}

// Predicted returns the prediction rows of table
func Predicted(table *domain.PriceTable) *domain.PriceTable {
	return Filter(table, ByKind(domain.KindPredicted))
}

// EntitySeries splits one entity's rows into its observed and predicted sub-tables
func EntitySeries(table *domain.PriceTable, id string) (observed, predicted *domain.PriceTable) {
	rows := Filter(table, ByEntity(id))
	return Observed(rows), Predicted(rows)
}
