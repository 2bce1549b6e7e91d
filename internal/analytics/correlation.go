package analytics

import (
	"math"
	"sort"
	"time"

	"shipdash/pkg/contracts/domain"
)

type correlateOptions struct {
	alignment domain.Alignment
}

// CorrelateOption configures Correlate
type CorrelateOption func(*correlateOptions)

// WithAlignment selects the date alignment. Unknown values fall back to listwise.
func WithAlignment(alignment domain.Alignment) CorrelateOption {
	return func(o *correlateOptions) {
		if alignment.Valid() {
			o.alignment = alignment
		}
	}
}

// WithPairwiseAlignment correlates each pair over the dates both entities were observed on
func WithPairwiseAlignment() CorrelateOption {
	return WithAlignment(domain.AlignPairwise)
}

// pivot is the date x entity view of observed prices
type pivot struct {
	entities []string
	dates    []time.Time
	// prices[e][d] is entity e's price on dates[d]; present[e][d] reports whether it exists
	prices  [][]float64
	present [][]bool
}

func newPivot(observed *domain.PriceTable) *pivot {
	entities := observed.Entities()
	entityIdx := make(map[string]int, len(entities))
	for i, e := range entities {
		entityIdx[e] = i
	}

	dateIdx := make(map[time.Time]int)
	var dates []time.Time
	for i := 0; i < observed.Len(); i++ {
		d := observed.At(i).Date
		if _, ok := dateIdx[d]; !ok {
			dateIdx[d] = len(dates)
			dates = append(dates, d)
		}
	}
	sort.SliceStable(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for i, d := range dates {
		dateIdx[d] = i
	}

	p := &pivot{
		entities: entities,
		dates:    dates,
		prices:   make([][]float64, len(entities)),
		present:  make([][]bool, len(entities)),
	}
	for e := range entities {
		p.prices[e] = make([]float64, len(dates))
		p.present[e] = make([]bool, len(dates))
	}

	for i := 0; i < observed.Len(); i++ {
		r := observed.At(i)
		e, d := entityIdx[r.Entity], dateIdx[r.Date]
		p.prices[e][d] = r.Price
		p.present[e][d] = true
	}
	return p
}

// commonDates returns the date positions observed for every entity
func (p *pivot) commonDates() []int {
	var common []int
	for d := range p.dates {
		all := true
		for e := range p.entities {
			if !p.present[e][d] {
				all = false
				break
			}
		}
		if all {
			common = append(common, d)
		}
	}
	return common
}

// sharedDates returns the date positions observed for both a and b
func (p *pivot) sharedDates(a, b int) []int {
	var shared []int
	for d := range p.dates {
		if p.present[a][d] && p.present[b][d] {
			shared = append(shared, d)
		}
	}
	return shared
}

func (p *pivot) countDates(e int) int {
	n := 0
	for _, ok := range p.present[e] {
		if ok {
			n++
		}
	}
	return n
}

func (p *pivot) column(e int, dates []int) []float64 {
	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = p.prices[e][d]
	}
	return out
}

// Correlate pivots the observed rows into a date x entity table, aligns the
// dates and returns the Pearson coefficient of every entity pair.
//
// The matrix is symmetric with a diagonal of exactly 1.0 and uses the entity
// order of the table. Prediction rows in the input are ignored.
func Correlate(observed *domain.PriceTable, opts ...CorrelateOption) *domain.CorrelationMatrix {
	options := correlateOptions{alignment: domain.AlignListwise}
	for _, opt := range opts {
		opt(&options)
	}

	p := newPivot(Observed(observed))
	n := len(p.entities)

	matrix := &domain.CorrelationMatrix{
		Entities:  p.entities,
		Values:    make([][]float64, n),
		Samples:   make([][]int, n),
		Alignment: options.alignment,
	}
	for i := 0; i < n; i++ {
		matrix.Values[i] = make([]float64, n)
		matrix.Samples[i] = make([]int, n)
	}

	var common []int
	if options.alignment == domain.AlignListwise {
		common = p.commonDates()
	}

	for i := 0; i < n; i++ {
		matrix.Values[i][i] = 1.0
		if options.alignment == domain.AlignListwise {
			matrix.Samples[i][i] = len(common)
		} else {
			matrix.Samples[i][i] = p.countDates(i)
		}

		for j := i + 1; j < n; j++ {
			dates := common
			if options.alignment == domain.AlignPairwise {
				dates = p.sharedDates(i, j)
			}

			r := Pearson(p.column(i, dates), p.column(j, dates))
			matrix.Values[i][j], matrix.Values[j][i] = r, r
			matrix.Samples[i][j], matrix.Samples[j][i] = len(dates), len(dates)
		}
	}

	return matrix
}

// Pearson returns the sample correlation coefficient of two aligned series.
// It returns NaN when the series differ in length, hold fewer than two
// points, or either series is constant.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}

	meanX := mean(x)
	meanY := mean(y)

	var sumXY, sumXX, sumYY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}

	if sumXX == 0 || sumYY == 0 {
		return math.NaN()
	}

	r := sumXY / math.Sqrt(sumXX*sumYY)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN()
	}

	// rounding can push |r| just past 1
	return math.Max(-1, math.Min(1, r))
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
