package domain

import (
	"encoding/json"
	"math"
)

// Alignment describes how observed dates are aligned before correlating
type Alignment string

const (
	// AlignListwise keeps only dates observed for every entity
	AlignListwise Alignment = "listwise"
	// AlignPairwise keeps, for each pair, the dates observed for both entities
	AlignPairwise Alignment = "pairwise"
)

// Valid reports whether a is a known alignment
func (a Alignment) Valid() bool {
	return a == AlignListwise || a == AlignPairwise
}

// CorrelationMatrix is a symmetric entity-by-entity matrix of Pearson
// coefficients with a unit diagonal. Undefined pairs hold NaN.
type CorrelationMatrix struct {
	Entities  []string
	Values    [][]float64
	Samples   [][]int
	Alignment Alignment
}

// Size returns the number of entities on each axis
func (m *CorrelationMatrix) Size() int {
	return len(m.Entities)
}

// Index returns the axis position of an entity
func (m *CorrelationMatrix) Index(entity string) (int, bool) {
	for i, e := range m.Entities {
		if e == entity {
			return i, true
		}
	}
	return -1, false
}

// Get returns the coefficient for a pair of entities. ok is false when
// either entity is not on the axis.
func (m *CorrelationMatrix) Get(a, b string) (coefficient float64, ok bool) {
	i, okA := m.Index(a)
	j, okB := m.Index(b)
	if !okA || !okB {
		return math.NaN(), false
	}
	return m.Values[i][j], true
}

// Defined reports whether the coefficient at (i, j) is a number
func (m *CorrelationMatrix) Defined(i, j int) bool {
	return !math.IsNaN(m.Values[i][j])
}

// IsUndefined reports whether a coefficient is the undefined-correlation sentinel
func IsUndefined(coefficient float64) bool {
	return math.IsNaN(coefficient)
}

// Cells returns the matrix with undefined entries as nil, ready for encoding
func (m *CorrelationMatrix) Cells() [][]*float64 {
	cells := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		cells[i] = make([]*float64, len(row))
		for j := range row {
			if m.Defined(i, j) {
				v := row[j]
				cells[i][j] = &v
			}
		}
	}
	return cells
}

// MarshalJSON encodes undefined coefficients as null
func (m *CorrelationMatrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Entities  []string     `json:"entities"`
		Values    [][]*float64 `json:"values"`
		Samples   [][]int      `json:"samples"`
		Alignment Alignment    `json:"alignment"`
	}{
		Entities:  m.Entities,
		Values:    m.Cells(),
		Samples:   m.Samples,
		Alignment: m.Alignment,
	})
}
