package explain

import (
	"encoding/json"
	"fmt"
	"os"
)

// ImpactMatrix holds externally computed per-feature attributions for the
// sampled rows, keyed by original record index and column-aligned to the
// feature table's numeric columns.
type ImpactMatrix struct {
	Features []string
	rows     map[int][]float64
}

// impactDocument is the on-disk JSON shape produced by the attribution
// collaborator.
type impactDocument struct {
	Features []string    `json:"features"`
	Indices  []int       `json:"indices"`
	Values   [][]float64 `json:"values"`
}

// NewImpactMatrix validates and indexes an impact matrix. Every value row
// must match the feature list width; indices and values must pair 1:1.
func NewImpactMatrix(features []string, indices []int, values [][]float64) (*ImpactMatrix, error) {
	if len(indices) != len(values) {
		return nil, alignmentErrorf("impact matrix has %d indices but %d value rows", len(indices), len(values))
	}

	rows := make(map[int][]float64, len(indices))
	for i, idx := range indices {
		if len(values[i]) != len(features) {
			return nil, alignmentErrorf("impact row for index %d has %d values, want %d features", idx, len(values[i]), len(features))
		}
		rows[idx] = values[i]
	}

	return &ImpactMatrix{Features: features, rows: rows}, nil
}

// LoadImpactMatrix reads the attribution collaborator's JSON artifact.
func LoadImpactMatrix(path string) (*ImpactMatrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read impacts: %w", err)
	}

	var doc impactDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse impacts: %w", err)
	}

	return NewImpactMatrix(doc.Features, doc.Indices, doc.Values)
}

// Row returns the impact vector for a record index. Ranking is a lookup,
// never a recomputation; a missing index means impact computation was not
// requested for the full sample set.
func (m *ImpactMatrix) Row(index int) ([]float64, error) {
	row, ok := m.rows[index]
	if !ok {
		return nil, alignmentErrorf("no impact row for record index %d", index)
	}
	return row, nil
}

// Len reports how many record rows the matrix covers.
func (m *ImpactMatrix) Len() int {
	return len(m.rows)
}
