package app

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// loadScores reads the scoring collaborator's CSV artifact: a "score"
// column of reals in [0,1], one row per feature-table row, in record
// order. An optional "index" column is checked against the row position.
func loadScores(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scores: %w", err)
	}
	defer file.Close()

	cr := csv.NewReader(file)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read score header: %w", err)
	}

	scoreCol, indexCol := -1, -1
	for i, name := range header {
		switch name {
		case "score":
			scoreCol = i
		case "index":
			indexCol = i
		}
	}
	if scoreCol < 0 {
		return nil, fmt.Errorf("scores file has no %q column", "score")
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read score rows: %w", err)
	}

	scores := make([]float64, len(records))
	for i, rec := range records {
		score, err := strconv.ParseFloat(rec[scoreCol], 64)
		if err != nil {
			return nil, fmt.Errorf("score row %d: %w", i+1, err)
		}
		if score < 0 || score > 1 {
			return nil, fmt.Errorf("score row %d: %f outside [0,1]", i+1, score)
		}
		if indexCol >= 0 {
			idx, err := strconv.Atoi(rec[indexCol])
			if err != nil {
				return nil, fmt.Errorf("score row %d: bad index: %w", i+1, err)
			}
			if idx != i {
				return nil, fmt.Errorf("score row %d carries index %d; scores must be in record order", i+1, idx)
			}
		}
		scores[i] = score
	}
	return scores, nil
}
