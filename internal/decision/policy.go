// Package decision applies the configured risk policy to externally
// supplied probability scores.
package decision

import (
	"encoding/json"
	"fmt"
	"os"
)

// Labels pairs the two possible decision outcomes.
type Labels struct {
	Block string `json:"block"`
	Allow string `json:"allow"`
}

// Policy is an immutable decision configuration: a threshold in [0,1]
// and the label pair to emit.
type Policy struct {
	Threshold float64 `json:"threshold"`
	Labels    Labels  `json:"decision_labels"`
}

// LoadFile reads a JSON policy document.
func LoadFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}

	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the policy once at load time; Evaluate itself has no
// failure path.
func (p Policy) Validate() error {
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("policy threshold %f outside [0,1]", p.Threshold)
	}
	if p.Labels.Block == "" || p.Labels.Allow == "" {
		return fmt.Errorf("policy labels must not be empty")
	}
	return nil
}

// Evaluate returns the block label when score >= threshold, else allow.
func (p Policy) Evaluate(score float64) string {
	if score >= p.Threshold {
		return p.Labels.Block
	}
	return p.Labels.Allow
}
