// Package schema guards the raw ledger layout: it checks that every column
// the pipeline depends on is present and strips columns known to leak the
// fraud label through post-hoc balance information.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Raw ledger column names (PaySim layout).
const (
	ColStep           = "step"
	ColType           = "type"
	ColAmount         = "amount"
	ColNameOrig       = "nameOrig"
	ColNameDest       = "nameDest"
	ColIsFraud        = "isFraud"
	ColIsFlaggedFraud = "isFlaggedFraud"
)

// Required lists the columns a raw batch must carry.
var Required = []string{
	ColStep,
	ColType,
	ColAmount,
	ColNameOrig,
	ColNameDest,
	ColIsFraud,
	ColIsFlaggedFraud,
}

// Leakage lists balance columns that correlate with the label after the
// fact and must never reach the feature table. They are optional legacy
// fields: absence is not an error.
var Leakage = []string{
	"oldbalanceOrg",
	"newbalanceOrig",
	"oldbalanceDest",
	"newbalanceDest",
}

// SchemaError reports every missing required column at once.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Validate checks a raw batch header against the required column set.
// It returns a *SchemaError naming all missing columns, not just the first.
func Validate(columns []string) error {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var missing []string
	for _, c := range Required {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &SchemaError{Missing: missing}
	}
	return nil
}

// DropLeakage splits a header into kept columns and dropped leakage columns.
// Column order of the kept slice follows the input header.
func DropLeakage(columns []string) (kept []string, dropped []string) {
	leaky := make(map[string]struct{}, len(Leakage))
	for _, c := range Leakage {
		leaky[c] = struct{}{}
	}

	kept = make([]string, 0, len(columns))
	for _, c := range columns {
		if _, ok := leaky[c]; ok {
			dropped = append(dropped, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

// IsLeakage reports whether a column belongs to the leakage set.
func IsLeakage(column string) bool {
	for _, c := range Leakage {
		if c == column {
			return true
		}
	}
	return false
}
