package storage

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// FeatureSample is one persisted feature-table row. Amount is carried as
// decimal so the stored value round-trips exactly.
type FeatureSample struct {
	Batch               string
	RecordIndex         int
	Step                int
	AccountID           string
	CounterpartyID      string
	Amount              decimal.Decimal
	IsFraud             int
	TransferThenCashout int
	CreatedAt           time.Time
}

// ExplanationRow is a persisted explanation for one top-risk transaction.
// Drivers holds the ranked top-k list as JSON.
type ExplanationRow struct {
	ID          int64
	Batch       string
	RecordIndex int
	RiskScore   float64
	FraudLabel  int
	Decision    string
	Drivers     json.RawMessage
	CreatedAt   time.Time
}
