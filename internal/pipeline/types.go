package pipeline

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Known transaction types in the PaySim ledger. One-hot columns are
// emitted for every known type even when a batch never carries it.
const (
	TypeCashIn   = "CASH_IN"
	TypeCashOut  = "CASH_OUT"
	TypeDebit    = "DEBIT"
	TypePayment  = "PAYMENT"
	TypeTransfer = "TRANSFER"
)

// KnownTypes fixes the one-hot column order.
var KnownTypes = []string{TypeCashIn, TypeCashOut, TypeDebit, TypePayment, TypeTransfer}

// Transaction is one raw ledger row after schema validation and leakage
// removal. It is immutable once read; Index is the original row position
// and survives the internal group/sort so output stays index-aligned.
type Transaction struct {
	Index          int
	Step           int
	Type           string
	Amount         decimal.Decimal
	NameOrig       string
	NameDest       string
	IsFraud        int
	IsFlaggedFraud int
}

// FeatureRow is one row of the feature table: hashed keys, calendar
// decomposition, windowed aggregates, one-hot type flags, and the
// transfer-then-cashout sequence signal. Leakage balance fields never
// appear here.
type FeatureRow struct {
	Index          int
	Step           int
	AccountID      string
	CounterpartyID string
	Amount         float64
	IsFraud        int
	IsFlaggedFraud int

	Hour    int
	Day     int
	IsNight int

	TimeSinceLast   int
	TxnCount        int
	AvgAmount       float64
	AmountDeviation float64
	AmountRatio     float64

	IsCashIn   int
	IsCashOut  int
	IsDebit    int
	IsPayment  int
	IsTransfer int

	TransferInWindow    int
	TransferThenCashout int
}

// Columns is the stable header of the exported feature table.
var Columns = []string{
	"index",
	"step",
	"account_id",
	"counterparty_id",
	"amount",
	"isFraud",
	"isFlaggedFraud",
	"hour",
	"day",
	"is_night",
	"time_since_last_txn",
	"txn_count_window",
	"avg_amount_window",
	"amount_deviation",
	"amount_ratio_window",
	"type_CASH_IN",
	"type_CASH_OUT",
	"type_DEBIT",
	"type_PAYMENT",
	"type_TRANSFER",
	"transfer_then_cashout_window",
}

// FeatureColumns names the numeric feature columns, in the order the
// score/impact collaborators must align to.
var FeatureColumns = []string{
	"amount",
	"hour",
	"day",
	"is_night",
	"time_since_last_txn",
	"txn_count_window",
	"avg_amount_window",
	"amount_deviation",
	"amount_ratio_window",
	"type_CASH_IN",
	"type_CASH_OUT",
	"type_DEBIT",
	"type_PAYMENT",
	"type_TRANSFER",
	"transfer_then_cashout_window",
}

// FeatureValues returns the row's numeric features aligned to FeatureColumns.
func (r FeatureRow) FeatureValues() []float64 {
	return []float64{
		r.Amount,
		float64(r.Hour),
		float64(r.Day),
		float64(r.IsNight),
		float64(r.TimeSinceLast),
		float64(r.TxnCount),
		r.AvgAmount,
		r.AmountDeviation,
		r.AmountRatio,
		float64(r.IsCashIn),
		float64(r.IsCashOut),
		float64(r.IsDebit),
		float64(r.IsPayment),
		float64(r.IsTransfer),
		float64(r.TransferThenCashout),
	}
}

// Record renders the row as CSV fields aligned to Columns.
func (r FeatureRow) Record() []string {
	return []string{
		strconv.Itoa(r.Index),
		strconv.Itoa(r.Step),
		r.AccountID,
		r.CounterpartyID,
		strconv.FormatFloat(r.Amount, 'f', -1, 64),
		strconv.Itoa(r.IsFraud),
		strconv.Itoa(r.IsFlaggedFraud),
		strconv.Itoa(r.Hour),
		strconv.Itoa(r.Day),
		strconv.Itoa(r.IsNight),
		strconv.Itoa(r.TimeSinceLast),
		strconv.Itoa(r.TxnCount),
		strconv.FormatFloat(r.AvgAmount, 'f', -1, 64),
		strconv.FormatFloat(r.AmountDeviation, 'f', -1, 64),
		strconv.FormatFloat(r.AmountRatio, 'f', -1, 64),
		strconv.Itoa(r.IsCashIn),
		strconv.Itoa(r.IsCashOut),
		strconv.Itoa(r.IsDebit),
		strconv.Itoa(r.IsPayment),
		strconv.Itoa(r.IsTransfer),
		strconv.Itoa(r.TransferThenCashout),
	}
}
