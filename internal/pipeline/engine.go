// Package pipeline computes the per-account, time-ordered behavioral
// feature table from a validated transaction batch. Windowing is expressed
// as explicit stages: group by account, stable sort by time, per-group
// scans, then reassembly into original row order.
package pipeline

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"riskpipe/internal/hashing"
)

// Config fixes the window and horizon parameters for one batch. Immutable
// after construction; there is no ambient configuration lookup.
type Config struct {
	// Window is the trailing record count for rolling aggregates.
	Window int
	// RecencyHorizon clips time_since_last_txn.
	RecencyHorizon int
	// SequenceHorizon bounds the transfer-then-cashout lookback.
	SequenceHorizon int
	// Epsilon keeps amount_ratio finite when the rolling mean is zero.
	Epsilon float64
	// Workers caps parallel per-account-group computation. <=1 runs serially.
	Workers int
}

// Engine derives FeatureRows from Transactions.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger.With().Str("component", "pipeline").Logger()}
}

// Compute produces one FeatureRow per Transaction, index-aligned to the
// input. The identity map must be fully built before this call; it is only
// read here, so groups can be processed concurrently without locking.
func (e *Engine) Compute(txns []Transaction, ids *hashing.IdentityMap) []FeatureRow {
	rows := make([]FeatureRow, len(txns))
	for i, t := range txns {
		rows[i] = e.baseRow(t, ids)
	}

	groups := groupByAccount(rows)
	e.logger.Debug().Int("rows", len(rows)).Int("groups", len(groups)).Msg("computing windowed features")

	workers := e.cfg.Workers
	if workers <= 1 || len(groups) == 1 {
		for _, g := range groups {
			e.computeGroup(rows, g)
		}
		return rows
	}

	jobs := make(chan []int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				e.computeGroup(rows, g)
			}
		}()
	}
	for _, g := range groups {
		jobs <- g
	}
	close(jobs)
	wg.Wait()

	return rows
}

// baseRow fills the columns that need no ordering: hashed keys, calendar
// decomposition, and one-hot type flags.
func (e *Engine) baseRow(t Transaction, ids *hashing.IdentityMap) FeatureRow {
	hour := t.Step % 24
	night := 0
	if hour >= 0 && hour <= 5 {
		night = 1
	}

	row := FeatureRow{
		Index:          t.Index,
		Step:           t.Step,
		AccountID:      ids.Lookup(t.NameOrig),
		CounterpartyID: ids.Lookup(t.NameDest),
		Amount:         t.Amount.InexactFloat64(),
		IsFraud:        t.IsFraud,
		IsFlaggedFraud: t.IsFlaggedFraud,
		Hour:           hour,
		Day:            t.Step / 24,
		IsNight:        night,
	}

	switch t.Type {
	case TypeCashIn:
		row.IsCashIn = 1
	case TypeCashOut:
		row.IsCashOut = 1
	case TypeDebit:
		row.IsDebit = 1
	case TypePayment:
		row.IsPayment = 1
	case TypeTransfer:
		row.IsTransfer = 1
	}

	return row
}

// groupByAccount buckets row positions by account key. Group order is made
// deterministic by sorting keys, which keeps logs and tests stable; the
// output itself is order-independent since rows land at their own position.
func groupByAccount(rows []FeatureRow) [][]int {
	byAccount := make(map[string][]int)
	for i, r := range rows {
		byAccount[r.AccountID] = append(byAccount[r.AccountID], i)
	}

	keys := make([]string, 0, len(byAccount))
	for k := range byAccount {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([][]int, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, byAccount[k])
	}
	return groups
}

// computeGroup runs the ordered scans for one account group. positions
// index into rows; each position is owned by exactly one group, so writes
// need no synchronization.
func (e *Engine) computeGroup(rows []FeatureRow, positions []int) {
	// Stable order: by step, ties by original row order.
	order := append([]int(nil), positions...)
	sort.SliceStable(order, func(a, b int) bool {
		if rows[order[a]].Step != rows[order[b]].Step {
			return rows[order[a]].Step < rows[order[b]].Step
		}
		return rows[order[a]].Index < rows[order[b]].Index
	})

	var (
		prevStep     int
		windowSum    float64
		lastTransfer = -1
	)

	for i, pos := range order {
		row := &rows[pos]

		// Recency: gap to the previous record in the same account,
		// clipped to the horizon; the first record is defined as 0.
		if i == 0 {
			row.TimeSinceLast = 0
		} else {
			gap := row.Step - prevStep
			if gap > e.cfg.RecencyHorizon {
				gap = e.cfg.RecencyHorizon
			}
			row.TimeSinceLast = gap
		}
		prevStep = row.Step

		// Trailing window over the last Window records including the
		// current one; degrades to fewer elements near the group start.
		windowSum += row.Amount
		if i >= e.cfg.Window {
			windowSum -= rows[order[i-e.cfg.Window]].Amount
		}
		count := i + 1
		if count > e.cfg.Window {
			count = e.cfg.Window
		}
		row.TxnCount = count
		row.AvgAmount = windowSum / float64(count)
		row.AmountDeviation = row.Amount - row.AvgAmount
		// Bounded precision, matching the single-precision cast the
		// downstream model was trained against.
		row.AmountRatio = float64(float32(row.Amount / (row.AvgAmount + e.cfg.Epsilon)))

		// Forward-filled last transfer step, reset at group boundaries
		// by construction. "No prior transfer" means flag 0, not an error.
		if row.IsTransfer == 1 {
			lastTransfer = row.Step
		}
		if lastTransfer >= 0 && row.Step-lastTransfer <= e.cfg.SequenceHorizon {
			row.TransferInWindow = 1
		}
		row.TransferThenCashout = row.TransferInWindow * row.IsCashOut
	}
}
