package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"riskpipe/internal/hashing"
	"riskpipe/internal/ingest"
	"riskpipe/internal/pipeline"
	"riskpipe/internal/storage"
)

// Features runs the full preprocessing stage: schema guard, identifier
// hashing, windowed feature computation, sequence detection, and feature
// table export. The batch either fully succeeds or is rejected wholesale.
func (a *App) Features(ctx context.Context, opts FeaturesOptions) error {
	if opts.InputPath == "" {
		return errors.New("--input is required")
	}
	if opts.OutputPath == "" {
		return errors.New("--output is required")
	}

	reader := ingest.NewReader(a.Logger)
	txns, err := reader.ReadFile(opts.InputPath)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		return errors.New("input batch is empty")
	}

	origs := make([]string, len(txns))
	dests := make([]string, len(txns))
	for i, t := range txns {
		origs[i] = t.NameOrig
		dests[i] = t.NameDest
	}

	hasher := hashing.New(a.Config.Pipeline.HashSalt)
	ids := hashing.BuildIdentityMap(hasher, origs, dests)
	a.Logger.Info().Int("distinct_identifiers", ids.Size()).Msg("identity map built")

	engine := pipeline.NewEngine(a.pipelineConfig(), a.Logger)
	rows := engine.Compute(txns, ids)

	if err := writeFeatureCSV(opts.OutputPath, rows); err != nil {
		return err
	}
	a.Logger.Info().Int("rows", len(rows)).Str("path", opts.OutputPath).Msg("feature table written")

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Debug().Msg("database.dsn not configured; persistence skipped")
		return nil
	}
	defer closeStore()

	return a.persistFeatures(ctx, store, opts.Batch, txns, rows)
}

func (a *App) persistFeatures(ctx context.Context, store storage.FeatureStore, batch string, txns []pipeline.Transaction, rows []pipeline.FeatureRow) error {
	samples := make([]storage.FeatureSample, len(rows))
	for i, r := range rows {
		samples[i] = storage.FeatureSample{
			Batch:               batch,
			RecordIndex:         r.Index,
			Step:                r.Step,
			AccountID:           r.AccountID,
			CounterpartyID:      r.CounterpartyID,
			Amount:              txns[i].Amount,
			IsFraud:             r.IsFraud,
			TransferThenCashout: r.TransferThenCashout,
		}
	}

	if err := store.InsertFeatureSamples(ctx, samples); err != nil {
		return err
	}

	count, err := store.CountFeatureSamples(ctx, batch)
	if err != nil {
		return err
	}
	a.Logger.Info().Str("batch", batch).Int64("stored_rows", count).Msg("feature batch persisted")
	return nil
}

func writeFeatureCSV(path string, rows []pipeline.FeatureRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(pipeline.Columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return err
		}
	}
	return writer.Error()
}

// readFeatureCSV loads a feature table previously written by Features.
// Columns are resolved by name so extra columns are tolerated.
func readFeatureCSV(path string) ([]pipeline.FeatureRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open features: %w", err)
	}
	defer file.Close()

	cr := csv.NewReader(file)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read feature header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range pipeline.Columns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("feature table missing column %q", name)
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feature rows: %w", err)
	}

	rows := make([]pipeline.FeatureRow, len(records))
	for i, rec := range records {
		row, err := parseFeatureRecord(rec, col)
		if err != nil {
			return nil, fmt.Errorf("feature row %d: %w", i+1, err)
		}
		rows[i] = row
	}
	return rows, nil
}

func parseFeatureRecord(rec []string, col map[string]int) (pipeline.FeatureRow, error) {
	var row pipeline.FeatureRow
	var err error

	intField := func(name string, dst *int) {
		if err != nil {
			return
		}
		var v int
		if v, err = parseInt(rec[col[name]]); err == nil {
			*dst = v
		} else {
			err = fmt.Errorf("column %s: %w", name, err)
		}
	}
	floatField := func(name string, dst *float64) {
		if err != nil {
			return
		}
		var v float64
		if v, err = parseFloat(rec[col[name]]); err == nil {
			*dst = v
		} else {
			err = fmt.Errorf("column %s: %w", name, err)
		}
	}

	intField("index", &row.Index)
	intField("step", &row.Step)
	intField("isFraud", &row.IsFraud)
	intField("isFlaggedFraud", &row.IsFlaggedFraud)
	intField("hour", &row.Hour)
	intField("day", &row.Day)
	intField("is_night", &row.IsNight)
	intField("time_since_last_txn", &row.TimeSinceLast)
	intField("txn_count_window", &row.TxnCount)
	intField("type_CASH_IN", &row.IsCashIn)
	intField("type_CASH_OUT", &row.IsCashOut)
	intField("type_DEBIT", &row.IsDebit)
	intField("type_PAYMENT", &row.IsPayment)
	intField("type_TRANSFER", &row.IsTransfer)
	intField("transfer_then_cashout_window", &row.TransferThenCashout)
	floatField("amount", &row.Amount)
	floatField("avg_amount_window", &row.AvgAmount)
	floatField("amount_deviation", &row.AmountDeviation)
	floatField("amount_ratio_window", &row.AmountRatio)
	if err != nil {
		return pipeline.FeatureRow{}, err
	}

	row.AccountID = rec[col["account_id"]]
	row.CounterpartyID = rec[col["counterparty_id"]]
	return row, nil
}

func parseInt(v string) (int, error) {
	return strconv.Atoi(v)
}

func parseFloat(v string) (float64, error) {
	return strconv.ParseFloat(v, 64)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
