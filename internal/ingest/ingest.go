// Package ingest reads a raw ledger batch from CSV, applies the schema
// guard, drops leakage columns, and validates numeric integrity. A batch
// either loads fully or is rejected wholesale.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"riskpipe/internal/pipeline"
	"riskpipe/internal/schema"
)

// DataIntegrityError reports a row that violates a numeric guard
// (negative amount, label outside {0,1}).
type DataIntegrityError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("ingest: row %d column %s: %s (value %q)", e.Row, e.Column, e.Reason, e.Value)
}

// Reader loads transaction batches.
type Reader struct {
	logger zerolog.Logger
}

// NewReader constructs a Reader.
func NewReader(logger zerolog.Logger) *Reader {
	return &Reader{logger: logger.With().Str("component", "ingest").Logger()}
}

// ReadFile loads a full batch from a CSV file.
func (r *Reader) ReadFile(path string) ([]pipeline.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	return r.Read(file)
}

// Read loads a full batch from CSV. The header drives column lookup, so
// column order in the file is free; leakage columns are dropped and their
// absence is not an error.
func (r *Reader) Read(src io.Reader) ([]pipeline.Transaction, error) {
	cr := csv.NewReader(src)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if err := schema.Validate(header); err != nil {
		return nil, err
	}

	_, dropped := schema.DropLeakage(header)
	if len(dropped) > 0 {
		r.logger.Info().Strs("columns", dropped).Msg("dropping leakage columns")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	var txns []pipeline.Transaction
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		txn, err := parseRow(row, record, col)
		if err != nil {
			return nil, err
		}
		txn.Index = len(txns)
		txns = append(txns, txn)
	}

	r.logger.Info().Int("rows", len(txns)).Msg("batch loaded")
	return txns, nil
}

func parseRow(row int, record []string, col map[string]int) (pipeline.Transaction, error) {
	var txn pipeline.Transaction

	step, err := strconv.Atoi(record[col[schema.ColStep]])
	if err != nil {
		return txn, &DataIntegrityError{Row: row, Column: schema.ColStep, Value: record[col[schema.ColStep]], Reason: "not an integer time unit"}
	}

	amount, err := decimal.NewFromString(record[col[schema.ColAmount]])
	if err != nil {
		return txn, &DataIntegrityError{Row: row, Column: schema.ColAmount, Value: record[col[schema.ColAmount]], Reason: "not a number"}
	}
	if amount.IsNegative() {
		return txn, &DataIntegrityError{Row: row, Column: schema.ColAmount, Value: amount.String(), Reason: "negative transaction amount"}
	}

	isFraud, err := parseLabel(record[col[schema.ColIsFraud]])
	if err != nil {
		return txn, &DataIntegrityError{Row: row, Column: schema.ColIsFraud, Value: record[col[schema.ColIsFraud]], Reason: "label must be 0 or 1"}
	}

	isFlagged, err := parseLabel(record[col[schema.ColIsFlaggedFraud]])
	if err != nil {
		return txn, &DataIntegrityError{Row: row, Column: schema.ColIsFlaggedFraud, Value: record[col[schema.ColIsFlaggedFraud]], Reason: "label must be 0 or 1"}
	}

	txn.Step = step
	txn.Type = record[col[schema.ColType]]
	txn.Amount = amount
	txn.NameOrig = record[col[schema.ColNameOrig]]
	txn.NameDest = record[col[schema.ColNameDest]]
	txn.IsFraud = isFraud
	txn.IsFlaggedFraud = isFlagged
	return txn, nil
}

func parseLabel(v string) (int, error) {
	switch v {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, fmt.Errorf("invalid label %q", v)
}
