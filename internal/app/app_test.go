package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"riskpipe/internal/config"
	"riskpipe/internal/explain"
	"riskpipe/internal/pipeline"
	"riskpipe/internal/schema"
)

const rawBatch = `step,type,amount,nameOrig,oldbalanceOrg,newbalanceOrig,nameDest,oldbalanceDest,newbalanceDest,isFraud,isFlaggedFraud
0,TRANSFER,10.0,C1,100.0,90.0,C2,0.0,10.0,0,0
3,CASH_OUT,20.0,C1,90.0,70.0,M1,0.0,0.0,1,0
30,CASH_OUT,1000.0,C1,70.0,0.0,M1,0.0,0.0,1,0
5,PAYMENT,42.5,C3,10.0,5.0,M2,0.0,0.0,0,0
`

func testApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.Pipeline = config.PipelineConfig{
		HashSalt:        "test_salt",
		Window:          24,
		RecencyHorizon:  168,
		SequenceHorizon: 6,
		Epsilon:         1e-6,
		Workers:         2,
	}
	cfg.Policy = config.PolicyConfig{Threshold: 0.5, BlockLabel: "BLOCK", AllowLabel: "ALLOW"}
	cfg.Explain = config.ExplainConfig{TopRisk: 2, BaselineSize: 3, BaselineSeed: 42, TopDrivers: 5, GlobalTop: 10}
	return NewApp(cfg, zerolog.Nop())
}

func writeRaw(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "raw.csv")
	if err := os.WriteFile(path, []byte(rawBatch), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFeaturesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	a := testApp(t)

	out := filepath.Join(dir, "features.csv")
	err := a.Features(context.Background(), FeaturesOptions{
		InputPath:  writeRaw(t, dir),
		OutputPath: out,
		Batch:      "test",
	})
	if err != nil {
		t.Fatalf("features run failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, leak := range schema.Leakage {
		if bytes.Contains(data, []byte(leak)) {
			t.Fatalf("output contains leakage column %s", leak)
		}
	}

	rows, err := readFeatureCSV(out)
	if err != nil {
		t.Fatalf("round-trip read failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}

	// The 0/3/30 transfer-then-cashout example.
	if rows[1].TransferThenCashout != 1 {
		t.Fatal("cash-out at step 3 should carry the sequence flag")
	}
	if rows[2].TransferThenCashout != 0 {
		t.Fatal("cash-out at step 30 should not carry the sequence flag")
	}

	// Hashed keys, not raw identifiers.
	if rows[0].AccountID == "C1" || len(rows[0].AccountID) != 64 {
		t.Fatalf("account id not hashed: %q", rows[0].AccountID)
	}
}

func TestFeaturesDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := testApp(t)
	raw := writeRaw(t, dir)

	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	for _, out := range []string{first, second} {
		if err := a.Features(context.Background(), FeaturesOptions{InputPath: raw, OutputPath: out}); err != nil {
			t.Fatal(err)
		}
	}

	b1, _ := os.ReadFile(first)
	b2, _ := os.ReadFile(second)
	if !bytes.Equal(b1, b2) {
		t.Fatal("repeated runs should produce identical feature tables")
	}
}

func TestFeaturesRejectsBadSchema(t *testing.T) {
	dir := t.TempDir()
	a := testApp(t)

	raw := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(raw, []byte("step,amount\n1,10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := a.Features(context.Background(), FeaturesOptions{InputPath: raw, OutputPath: filepath.Join(dir, "out.csv")})
	if err == nil {
		t.Fatal("missing columns should reject the batch")
	}
}

func writeScores(t *testing.T, dir string, scores []string) string {
	t.Helper()
	path := filepath.Join(dir, "scores.csv")
	content := "index,score\n"
	for i, s := range scores {
		content += fmt.Sprintf("%d,%s\n", i, s)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSampleAndExplainEndToEnd(t *testing.T) {
	dir := t.TempDir()
	a := testApp(t)

	featuresPath := filepath.Join(dir, "features.csv")
	if err := a.Features(context.Background(), FeaturesOptions{InputPath: writeRaw(t, dir), OutputPath: featuresPath}); err != nil {
		t.Fatal(err)
	}

	scoresPath := writeScores(t, dir, []string{"0.1", "0.95", "0.7", "0.2"})

	indicesPath := filepath.Join(dir, "indices.json")
	if err := a.Sample(context.Background(), SampleOptions{ScoresPath: scoresPath, OutputPath: indicesPath}); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Indices []int `json:"indices"`
	}
	data, err := os.ReadFile(indicesPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Indices) == 0 || len(doc.Indices) > 5 {
		t.Fatalf("union size out of bounds: %v", doc.Indices)
	}

	// Fake the attribution collaborator: one impact row per sampled index.
	impacts := map[string]any{
		"features": pipeline.FeatureColumns,
		"indices":  doc.Indices,
		"values":   impactRows(len(doc.Indices)),
	}
	impactsPath := filepath.Join(dir, "impacts.json")
	impactsData, err := json.Marshal(impacts)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(impactsPath, impactsData, 0o644); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, "explanations.json")
	globalPath := filepath.Join(dir, "global.json")
	err = a.Explain(context.Background(), ExplainOptions{
		FeaturesPath: featuresPath,
		ScoresPath:   scoresPath,
		ImpactsPath:  impactsPath,
		OutputPath:   outPath,
		GlobalPath:   globalPath,
	})
	if err != nil {
		t.Fatalf("explain run failed: %v", err)
	}

	var records []explain.ExplanationRecord
	outData, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(outData, &records); err != nil {
		t.Fatal(err)
	}

	if len(records) != 2 {
		t.Fatalf("explanations = %d, want top_risk 2", len(records))
	}
	if records[0].RecordIndex != 1 || records[0].Decision != "BLOCK" {
		t.Fatalf("riskiest record wrong: %+v", records[0])
	}
	if records[1].RecordIndex != 2 || records[1].Decision != "BLOCK" {
		t.Fatalf("second record wrong: %+v", records[1])
	}
	for _, rec := range records {
		if len(rec.TopDrivers) != 5 {
			t.Fatalf("record %d drivers = %d, want 5", rec.RecordIndex, len(rec.TopDrivers))
		}
	}

	if _, err := os.Stat(globalPath); err != nil {
		t.Fatalf("global importance artifact missing: %v", err)
	}
}

func impactRows(n int) [][]float64 {
	values := make([][]float64, n)
	for i := range values {
		row := make([]float64, len(pipeline.FeatureColumns))
		for j := range row {
			row[j] = float64((i+1)*(j+1)) * 0.01
		}
		values[i] = row
	}
	return values
}

func TestLoadScoresValidation(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(path, []byte("score\n1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadScores(path); err == nil {
		t.Fatal("score outside [0,1] should fail")
	}

	if err := os.WriteFile(path, []byte("index,score\n3,0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadScores(path); err == nil {
		t.Fatal("out-of-order index should fail")
	}

	if err := os.WriteFile(path, []byte("value\n0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadScores(path); err == nil {
		t.Fatal("missing score column should fail")
	}
}
