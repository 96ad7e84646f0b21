package decision

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEvaluate(t *testing.T) {
	p := Policy{Threshold: 0.5, Labels: Labels{Block: "BLOCK_AND_REVIEW", Allow: "ALLOW"}}

	scores := []float64{0.3, 0.7}
	want := []string{"ALLOW", "BLOCK_AND_REVIEW"}
	for i, s := range scores {
		if got := p.Evaluate(s); got != want[i] {
			t.Fatalf("Evaluate(%f) = %s, want %s", s, got, want[i])
		}
	}

	// Threshold is inclusive on the block side.
	if p.Evaluate(0.5) != "BLOCK_AND_REVIEW" {
		t.Fatal("score equal to threshold should block")
	}
}

func TestValidate(t *testing.T) {
	bad := []Policy{
		{Threshold: -0.1, Labels: Labels{Block: "b", Allow: "a"}},
		{Threshold: 1.1, Labels: Labels{Block: "b", Allow: "a"}},
		{Threshold: 0.5, Labels: Labels{Block: "", Allow: "a"}},
		{Threshold: 0.5, Labels: Labels{Block: "b", Allow: ""}},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("policy %d should fail validation", i)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	doc := `{"threshold": 0.62, "decision_labels": {"block": "BLOCK", "allow": "ALLOW"}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p.Threshold != 0.62 || p.Labels.Block != "BLOCK" {
		t.Fatalf("unexpected policy: %+v", p)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file should error")
	}
}
