package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestDigestDeterministic(t *testing.T) {
	h := New("salt_v1")
	first := h.Digest("C12345")
	second := h.Digest("C12345")
	if first != second {
		t.Fatalf("digest not deterministic: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("digest should be 64 hex chars, got %d", len(first))
	}

	sum := sha256.Sum256([]byte("C12345_salt_v1"))
	if want := hex.EncodeToString(sum[:]); first != want {
		t.Fatalf("digest = %s, want %s", first, want)
	}
}

func TestDigestSaltChangesOutput(t *testing.T) {
	if New("a").Digest("C1") == New("b").Digest("C1") {
		t.Fatal("different salts should produce different digests")
	}
}

func TestDigestNullSentinel(t *testing.T) {
	if got := New("salt").Digest(""); got != Sentinel {
		t.Fatalf("empty identifier should map to sentinel, got %s", got)
	}
}

func TestIdentityMapSharedAcrossRoles(t *testing.T) {
	h := New("salt")
	m := BuildIdentityMap(h, []string{"C1", "C2"}, []string{"C2", "M9", ""})

	if m.Size() != 3 {
		t.Fatalf("expected 3 distinct identifiers, got %d", m.Size())
	}

	// A source appearing later as a destination maps to the same key.
	if m.Lookup("C2") != h.Digest("C2") {
		t.Fatal("lookup disagrees with direct digest")
	}
	if m.Lookup("") != Sentinel {
		t.Fatal("empty lookup should return sentinel")
	}
	// Identifiers outside the build set still resolve.
	if m.Lookup("C404") != h.Digest("C404") {
		t.Fatal("unseen identifier should hash on demand")
	}
}
