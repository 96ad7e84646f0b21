// Package hashing provides the salted one-way mapping from raw account
// identifiers to opaque keys, plus the per-batch identity map built once
// over the distinct identifiers of a batch.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sentinel is returned for a null/empty identifier. It is a fixed value,
// never a computed digest, so missing identities stay distinguishable.
const Sentinel = "MISSING_IDENTITY"

// Hasher maps raw identifiers to hex digests using a fixed salt.
type Hasher struct {
	salt string
}

// New constructs a Hasher with the given salt.
func New(salt string) Hasher {
	return Hasher{salt: salt}
}

// Digest returns hex(sha256(id + "_" + salt)) for a non-empty identifier
// and Sentinel for the empty one. Same identifier and salt always yield
// the same digest, regardless of the role the identifier appears in.
func (h Hasher) Digest(id string) string {
	if id == "" {
		return Sentinel
	}
	sum := sha256.Sum256([]byte(id + "_" + h.salt))
	return hex.EncodeToString(sum[:])
}

// IdentityMap caches digests for the distinct identifiers of one batch.
// Build it fully before any lookup; it is never mutated afterwards, so
// concurrent reads need no locking.
type IdentityMap struct {
	hasher  Hasher
	digests map[string]string
}

// BuildIdentityMap hashes each distinct identifier exactly once. Empty
// identifiers are skipped; Lookup handles them via the sentinel.
func BuildIdentityMap(hasher Hasher, ids ...[]string) *IdentityMap {
	m := &IdentityMap{hasher: hasher, digests: make(map[string]string)}
	for _, role := range ids {
		for _, id := range role {
			if id == "" {
				continue
			}
			if _, ok := m.digests[id]; !ok {
				m.digests[id] = hasher.Digest(id)
			}
		}
	}
	return m
}

// Lookup returns the cached digest for an identifier, or Sentinel for the
// empty one. Identifiers outside the build set are hashed on the spot so
// every input has a defined output.
func (m *IdentityMap) Lookup(id string) string {
	if id == "" {
		return Sentinel
	}
	if digest, ok := m.digests[id]; ok {
		return digest
	}
	return m.hasher.Digest(id)
}

// Size reports the number of distinct identifiers cached.
func (m *IdentityMap) Size() int {
	return len(m.digests)
}
