package model

import (
	"hash/fnv"

	"golang.org/x/text/unicode/norm"
)

// Hash returns the stable, non-cryptographic 32-bit hash of an ActorId's
// key. The key is normalized to Unicode NFC first so that two callers
// spelling logically identical identities with different decomposed or
// composed code points land in the same bucket (see SPEC_FULL.md §3).
func (a ActorId) Hash() uint32 {
	normalized := norm.NFC.String(a.Key)
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalized))
	return h.Sum32()
}

// Bucket computes the sticky bucket index for this actor in a table of
// size b. b must be > 0.
func (a ActorId) Bucket(b int) int {
	return int(a.Hash() % uint32(b))
}
