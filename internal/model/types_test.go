package model

import "testing"

func TestActorId_HashIsStable(t *testing.T) {
	a := ActorId{Key: "grain-42"}
	h1 := a.Hash()
	h2 := a.Hash()
	if h1 != h2 {
		t.Fatalf("hash not stable: %d != %d", h1, h2)
	}
}

func TestActorId_HashNormalizesUnicode(t *testing.T) {
	// "e with acute" as a single composed code point vs. "e" + combining
	// acute accent must hash identically.
	composed := ActorId{Key: "café"}
	decomposed := ActorId{Key: "café"}

	if composed.Hash() != decomposed.Hash() {
		t.Fatalf("expected normalized hashes to match: %d != %d", composed.Hash(), decomposed.Hash())
	}
}

func TestActorId_Bucket_SingleBucket(t *testing.T) {
	// With B=1 every actor must hash to bucket 0 (invariant 8).
	ids := []ActorId{
		{Key: "a"}, {Key: "b"}, {Key: "system-placement", IsSystemTarget: true},
	}
	for _, id := range ids {
		if got := id.Bucket(1); got != 0 {
			t.Errorf("Bucket(1) for %q = %d, want 0", id.Key, got)
		}
	}
}

func TestEndpoint_Equal(t *testing.T) {
	a := Endpoint{Host: "gw1", Port: 9000, Generation: 1}
	b := Endpoint{Host: "gw1", Port: 9000, Generation: 1}
	c := Endpoint{Host: "gw1", Port: 9000, Generation: 2}

	if !a.Equal(b) {
		t.Error("expected a == b")
	}
	if a.Equal(c) {
		t.Error("expected a != c (different generation)")
	}
}

func TestEndpoint_AsGatewayURI_DropsGeneration(t *testing.T) {
	a := Endpoint{Host: "gw1", Port: 9000, Generation: 1}
	b := Endpoint{Host: "gw1", Port: 9000, Generation: 2}

	if a.AsGatewayURI() != b.AsGatewayURI() {
		t.Errorf("expected same gateway URI regardless of generation: %q != %q", a.AsGatewayURI(), b.AsGatewayURI())
	}
}
