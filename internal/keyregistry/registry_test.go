package keyregistry

import "testing"

func TestInsertExtractRoundTrip(t *testing.T) {
	r := New()
	key := r.Insert("deadline-a")

	v, ok := r.Extract(key)
	if !ok || v != "deadline-a" {
		t.Fatalf("expected extract to return the inserted deadline, got v=%v ok=%v", v, ok)
	}
	if r.Contains(key) {
		t.Fatalf("expected key to no longer be live after extraction")
	}
}

func TestStaleGenerationRejected(t *testing.T) {
	r := New()
	first := r.Insert("a")
	if _, ok := r.Extract(first); !ok {
		t.Fatalf("expected first extract to succeed")
	}

	second := r.Insert("b") // reuses first's slot index, bumps generation
	if second.Index != first.Index {
		t.Fatalf("expected slot reuse, got different index")
	}
	if second.Generation == first.Generation {
		t.Fatalf("expected generation to change on reuse")
	}

	if _, ok := r.Extract(first); ok {
		t.Fatalf("expected stale key (old generation) to be rejected")
	}
	v, ok := r.Extract(second)
	if !ok || v != "b" {
		t.Fatalf("expected current-generation key to extract cleanly, got v=%v ok=%v", v, ok)
	}
}

func TestRemoveExpired(t *testing.T) {
	r := New()
	k1 := r.Insert(1)
	k2 := r.Insert(2)

	var expired []KeyID
	r.RemoveExpired(func(d any) bool { return d.(int) == 1 }, func(k KeyID, d any) {
		expired = append(expired, k)
	})

	if len(expired) != 1 || expired[0] != k1 {
		t.Fatalf("expected only k1 to expire, got %v", expired)
	}
	if !r.Contains(k2) {
		t.Fatalf("expected k2 to remain")
	}
	if r.Contains(k1) {
		t.Fatalf("expected k1 to be gone")
	}
}
