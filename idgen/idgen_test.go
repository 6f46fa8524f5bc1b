package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7_Ordered(t *testing.T) {
	a := UUIDv7()
	b := UUIDv7()
	if len(a) != 36 || len(b) != 36 {
		t.Fatalf("uuid length: %d, %d", len(a), len(b))
	}
	if a >= b {
		t.Errorf("v7 ids should sort by creation order: %s >= %s", a, b)
	}
}

func TestNanoID(t *testing.T) {
	id := NanoID(0)
	if len(id) != DefaultNanoLen {
		t.Fatalf("default length: got %d", len(id))
	}
	for _, r := range NanoID(64) {
		if !strings.ContainsRune(nanoAlphabet, r) {
			t.Fatalf("character %q outside alphabet", r)
		}
	}
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		s := NanoID(12)
		if seen[s] {
			t.Fatalf("collision after %d ids", i)
		}
		seen[s] = true
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("run")
	if !strings.HasPrefix(id, "run_") {
		t.Fatalf("got %q", id)
	}
	if len(id) != len("run_")+DefaultNanoLen {
		t.Fatalf("length: got %d", len(id))
	}
}

func TestTimestamped(t *testing.T) {
	id := Timestamped("shot")
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		t.Fatalf("got %q, want three parts", id)
	}
	if len(parts[1]) != len("20060102T150405") {
		t.Errorf("timestamp segment: got %q", parts[1])
	}
}
