package id

import (
	"strings"
	"testing"
)

func TestRandomGenerator_Prefix(t *testing.T) {
	gen := NewRandomGenerator("run_")
	a, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	b, _ := gen.NewID()
	if !strings.HasPrefix(a, "run_") || len(a) != len("run_")+32 {
		t.Fatalf("unexpected id %q", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids")
	}
}
