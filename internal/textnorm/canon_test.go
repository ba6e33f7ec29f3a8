package textnorm

import "testing"

func TestCanonicalizeLowercasesAndCollapses(t *testing.T) {
	got := Canonicalize("  Proto-Germanic,   via Old   Norse!!")
	want := "proto-germanic via old norse"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCanonicalizeNormalizesDashesAndApostrophes(t *testing.T) {
	got := Canonicalize("O’Brien—Norse")
	want := "o'brien-norse"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCanonicalizeEmpty(t *testing.T) {
	if got := Canonicalize("   "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
