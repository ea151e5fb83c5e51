package ifc

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewGUID_Shape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		g := NewGUID()
		if len(g) != 22 {
			t.Fatalf("expected 22 characters, got %d (%q)", len(g), g)
		}
		for i := 0; i < len(g); i++ {
			if !strings.ContainsRune(guidChars, rune(g[i])) {
				t.Fatalf("invalid character %q in %q", g[i], g)
			}
		}
		if seen[g] {
			t.Fatalf("duplicate guid %q", g)
		}
		seen[g] = true
	}
}

func TestCompressGUID_RoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		u := uuid.New()
		s := CompressGUID(u)
		back, ok := ExpandGUID(s)
		if !ok {
			t.Fatalf("expand failed for %q", s)
		}
		if back != u {
			t.Fatalf("round trip mismatch: %v -> %q -> %v", u, s, back)
		}
	}
}

func TestCompressGUID_ZeroUUID(t *testing.T) {
	var u uuid.UUID
	if got := CompressGUID(u); got != strings.Repeat("0", 22) {
		t.Errorf("expected all zeros, got %q", got)
	}
}

func TestExpandGUID_Malformed(t *testing.T) {
	cases := []string{
		"",
		"short",
		strings.Repeat("0", 21),
		strings.Repeat("0", 23),
		"!" + strings.Repeat("0", 21), // invalid character
		"40" + strings.Repeat("0", 20), // first pair exceeds one byte
	}
	for _, s := range cases {
		if _, ok := ExpandGUID(s); ok {
			t.Errorf("expected failure for %q", s)
		}
	}
}
