package words

import (
	"context"
	"testing"
)

func TestInitEmbeddedFallback(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Count() == 0 {
		t.Fatalf("embedded word list empty")
	}
	for _, w := range []string{"worldly", "yellow", "validation"} {
		if !Contains(w) {
			t.Errorf("Contains(%q) = false", w)
		}
	}
	if Contains("zzzzzz") {
		t.Errorf("Contains(zzzzzz) = true")
	}
	// Lookup is case-insensitive.
	if !Contains("Yellow") {
		t.Errorf("Contains(Yellow) = false")
	}
}

func TestNormalizeLinesDropsInvalid(t *testing.T) {
	got := normalizeLines("  Worldly \nhello\nnot-a-word\n\nYELLOW\n")
	want := map[string]bool{"worldly": true, "yellow": true}
	if len(got) != len(want) {
		t.Fatalf("normalizeLines = %v, want 2 entries", got)
	}
	for _, w := range got {
		if !want[w] {
			t.Errorf("unexpected entry %q", w)
		}
	}
}

func TestListChecker(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	ok, err := ListChecker{}.IsWord(context.Background(), "worldly")
	if err != nil || !ok {
		t.Errorf("IsWord(worldly) = %v, %v", ok, err)
	}
	ok, err = ListChecker{}.IsWord(context.Background(), "qqqqqq")
	if err != nil || ok {
		t.Errorf("IsWord(qqqqqq) = %v, %v", ok, err)
	}
}
