package security

import (
	"strconv"
	"strings"
	"testing"
)

func TestGenerateShortCodeFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateShortCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(string(trackingCharset), r) {
				t.Fatalf("unexpected character %q in %q", r, code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatalf("codes do not look random: %v", seen)
	}
}

func TestGenerateRefundCodeFormat(t *testing.T) {
	code, err := GenerateRefundCode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(code, "REF-") {
		t.Fatalf("expected REF- prefix, got %q", code)
	}
	if len(code) != len("REF-")+6 {
		t.Fatalf("unexpected length for %q", code)
	}
}

func TestGenerateCollectionCodeRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCollectionCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 1000 || n > 9999 {
			t.Fatalf("code %d outside 4-digit range", n)
		}
	}
}
