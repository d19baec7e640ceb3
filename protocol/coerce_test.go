package protocol

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBoolRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		got, err := ParseBool(FormatBool(b))
		if err != nil {
			t.Fatalf("parse %v: %v", b, err)
		}
		if got != b {
			t.Fatalf("expected %v, got %v", b, got)
		}
	}
}

func TestParseBoolIsCaseSensitive(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "false", "1", ""} {
		if _, err := ParseBool(s); !errors.Is(err, ErrProtocol) {
			t.Fatalf("expected ErrProtocol for %q, got %v", s, err)
		}
	}
	if v, err := ParseBool("True\n"); err != nil || !v {
		t.Fatalf("expected trailing newline to be tolerated, got %v %v", v, err)
	}
}

func TestParseNumbers(t *testing.T) {
	f, err := ParseFloat(" 3.25\n")
	if err != nil || f != 3.25 {
		t.Fatalf("expected 3.25, got %v %v", f, err)
	}
	if _, err := ParseFloat("abc"); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	n, err := ParseInt("12")
	if err != nil || n != 12 {
		t.Fatalf("expected 12, got %v %v", n, err)
	}
	n, err = ParseInt("12.0")
	if err != nil || n != 12 {
		t.Fatalf("expected 12 from float notation, got %v %v", n, err)
	}
	if _, err := ParseInt("12.5"); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestParseDims(t *testing.T) {
	nx, ny, err := ParseDims("20 30")
	if err != nil {
		t.Fatalf("parse dims: %v", err)
	}
	if nx != 20 || ny != 30 {
		t.Fatalf("expected 20x30, got %dx%d", nx, ny)
	}
	for _, bad := range []string{"", "20", "a b", "1 -2", "1 2 3"} {
		if _, _, err := ParseDims(bad); !errors.Is(err, ErrProtocol) {
			t.Fatalf("expected ErrProtocol for %q, got %v", bad, err)
		}
	}
}

func TestSplitList(t *testing.T) {
	if diff := cmp.Diff([]string{"V1", "V2", "V3"}, SplitList("V1|V2|V3")); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Fatalf("expected empty list, got %#v", got)
	}
	if diff := cmp.Diff([]string{"only"}, SplitList("only\n")); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitBracketList(t *testing.T) {
	got, err := SplitBracketList("[P1][Label (L2)] [B3]")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if diff := cmp.Diff([]string{"P1", "Label (L2)", "B3"}, got); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
	got, err = SplitBracketList("")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %#v %v", got, err)
	}
	for _, bad := range []string{"P1", "[P1", "[P1]x"} {
		if _, err := SplitBracketList(bad); !errors.Is(err, ErrProtocol) {
			t.Fatalf("expected ErrProtocol for %q, got %v", bad, err)
		}
	}
}
