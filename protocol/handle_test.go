package protocol

import (
	"errors"
	"testing"
)

func TestExtractHandle(t *testing.T) {
	cases := []struct {
		reply string
		want  string
	}{
		{reply: "Finished editing HANDLE123", want: "HANDLE123"},
		{reply: "Finished editing V3\n", want: "V3"},
		{reply: "Finished editing Time (V1)", want: "Time (V1)"},
		{reply: "editing ing P1", want: "ing P1"},
	}
	for _, tc := range cases {
		h, err := ExtractHandle(tc.reply)
		if err != nil {
			t.Fatalf("extract %q: %v", tc.reply, err)
		}
		if h.String() != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, h.String())
		}
	}
}

func TestExtractHandleRejectsMissingMarker(t *testing.T) {
	for _, reply := range []string{"", "Ok", "Finished editing", "Finished editing   "} {
		_, err := ExtractHandle(reply)
		if !errors.Is(err, ErrProtocol) {
			t.Fatalf("expected ErrProtocol for %q, got %v", reply, err)
		}
	}
}

func TestAttachValidatesName(t *testing.T) {
	h, err := Attach("  V7 ")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if h.String() != "V7" {
		t.Fatalf("expected V7, got %q", h.String())
	}
	for _, bad := range []string{"", "a,b", "x\ny"} {
		if _, err := Attach(bad); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument for %q, got %v", bad, err)
		}
	}
}

func TestZeroHandle(t *testing.T) {
	var h Handle
	if !h.IsZero() {
		t.Fatalf("expected zero handle")
	}
	p, err := ParseHandle("C2\n")
	if err != nil {
		t.Fatalf("parse handle: %v", err)
	}
	if p.IsZero() || p.String() != "C2" {
		t.Fatalf("unexpected handle %q", p.String())
	}
}
