package compile

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParams_PositionalFollowsTextOrder(t *testing.T) {
	var p Params
	a := p.Add("a")
	b := p.Add(2)
	c := p.Add(nil)

	// b is placed before a in the text, as SET is before WHERE in an update.
	cql, values, err := p.Positional("x = " + b + ", y = " + c + " WHERE z = " + a)
	if err != nil {
		t.Fatalf("Positional() error: %v", err)
	}
	if want := "x = ?, y = ? WHERE z = ?"; cql != want {
		t.Errorf("got %q, want %q", cql, want)
	}
	if diff := cmp.Diff([]any{2, nil, "a"}, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
}

func TestParams_NoMarkers(t *testing.T) {
	var p Params
	cql, values, err := p.Positional(`SELECT * FROM "t"`)
	if err != nil {
		t.Fatalf("Positional() error: %v", err)
	}
	if cql != `SELECT * FROM "t"` || values != nil {
		t.Errorf("got %q %v", cql, values)
	}
}

func TestParams_Inline(t *testing.T) {
	var p Params
	text := "a = " + p.Add("it's") + " AND b IN (" + p.Add(1) + ", " + p.Add(2.5) + ")"

	got, err := p.Inline(text, DefaultEncoder)
	if err != nil {
		t.Fatalf("Inline() error: %v", err)
	}
	if want := "a = 'it''s' AND b IN (1, 2.5)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParams_MalformedMarkers(t *testing.T) {
	var p Params
	p.Add(1)

	tests := []struct {
		name string
		text string
	}{
		{"unterminated", "a = " + markerDelim + "0"},
		{"out of range", "a = " + markerDelim + "7" + markerDelim},
		{"not a number", "a = " + markerDelim + "x" + markerDelim},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := p.Positional(tt.text); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParams_InlineEncoderError(t *testing.T) {
	var p Params
	text := "a = " + p.Add(make(chan int))

	_, err := p.Inline(text, DefaultEncoder)
	if err == nil || !strings.Contains(err.Error(), "encode parameter 0") {
		t.Errorf("expected encode error, got %v", err)
	}
}
