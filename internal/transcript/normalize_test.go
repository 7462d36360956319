package transcript

import (
	"math"
	"testing"

	"audioscribe/internal/engine"
)

func TestNormalizeDerivesMinutesAndSeconds(t *testing.T) {
	raw := []engine.Segment{
		{Start: 0.0, End: 3.5, Text: "Hello world"},
		{Start: 4.0, End: 9.0, Text: "Goodbye now"},
		{Start: 59.9, End: 61.0, Text: "a"},
		{Start: 60.0, End: 65.0, Text: "b"},
		{Start: 3599.5, End: 3601.2, Text: "c"},
	}

	segments, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(segments) != len(raw) {
		t.Fatalf("unexpected segment count: %d", len(segments))
	}

	wantMinutes := []int{0, 0, 0, 1, 59}
	wantSeconds := []int{0, 4, 59, 0, 59}
	for i, seg := range segments {
		if seg.Minutes != wantMinutes[i] || seg.Seconds != wantSeconds[i] {
			t.Fatalf("segment %d: got %d:%02d want %d:%02d", i, seg.Minutes, seg.Seconds, wantMinutes[i], wantSeconds[i])
		}
		if got, want := seg.Minutes*60+seg.Seconds, int(math.Floor(seg.Start)); got != want {
			t.Fatalf("segment %d: minutes*60+seconds = %d, floor(start) = %d", i, got, want)
		}
		if seg.Start != raw[i].Start || seg.End != raw[i].End || seg.Text != raw[i].Text {
			t.Fatalf("segment %d: fields not preserved: %+v", i, seg)
		}
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	raw := []engine.Segment{
		{Start: 10, End: 12, Text: "second"},
		{Start: 0, End: 2, Text: "first"},
	}

	segments, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if segments[0].Text != "second" || segments[1].Text != "first" {
		t.Fatalf("normalizer must not re-sort: %+v", segments)
	}
}

func TestNormalizeEmptyInputIsValid(t *testing.T) {
	segments, err := Normalize(nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if segments == nil || len(segments) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", segments)
	}
}

func TestNormalizeRejectsInvalidOffsets(t *testing.T) {
	cases := map[string][]engine.Segment{
		"negative start":   {{Start: -0.1, End: 1, Text: "x"}},
		"NaN start":        {{Start: math.NaN(), End: 1, Text: "x"}},
		"NaN end":          {{Start: 0, End: math.NaN(), Text: "x"}},
		"end before start": {{Start: 5, End: 4, Text: "x"}},
	}

	for name, raw := range cases {
		if _, err := Normalize(raw); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestAssembleBuildsFullPayload(t *testing.T) {
	result, err := Assemble(engine.Result{
		Text:     "Hello world Goodbye now",
		Language: "en",
		Duration: 10.5,
		Segments: []engine.Segment{
			{Start: 0.0, End: 3.5, Text: "Hello world"},
			{Start: 4.0, End: 9.0, Text: "Goodbye now"},
		},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if result.Text != "Hello world Goodbye now" || result.Language != "en" || result.Duration != 10.5 {
		t.Fatalf("unexpected payload: %+v", result)
	}
	if len(result.Segments) != 2 || result.Segments[1].Minutes != 0 || result.Segments[1].Seconds != 4 {
		t.Fatalf("unexpected segments: %+v", result.Segments)
	}
}

func TestAssembleFailsOnBadSegments(t *testing.T) {
	_, err := Assemble(engine.Result{
		Segments: []engine.Segment{{Start: -1, End: 0, Text: "x"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
