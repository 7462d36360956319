// Package transcript turns raw engine output into the response schema.
// It is pure: no I/O, no clock, no shared state.
package transcript

import (
	"fmt"
	"math"

	"audioscribe/internal/engine"
	"audioscribe/internal/model"
)

// Normalize maps raw engine segments to response segments, deriving
// the minute/second fields from each start offset. Ordering is
// preserved as-is; the engine emits segments already time-ordered.
//
// A negative or NaN start offset is an engine contract violation and
// fails the whole transformation rather than being clamped.
func Normalize(raw []engine.Segment) ([]model.Segment, error) {
	segments := make([]model.Segment, 0, len(raw))
	for i, seg := range raw {
		if math.IsNaN(seg.Start) || math.IsNaN(seg.End) {
			return nil, fmt.Errorf("segment %d: NaN time bound", i)
		}
		if seg.Start < 0 {
			return nil, fmt.Errorf("segment %d: negative start offset %v", i, seg.Start)
		}
		if seg.End < seg.Start {
			return nil, fmt.Errorf("segment %d: end %v before start %v", i, seg.End, seg.Start)
		}

		whole := int(math.Floor(seg.Start))
		segments = append(segments, model.Segment{
			Start:   seg.Start,
			End:     seg.End,
			Text:    seg.Text,
			Minutes: whole / 60,
			Seconds: whole % 60,
		})
	}
	return segments, nil
}

// Assemble builds the full response payload from an engine result.
func Assemble(raw engine.Result) (model.TranscriptionResponse, error) {
	segments, err := Normalize(raw.Segments)
	if err != nil {
		return model.TranscriptionResponse{}, err
	}
	return model.TranscriptionResponse{
		Text:     raw.Text,
		Segments: segments,
		Duration: raw.Duration,
		Language: raw.Language,
	}, nil
}
