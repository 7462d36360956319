package engine

import (
	"context"
	"fmt"
)

// Segment is one raw time-bounded span as produced by the engine,
// offsets in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the complete output of one engine invocation. Immutable
// once returned.
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
}

// Engine converts one staged audio file to text. Implementations must
// be safe for concurrent invocation or be wrapped with a gate.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}

// Error reports a failed engine invocation. Stderr holds the trailing
// diagnostic output of the engine process.
type Error struct {
	Stderr string
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return "engine invocation failed"
	}
	return fmt.Sprintf("engine invocation failed: %s", e.Stderr)
}
