package engine

import "context"

// gated bounds how many invocations of the wrapped engine run at once.
// A Whisper process saturates its device, so the slot count matches the
// engine's concurrency limit rather than the request rate.
type gated struct {
	inner Engine
	slots chan struct{}
}

// WithConcurrencyLimit wraps eng so that at most limit invocations run
// concurrently. A limit of 1 serializes the engine. Waiting respects
// context cancellation.
func WithConcurrencyLimit(eng Engine, limit int) Engine {
	if limit <= 0 {
		limit = 1
	}
	return &gated{inner: eng, slots: make(chan struct{}, limit)}
}

func (g *gated) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() { <-g.slots }()

	return g.inner.Transcribe(ctx, audioPath)
}
