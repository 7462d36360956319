package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseOutput(t *testing.T) {
	out := []byte(`{"text":" Hello world. Goodbye now. ","language":"en","duration":10.5,` +
		`"segments":[{"start":0.0,"end":3.5,"text":" Hello world. "},{"start":4.0,"end":9.0,"text":" Goodbye now. "}]}`)

	result, err := parseOutput(out)
	if err != nil {
		t.Fatalf("parseOutput() error = %v", err)
	}
	if result.Text != "Hello world. Goodbye now." {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Language != "en" || result.Duration != 10.5 {
		t.Fatalf("unexpected metadata: %+v", result)
	}
	if len(result.Segments) != 2 || result.Segments[0].Text != "Hello world." {
		t.Fatalf("unexpected segments: %+v", result.Segments)
	}
}

func TestParseOutputRejectsGarbage(t *testing.T) {
	if _, err := parseOutput([]byte("Traceback (most recent call last)")); err == nil {
		t.Fatal("expected error")
	}
}

func TestErrorIncludesStderr(t *testing.T) {
	err := &Error{Stderr: "RuntimeError: corrupt audio"}
	if !strings.Contains(err.Error(), "corrupt audio") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if (&Error{}).Error() == "" {
		t.Fatal("empty-stderr error must still have a message")
	}
}

func TestTrailingStderrTruncatesFromFront(t *testing.T) {
	long := strings.Repeat("x", 4000) + "final diagnostic"
	got := trailingStderr([]byte(long))
	if !strings.HasSuffix(got, "final diagnostic") {
		t.Fatalf("expected trailing output kept, got %q", got[:40])
	}
	if len(got) > 2051 {
		t.Fatalf("stderr not truncated: %d bytes", len(got))
	}
}

func TestTranscribeObservesCancelAndTimeoutSeparately(t *testing.T) {
	cases := []struct {
		name        string
		makeCtx     func() (context.Context, context.CancelFunc)
		wantErr     error
		wantOutcome string
	}{
		{
			name: "canceled",
			makeCtx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx, cancel
			},
			wantErr:     context.Canceled,
			wantOutcome: "canceled",
		},
		{
			name: "deadline exceeded",
			makeCtx: func() (context.Context, context.CancelFunc) {
				return context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
			},
			wantErr:     context.DeadlineExceeded,
			wantOutcome: "timeout",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var outcome string
			eng := NewWhisperEngine("definitely-not-a-python", "base", "cpu",
				WithObserver(func(o string, _ time.Duration) { outcome = o }))

			ctx, cancel := tc.makeCtx()
			defer cancel()
			_, err := eng.Transcribe(ctx, "a.wav")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Transcribe() error = %v, want %v", err, tc.wantErr)
			}
			if outcome != tc.wantOutcome {
				t.Fatalf("observed outcome = %q, want %q", outcome, tc.wantOutcome)
			}
		})
	}
}

type blockingEngine struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingEngine) Transcribe(ctx context.Context, _ string) (Result, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return Result{Text: "done"}, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func TestGateSerializesInvocations(t *testing.T) {
	inner := &blockingEngine{started: make(chan struct{}, 2), release: make(chan struct{})}
	gate := WithConcurrencyLimit(inner, 1)

	go func() { _, _ = gate.Transcribe(context.Background(), "a.wav") }()
	<-inner.started

	// Second invocation must block in the gate, not reach the engine.
	secondDone := make(chan error, 1)
	go func() {
		_, err := gate.Transcribe(context.Background(), "b.wav")
		secondDone <- err
	}()

	select {
	case <-inner.started:
		t.Fatal("second invocation entered the engine while the first was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(inner.release)
	if err := <-secondDone; err != nil {
		t.Fatalf("second invocation error = %v", err)
	}
}

func TestGateRespectsContextWhileWaiting(t *testing.T) {
	inner := &blockingEngine{started: make(chan struct{}, 1), release: make(chan struct{})}
	gate := WithConcurrencyLimit(inner, 1)

	go func() { _, _ = gate.Transcribe(context.Background(), "a.wav") }()
	<-inner.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gate.Transcribe(ctx, "b.wav")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(inner.release)
}

type countingEngine struct {
	calls int
}

func (c *countingEngine) Transcribe(context.Context, string) (Result, error) {
	c.calls++
	return Result{}, nil
}

func TestGateRejectsCanceledContextEvenWithFreeSlot(t *testing.T) {
	inner := &countingEngine{}
	gate := WithConcurrencyLimit(inner, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gate.Transcribe(ctx, "a.wav"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 0 {
		t.Fatalf("engine invoked %d times with canceled context", inner.calls)
	}
}
