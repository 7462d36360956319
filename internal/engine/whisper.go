package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	_ "embed"
)

//go:embed assets/transcribe.py
var helperScript []byte

type ObserverFunc func(outcome string, duration time.Duration)

type Option func(*WhisperEngine)

// WhisperEngine runs a local Whisper model through a Python helper
// process. The model variant and device are fixed at construction and
// shared by every invocation.
type WhisperEngine struct {
	pythonBin string
	model     string
	device    string
	observer  ObserverFunc
}

func WithObserver(observer ObserverFunc) Option {
	return func(e *WhisperEngine) {
		e.observer = observer
	}
}

func NewWhisperEngine(pythonBin, model, device string, opts ...Option) *WhisperEngine {
	e := &WhisperEngine{
		pythonBin: strings.TrimSpace(pythonBin),
		model:     strings.TrimSpace(model),
		device:    strings.TrimSpace(device),
	}
	if e.pythonBin == "" {
		e.pythonBin = "python3"
	}
	if e.device == "" {
		e.device = "cpu"
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *WhisperEngine) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	started := time.Now()
	outcome := "error"
	defer func() {
		if e.observer != nil {
			e.observer(outcome, time.Since(started))
		}
	}()

	scriptPath, err := writeHelperScript()
	if err != nil {
		return Result{}, fmt.Errorf("write helper script: %w", err)
	}
	defer func() { _ = os.Remove(scriptPath) }()

	cmd := exec.CommandContext(ctx, e.pythonBin, scriptPath,
		"--audio", audioPath,
		"--model", e.model,
		"--device", e.device,
	)
	cmd.Env = os.Environ()

	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.Canceled) {
				outcome = "canceled"
			} else {
				outcome = "timeout"
			}
			return Result{}, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, &Error{Stderr: trailingStderr(exitErr.Stderr)}
		}
		return Result{}, fmt.Errorf("run engine helper: %w", err)
	}

	result, err := parseOutput(out)
	if err != nil {
		return Result{}, err
	}
	outcome = "ok"
	return result, nil
}

func writeHelperScript() (string, error) {
	f, err := os.CreateTemp("", "audioscribe-whisper-*.py")
	if err != nil {
		return "", err
	}
	path := f.Name()
	if _, err := f.Write(helperScript); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return filepath.Clean(path), nil
}

func parseOutput(out []byte) (Result, error) {
	var parsed Result
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Result{}, fmt.Errorf("parse engine output: %w", err)
	}
	for i := range parsed.Segments {
		parsed.Segments[i].Text = strings.TrimSpace(parsed.Segments[i].Text)
	}
	parsed.Text = strings.TrimSpace(parsed.Text)
	return parsed, nil
}

func trailingStderr(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if len(s) <= 2048 {
		return s
	}
	return "..." + s[len(s)-2048:]
}
