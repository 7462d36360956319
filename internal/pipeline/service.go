package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"audioscribe/internal/engine"
	"audioscribe/internal/intake"
	"audioscribe/internal/model"
	"audioscribe/internal/transcript"
)

type Stager interface {
	Stage(r io.Reader, fileName string) (*intake.StagedFile, error)
}

type ResultCache interface {
	Get(key string) (model.TranscriptionResponse, bool)
	Put(key string, result model.TranscriptionResponse) error
}

type Metrics interface {
	IncCacheHit()
	IncCacheMiss()
	IncCleanupFailure()
}

type Service struct {
	stager  Stager
	engine  engine.Engine
	cache   ResultCache
	metrics Metrics
	logger  *slog.Logger
	model   string
	timeout time.Duration
}

type ProcessInput struct {
	File     io.Reader
	FileName string
}

// New builds the request-span orchestrator. cache and metrics may be
// nil; stager and eng are required.
func New(stager Stager, eng engine.Engine, cache ResultCache, metrics Metrics, logger *slog.Logger, modelName string, timeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		stager:  stager,
		engine:  eng,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		model:   modelName,
		timeout: timeout,
	}
}

// Process runs one request span: stage the upload, probe the cache,
// invoke the engine under a wall-clock ceiling, normalize, and store
// the result. The staged file is removed on every exit path; a removal
// failure is logged and counted but never overrides the span's
// outcome.
func (s *Service) Process(ctx context.Context, in ProcessInput) (model.TranscriptionResponse, error) {
	started := time.Now()

	staged, err := s.stager.Stage(in.File, in.FileName)
	if err != nil {
		return model.TranscriptionResponse{}, err
	}
	defer s.cleanup(staged)

	key := staged.Digest + "-" + s.model
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if s.metrics != nil {
				s.metrics.IncCacheHit()
			}
			s.logger.Info("cache hit", "file", in.FileName, "digest", staged.Digest, "duration_ms", time.Since(started).Milliseconds())
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.IncCacheMiss()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.engine.Transcribe(ctx, staged.Path)
	if err != nil {
		return model.TranscriptionResponse{}, err
	}

	result, err := transcript.Assemble(raw)
	if err != nil {
		return model.TranscriptionResponse{}, err
	}

	if s.cache != nil {
		if err := s.cache.Put(key, result); err != nil {
			s.logger.Warn("cache write failed", "digest", staged.Digest, "error", err)
		}
	}

	s.logger.Info("transcription completed",
		"file", in.FileName,
		"size_bytes", staged.Size,
		"segments", len(result.Segments),
		"language", result.Language,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return result, nil
}

func (s *Service) cleanup(staged *intake.StagedFile) {
	if err := staged.Remove(); err != nil {
		if s.metrics != nil {
			s.metrics.IncCleanupFailure()
		}
		s.logger.Warn("staged file removal failed", "path", staged.Path, "error", err)
	}
}
