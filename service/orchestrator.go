// Package service implements the generate-or-reuse pipeline: look up the
// cache index, and on a miss generate a fresh image, store it, and record it
// so every later request for the same key reuses the stored artifact.
package service

import (
	"context"
	"errors"
	"time"

	"noodle_backend/cache"
	"noodle_backend/imagegen"
	"noodle_backend/logging"
	"noodle_backend/metrics"
	"noodle_backend/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator abstracts the retry-wrapped provider the pipeline calls on a
// cache miss.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts imagegen.Options) ([]byte, error)
}

// Result is the outcome of a generate-or-reuse request.
type Result struct {
	// ImageURL is the public reference of the served artifact.
	ImageURL string

	// CacheHit reports whether the artifact was reused rather than generated.
	CacheHit bool

	// Key is the cache key the request resolved to.
	Key string
}

// Orchestrator runs the pipeline. Stateless between requests; safe for
// concurrent use as long as its collaborators are.
type Orchestrator struct {
	index     cache.Index
	store     storage.Store
	generator Generator
	logger    *logging.Logger
	genOpts   imagegen.Options
}

// NewOrchestrator wires the pipeline. All collaborators are required except
// the logger, which defaults to a no-op.
func NewOrchestrator(index cache.Index, store storage.Store, generator Generator, logger *logging.Logger, genOpts imagegen.Options) (*Orchestrator, error) {
	if index == nil {
		return nil, errors.New("service: cache index cannot be nil")
	}
	if store == nil {
		return nil, errors.New("service: artifact store cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("service: generator cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		index:     index,
		store:     store,
		generator: generator,
		logger:    logger.Named("pipeline"),
		genOpts:   genOpts,
	}, nil
}

// GenerateImage serves an image for the given cache key, reusing a stored
// artifact when one exists and generating, storing, and recording one when
// it does not.
//
// The key doubles as the generation prompt. Errors are always *RequestError.
func (o *Orchestrator) GenerateImage(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, invalidInput("prompt cannot be empty")
	}

	log := o.logger.With(zap.String("cache_key", key))

	entry, err := o.index.Lookup(ctx, key)
	switch {
	case err == nil:
		metrics.CacheHitsTotal.Inc()
		log.Info("cache hit", zap.String("artifact_ref", entry.ArtifactRef))
		return &Result{ImageURL: entry.ArtifactRef, CacheHit: true, Key: key}, nil
	case errors.Is(err, cache.ErrNotFound):
		metrics.CacheMissesTotal.Inc()
		log.Info("cache miss, generating")
	default:
		// A backend failure is not a miss. Generating here would duplicate
		// work the index may already know about.
		return nil, o.fail(log, internalFailure("cache lookup failed", err))
	}

	start := time.Now()
	data, err := o.generator.Generate(ctx, key, o.genOpts)
	metrics.GenerationDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, o.fail(log, classifyGeneration(err))
	}

	artifactID := uuid.NewString()
	contentType := storage.DetectContentType(data)
	if w, h, ok := storage.ProbeDimensions(data); ok {
		log.Info("image generated",
			zap.Int("bytes", len(data)),
			zap.String("content_type", contentType),
			zap.Int("width", w),
			zap.Int("height", h),
			zap.Duration("took", time.Since(start)))
	} else {
		log.Warn("image generated but dimensions could not be probed",
			zap.Int("bytes", len(data)),
			zap.String("content_type", contentType))
	}

	ref, err := o.store.Upload(ctx, artifactID, data, contentType)
	if err != nil {
		return nil, o.fail(log, storageFailure("failed to store generated image", err))
	}

	if _, err := o.index.Insert(ctx, key, ref); err != nil {
		// The artifact is stored but unrecorded. Remove it so storage does
		// not accumulate orphans; cleanup failure is logged, never surfaced.
		metrics.CompensatingDeletesTotal.Inc()
		if delErr := o.store.Delete(ctx, artifactID); delErr != nil {
			log.Warn("orphaned artifact cleanup failed",
				zap.String("artifact_id", artifactID),
				zap.Error(delErr))
		} else {
			log.Info("removed orphaned artifact after failed cache insert",
				zap.String("artifact_id", artifactID))
		}
		return nil, o.fail(log, storageFailure("failed to record generated image", err))
	}

	log.Info("image generated and cached", zap.String("artifact_ref", ref))
	return &Result{ImageURL: ref, CacheHit: false, Key: key}, nil
}

// fail logs a pipeline failure once, at the point of classification, and
// records it in the failure counter.
func (o *Orchestrator) fail(log *logging.Logger, reqErr *RequestError) *RequestError {
	kind := "internal"
	var genErr *imagegen.GenerationError
	if errors.As(reqErr.Err, &genErr) {
		kind = genErr.Kind
	}
	metrics.GenerationFailuresTotal.WithLabelValues(kind).Inc()
	log.Error("image request failed",
		zap.String("detail", reqErr.Detail),
		zap.Error(reqErr.Err))
	return reqErr
}
