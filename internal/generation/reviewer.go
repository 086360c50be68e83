package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codesage/api/internal/apperr"
	"codesage/api/internal/crypto"
	"codesage/api/internal/logging"
)

const (
	msgNoCode     = "Please provide code to review."
	msgNoText     = "No response text returned by the model."
	msgGeneration = "Error generating review. Please try again."
)

// Outcome labels passed to a Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeCacheHit = "cache_hit"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomePanic    = "panic"
)

// Result is the outcome of a review. Exactly one of Text (when OK) or Err is
// meaningful.
type Result struct {
	OK   bool
	Text string
	Err  *apperr.Error
}

func failure(err *apperr.Error) Result {
	return Result{Err: err}
}

// Cache stores finished reviews keyed by a fingerprint of the submission.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, review string) error
}

type Recorder interface {
	ObserveGeneration(outcome string, elapsed time.Duration)
}

type Option func(*Reviewer)

func WithCache(c Cache) Option {
	return func(r *Reviewer) { r.cache = c }
}

func WithLogger(l logging.Logger) Option {
	return func(r *Reviewer) { r.log = l }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Reviewer) { r.rec = rec }
}

type Reviewer struct {
	provider Provider
	cache    Cache
	log      logging.Logger
	rec      Recorder
}

func NewReviewer(provider Provider, opts ...Option) *Reviewer {
	r := &Reviewer{provider: provider, log: logging.Nop{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Review produces a review for code. It never panics and never returns a
// bare error; callers check Result.OK.
func (r *Reviewer) Review(ctx context.Context, code, language string) Result {
	if strings.TrimSpace(code) == "" {
		return failure(apperr.New(apperr.BadRequest, msgNoCode))
	}

	start := time.Now()
	key := crypto.Fingerprint(strings.TrimSpace(language), code)

	if r.cache != nil {
		text, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warn(ctx, "review cache read failed", "error", err)
		} else if ok {
			r.observe(OutcomeCacheHit, start)
			return Result{OK: true, Text: text}
		}
	}

	text, panicked, err := r.generate(ctx, BuildPrompt(code, language))
	switch {
	case panicked:
		r.observe(OutcomePanic, start)
		r.log.Error(ctx, "generation provider panicked", "error", err)
		return failure(apperr.Wrap(apperr.GenerationFailed, msgGeneration, err))
	case err != nil:
		r.observe(OutcomeError, start)
		r.log.Warn(ctx, "generation failed", "error", err, "auth_error", IsAuthError(err))
		return failure(apperr.Wrap(apperr.GenerationFailed, msgGeneration, err))
	case strings.TrimSpace(text) == "":
		r.observe(OutcomeEmpty, start)
		return failure(apperr.New(apperr.GenerationFailed, msgNoText))
	}

	r.observe(OutcomeSuccess, start)
	if r.cache != nil {
		if err := r.cache.Set(ctx, key, text); err != nil {
			r.log.Warn(ctx, "review cache write failed", "error", err)
		}
	}
	return Result{OK: true, Text: text}
}

func (r *Reviewer) generate(ctx context.Context, prompt string) (text string, panicked bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, panicked, err = "", true, fmt.Errorf("provider panic: %v", p)
		}
	}()
	text, err = r.provider.Generate(ctx, prompt)
	return text, false, err
}

func (r *Reviewer) observe(outcome string, start time.Time) {
	if r.rec != nil {
		r.rec.ObserveGeneration(outcome, time.Since(start))
	}
}
