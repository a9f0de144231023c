// Package ai runs the dive insight pipeline and owns the LLM provider
// integrations it calls.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/divelog/internal/analysis"
	"github.com/kiranshivaraju/divelog/internal/dive"
	"github.com/kiranshivaraju/divelog/internal/insight"
	"github.com/kiranshivaraju/divelog/internal/metrics"
	"github.com/kiranshivaraju/divelog/internal/store"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

// GenerationParams are the fixed sampling settings sent with every call.
type GenerationParams struct {
	Temperature float32
	Seed        int
	MaxTokens   int
}

// InsightRequest is one pipeline invocation. Dive and Profile are the raw
// client payloads; they are normalized before anything else runs.
type InsightRequest struct {
	UserID     uuid.UUID
	Dive       map[string]any
	Profile    map[string]any
	Regenerate bool
}

// Meta describes where an insight came from.
type Meta struct {
	Cached        bool      `json:"cached"`
	Model         string    `json:"model"`
	PromptVersion string    `json:"promptVersion"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// InsightResult is the pipeline output returned to the HTTP layer.
type InsightResult struct {
	Insight models.DiveInsightResponse `json:"insight"`
	Summary string                     `json:"summary"`
	Meta    Meta                       `json:"meta"`
}

// InsightService orchestrates normalization, the deterministic analysis, the
// stored-insight lookup, the model call and the output gates.
type InsightService struct {
	provider models.AIProvider
	store    InsightStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
	timeout  time.Duration
	params   GenerationParams
	now      func() time.Time
}

// Option customizes an InsightService.
type Option func(*InsightService)

func WithLogger(l *slog.Logger) Option {
	return func(s *InsightService) { s.logger = l.With("component", "insight") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *InsightService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *InsightService) { s.now = now }
}

// NewInsightService creates a new InsightService.
func NewInsightService(provider models.AIProvider, st InsightStore, timeout time.Duration, params GenerationParams, opts ...Option) *InsightService {
	s := &InsightService{
		provider: provider,
		store:    st,
		logger:   discardLogger(),
		timeout:  timeout,
		params:   params,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateInsight runs the pipeline for one dive. Input errors are returned
// before any I/O. A model failure returns ErrProviderUnavailable or
// ErrInferenceTimeout and nothing is persisted. Malformed model output is
// not an error: the fallback insight is returned and stored instead.
func (s *InsightService) GenerateInsight(ctx context.Context, req InsightRequest) (*InsightResult, error) {
	d, err := dive.NormalizeDive(req.Dive)
	if err != nil {
		return nil, err
	}
	profile := dive.NormalizeProfile(req.Profile)

	in := insight.Input{
		Dive:        d,
		Profile:     profile,
		Metrics:     analysis.ComputeMetrics(d, profile),
		HasBaseline: analysis.HasBaseline(profile),
	}
	in.Signals = analysis.ExtractSignals(d, profile, in.Metrics)

	fingerprint, err := analysis.Fingerprint(analysis.FingerprintInput{
		Dive:          d,
		Profile:       profile,
		Metrics:       in.Metrics,
		Signals:       in.Signals,
		PromptVersion: insight.PromptVersion,
		Model:         s.provider.Model(),
	})
	if err != nil {
		return nil, fmt.Errorf("computing fingerprint: %w", err)
	}

	stored, outcome := s.lookup(ctx, req.UserID, d.ID, fingerprint, req.Regenerate)
	s.metrics.CacheLookup(outcome)
	if stored != nil {
		s.logger.Debug("serving stored insight", "dive_id", d.ID, "fingerprint", fingerprint)
		return &InsightResult{
			Insight: stored.Insight,
			Summary: insight.RenderSummary(stored.Insight),
			Meta: Meta{
				Cached:        true,
				Model:         stored.Model,
				PromptVersion: stored.Version,
				GeneratedAt:   stored.GeneratedAt,
			},
		}, nil
	}

	raw, err := s.invoke(ctx, insight.BuildPrompt(in))
	if err != nil {
		return nil, err
	}

	accepted := s.gate(raw, in)
	rec := models.StoredDiveInsight{
		Version:     insight.PromptVersion,
		Model:       s.provider.Model(),
		Fingerprint: fingerprint,
		GeneratedAt: s.now().UTC(),
		Insight:     accepted,
		Metrics:     in.Metrics,
		Signals:     in.Signals,
	}
	s.persist(ctx, req.UserID, d.ID, rec)

	return &InsightResult{
		Insight: accepted,
		Summary: insight.RenderSummary(accepted),
		Meta: Meta{
			Model:         rec.Model,
			PromptVersion: rec.Version,
			GeneratedAt:   rec.GeneratedAt,
		},
	}, nil
}

// GetStoredInsight returns the record last persisted for a dive.
// Missing and malformed records both yield ErrInsightNotFound.
func (s *InsightService) GetStoredInsight(ctx context.Context, userID uuid.UUID, diveID string) (*models.StoredDiveInsight, error) {
	raw, err := s.store.GetDiveInsight(ctx, userID, diveID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInsightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading stored insight: %w", err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		s.logger.Warn("stored insight is malformed", "dive_id", diveID, "error", err)
		return nil, ErrInsightNotFound
	}
	return rec, nil
}

// invoke makes the single model call for a request.
func (s *InsightService) invoke(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	raw, err := s.provider.Generate(callCtx, models.GenerateRequest{
		System:      insight.SystemPrompt,
		Prompt:      prompt,
		Temperature: s.params.Temperature,
		Seed:        s.params.Seed,
		MaxTokens:   s.params.MaxTokens,
		JSONMode:    true,
	})
	elapsed := s.now().Sub(start)

	switch {
	case err == nil:
		s.metrics.ModelCall(s.provider.Name(), "ok", elapsed)
		return raw, nil
	case ctx.Err() != nil:
		s.metrics.ModelCall(s.provider.Name(), "canceled", elapsed)
		return "", fmt.Errorf("generating insight: %w", ctx.Err())
	case errors.Is(err, ErrInferenceTimeout) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		s.metrics.ModelCall(s.provider.Name(), "timeout", elapsed)
		s.logger.Error("model call timed out", "provider", s.provider.Name(), "timeout", s.timeout)
		return "", ErrInferenceTimeout
	default:
		s.metrics.ModelCall(s.provider.Name(), "error", elapsed)
		s.logger.Error("model call failed", "provider", s.provider.Name(), "error", err)
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
}

// gate validates raw model text and applies the output policy. Validation
// failures fall back to the deterministic insight.
func (s *InsightService) gate(raw string, in insight.Input) models.DiveInsightResponse {
	fallback := insight.FallbackInsight(in.Dive, insight.DeterministicBaseline(in))

	res := insight.Validate(raw, fallback)
	if !res.OK {
		reason := insight.Reason(res.Err)
		s.metrics.ValidationFailure(reason)
		s.logger.Warn("model response rejected",
			"dive_id", in.Dive.ID,
			"reason", reason,
			"error", res.Err,
			"excerpt", insight.Excerpt(raw),
		)
		return res.Insight
	}

	out := insight.Enforce(insight.PolicyInput{
		Insight:     res.Insight,
		Dive:        in.Dive,
		Metrics:     in.Metrics,
		Signals:     in.Signals,
		HasBaseline: in.HasBaseline,
	})
	for _, rule := range out.Corrections {
		s.metrics.PolicyCorrection(rule)
	}
	if len(out.Corrections) > 0 {
		s.logger.Info("model response corrected", "dive_id", in.Dive.ID, "rules", out.Corrections)
	}
	return out.Insight
}
