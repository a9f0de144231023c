package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/divelog/internal/ai"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

// ValidInsightJSON is a well-formed model response that passes validation.
const ValidInsightJSON = `{
  "recap": "A 40 minute dive at Blue Hole to 24 m.",
  "dive_insight": {
    "text": "Depth was well managed for the planned profile.",
    "baseline_comparison": "This dive was deeper than your average dive.",
    "evidence": ["depth_vs_baseline"]
  },
  "recommendations": "No specific recommendations."
}`

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_        string
	Model_       string
	GenerateFunc func(ctx context.Context, req models.GenerateRequest) (string, error)

	mu       sync.Mutex
	requests []models.GenerateRequest
}

func (m *MockProvider) Name() string  { return m.Name_ }
func (m *MockProvider) Model() string { return m.Model_ }

func (m *MockProvider) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

// Calls returns how many times Generate was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or the zero value.
func (m *MockProvider) LastRequest() models.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return models.GenerateRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// NewMockProvider returns a MockProvider that always answers with ValidInsightJSON.
func NewMockProvider() *MockProvider {
	return NewScriptedProvider(ValidInsightJSON)
}

// NewScriptedProvider returns a MockProvider that always answers with raw.
func NewScriptedProvider(raw string) *MockProvider {
	return &MockProvider{
		Name_:  "mock",
		Model_: "mock-v1",
		GenerateFunc: func(_ context.Context, _ models.GenerateRequest) (string, error) {
			return raw, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_:  "mock-failing",
		Model_: "mock-v1",
		GenerateFunc: func(_ context.Context, _ models.GenerateRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock-timeout",
		Model_: "mock-v1",
		GenerateFunc: func(ctx context.Context, _ models.GenerateRequest) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
