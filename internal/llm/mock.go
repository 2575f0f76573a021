package llm

import (
	"context"
	"sync"

	"github.com/powderplan/powderplan/internal/domain"
)

// MockClient is a configurable model client for testing and keyless dev.
// Responses are consumed in order; when the script runs out it falls back
// to a canned reply with no capability requests.
type MockClient struct {
	mu sync.Mutex

	RespondScript []*domain.ModelResponse
	RespondError  error
	JudgeResponse string
	JudgeError    error

	// Call tracking for assertions
	RespondCalls []*domain.ModelRequest
	JudgeCalls   []string

	turn int
}

func NewMockClient() *MockClient {
	return &MockClient{
		JudgeResponse: `{"isLikelyHallucination": false, "confidence": 0.9, "concerns": [], "severity": "trustworthy"}`,
	}
}

func (m *MockClient) Respond(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RespondCalls = append(m.RespondCalls, req)
	if m.RespondError != nil {
		return nil, m.RespondError
	}
	if m.turn < len(m.RespondScript) {
		resp := m.RespondScript[m.turn]
		m.turn++
		return resp, nil
	}
	m.turn++
	return &domain.ModelResponse{
		ID:         "resp_mock",
		OutputText: "I can help you plan a ski trip. Ask me about weather or budgets.",
	}, nil
}

func (m *MockClient) Judge(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.JudgeCalls = append(m.JudgeCalls, prompt)
	if m.JudgeError != nil {
		return "", m.JudgeError
	}
	return m.JudgeResponse, nil
}
