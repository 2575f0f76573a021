package llm

import (
	"fmt"

	"github.com/powderplan/powderplan/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Client bundles the two model roles the core needs: the conversational
// model and the judge. The OpenAI client serves both from one API.
type Client interface {
	domain.ChatModel
	domain.JudgeModel
}

// NewClient creates a model client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty
// (except for mock).
func NewClient(provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown model provider: %s (valid options: openai, mock)", provider)
	}
}
