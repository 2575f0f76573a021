package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/powderplan/powderplan/internal/domain"
)

const (
	openAIResponsesURL = "https://api.openai.com/v1/responses"
	chatModelName      = "gpt-5"
	judgeModelName     = "gpt-5-mini"
)

// OpenAIClient talks to the OpenAI Responses API. The Responses API keeps
// conversation state server-side: each response carries an ID the next
// request passes back as previous_response_id, so the core never resends
// history.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    openAIResponsesURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// request/response types for the Responses API
type responsesRequest struct {
	Model              string              `json:"model"`
	Input              any                 `json:"input"`
	Instructions       string              `json:"instructions,omitempty"`
	Tools              []domain.ToolSchema `json:"tools,omitempty"`
	ToolChoice         string              `json:"tool_choice,omitempty"`
	Store              bool                `json:"store"`
	PreviousResponseID string              `json:"previous_response_id,omitempty"`
}

type functionCallOutput struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

type outputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outputItem struct {
	Type      string          `json:"type"`
	Name      string          `json:"name,omitempty"`
	CallID    string          `json:"call_id,omitempty"`
	Arguments string          `json:"arguments,omitempty"`
	Content   []outputContent `json:"content,omitempty"`
}

type responsesResponse struct {
	ID     string       `json:"id"`
	Output []outputItem `json:"output"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) create(ctx context.Context, reqBody responsesRequest) (*responsesResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal responses request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create responses request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("responses request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read responses body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("responses API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result responsesResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal responses body: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("responses API error: %s", result.Error.Message)
	}

	return &result, nil
}

// Respond runs one model round. Capability outputs, when present, take the
// place of user input on follow-up rounds.
func (c *OpenAIClient) Respond(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	body := responsesRequest{
		Model:              chatModelName,
		Instructions:       req.Instructions,
		Tools:              req.Tools,
		Store:              true,
		PreviousResponseID: req.PreviousResponseID,
	}
	if len(req.Tools) > 0 {
		body.ToolChoice = "auto"
	}

	if len(req.Outputs) > 0 {
		items := make([]functionCallOutput, 0, len(req.Outputs))
		for _, out := range req.Outputs {
			items = append(items, functionCallOutput{
				Type:   "function_call_output",
				CallID: out.CallID,
				Output: out.Output,
			})
		}
		body.Input = items
	} else {
		body.Input = req.Input
	}

	result, err := c.create(ctx, body)
	if err != nil {
		return nil, err
	}

	out := &domain.ModelResponse{ID: result.ID}
	var text strings.Builder
	for _, item := range result.Output {
		switch item.Type {
		case "function_call":
			out.CapabilityRequests = append(out.CapabilityRequests, domain.CapabilityRequest{
				CallID:    item.CallID,
				Name:      item.Name,
				Arguments: item.Arguments,
			})
		case "message":
			for _, content := range item.Content {
				if content.Type == "output_text" {
					text.WriteString(content.Text)
				}
			}
		}
	}
	out.OutputText = strings.TrimSpace(text.String())

	return out, nil
}

// Judge runs a single classification prompt against the cheaper judge model
// and returns the raw text output.
func (c *OpenAIClient) Judge(ctx context.Context, prompt string) (string, error) {
	result, err := c.create(ctx, responsesRequest{
		Model: judgeModelName,
		Input: prompt,
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, item := range result.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" {
				text.WriteString(content.Text)
			}
		}
	}

	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("judge returned no text output")
	}
	return out, nil
}
