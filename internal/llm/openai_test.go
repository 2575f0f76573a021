package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/powderplan/powderplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestClient(handler http.HandlerFunc) (*OpenAIClient, func()) {
	srv := httptest.NewServer(handler)
	client := &OpenAIClient{
		apiKey:     "test-key",
		baseURL:    srv.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	return client, srv.Close
}

func TestOpenAIRespondOpeningRound(t *testing.T) {
	var captured responsesRequest
	client, cleanup := newOpenAITestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{
			"id": "resp_abc",
			"output": [
				{"type": "message", "content": [{"type": "output_text", "text": "Hello "}, {"type": "output_text", "text": "there."}]}
			]
		}`))
	})
	defer cleanup()

	resp, err := client.Respond(context.Background(), &domain.ModelRequest{
		Input:        "Hi",
		Instructions: "be helpful",
		Tools:        []domain.ToolSchema{{Type: "function", Name: "get_weather"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "resp_abc", resp.ID)
	assert.Equal(t, "Hello there.", resp.OutputText)
	assert.Empty(t, resp.CapabilityRequests)

	assert.Equal(t, chatModelName, captured.Model)
	assert.Equal(t, "Hi", captured.Input)
	assert.Equal(t, "auto", captured.ToolChoice)
	assert.True(t, captured.Store)
}

func TestOpenAIRespondFunctionCalls(t *testing.T) {
	client, cleanup := newOpenAITestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "resp_tool",
			"output": [
				{"type": "function_call", "call_id": "call_1", "name": "get_weather", "arguments": "{\"location\":\"Aspen\"}"},
				{"type": "function_call", "call_id": "call_2", "name": "convert_currency", "arguments": "{\"from\":\"USD\",\"to\":\"EUR\"}"}
			]
		}`))
	})
	defer cleanup()

	resp, err := client.Respond(context.Background(), &domain.ModelRequest{Input: "Weather and budget?"})
	require.NoError(t, err)

	require.Len(t, resp.CapabilityRequests, 2)
	assert.Equal(t, "call_1", resp.CapabilityRequests[0].CallID)
	assert.Equal(t, "get_weather", resp.CapabilityRequests[0].Name)
	assert.JSONEq(t, `{"location":"Aspen"}`, resp.CapabilityRequests[0].Arguments)
	assert.Equal(t, "convert_currency", resp.CapabilityRequests[1].Name)
}

func TestOpenAIRespondFollowUpRound(t *testing.T) {
	var captured responsesRequest
	client, cleanup := newOpenAITestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{
			"id": "resp_2",
			"output": [{"type": "message", "content": [{"type": "output_text", "text": "Done."}]}]
		}`))
	})
	defer cleanup()

	_, err := client.Respond(context.Background(), &domain.ModelRequest{
		Outputs:            []domain.CapabilityOutput{{CallID: "call_1", Output: `{"temperature":-5}`}},
		PreviousResponseID: "resp_1",
	})
	require.NoError(t, err)

	assert.Equal(t, "resp_1", captured.PreviousResponseID)
	items, ok := captured.Input.([]any)
	require.True(t, ok, "follow-up input should be a list of function call outputs")
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "function_call_output", item["type"])
	assert.Equal(t, "call_1", item["call_id"])
}

func TestOpenAIRespondAPIError(t *testing.T) {
	client, cleanup := newOpenAITestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "resp_x", "output": [], "error": {"message": "rate limited"}}`))
	})
	defer cleanup()

	_, err := client.Respond(context.Background(), &domain.ModelRequest{Input: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenAIRespondHTTPError(t *testing.T) {
	client, cleanup := newOpenAITestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer cleanup()

	_, err := client.Respond(context.Background(), &domain.ModelRequest{Input: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestOpenAIJudge(t *testing.T) {
	var captured responsesRequest
	client, cleanup := newOpenAITestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{
			"id": "resp_j",
			"output": [{"type": "message", "content": [{"type": "output_text", "text": "{\"isLikelyHallucination\": false}"}]}]
		}`))
	})
	defer cleanup()

	out, err := client.Judge(context.Background(), "analyze this")
	require.NoError(t, err)
	assert.Equal(t, judgeModelName, captured.Model)
	assert.JSONEq(t, `{"isLikelyHallucination": false}`, out)
}

func TestOpenAIJudgeNoText(t *testing.T) {
	client, cleanup := newOpenAITestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "resp_j", "output": []}`))
	})
	defer cleanup()

	_, err := client.Judge(context.Background(), "analyze this")
	require.Error(t, err)
}
