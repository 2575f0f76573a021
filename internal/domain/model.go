package domain

import "context"

// ToolSchema is a function-tool declaration in the shape the model
// provider's responses API expects. Built by the capability registry from
// each capability's argument schema.
type ToolSchema struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// CapabilityRequest is a single function call the model asked for.
// Arguments is the raw JSON string as returned by the provider.
type CapabilityRequest struct {
	CallID    string
	Name      string
	Arguments string
}

// CapabilityOutput is the serialized result (or error payload) of one
// capability request, keyed back to the request's call ID.
type CapabilityOutput struct {
	CallID string
	Output string
}

// ModelRequest is one round-trip to the chat model. Exactly one of Input
// or Outputs is set: Input on the opening round, Outputs on follow-up
// rounds that feed capability results back. PreviousResponseID carries the
// session's continuation token when present.
type ModelRequest struct {
	Input              string
	Outputs            []CapabilityOutput
	Instructions       string
	Tools              []ToolSchema
	PreviousResponseID string
}

// ModelResponse is the provider's answer to one round. ID is the new
// continuation token. CapabilityRequests is empty when the text is final.
type ModelResponse struct {
	ID                 string
	OutputText         string
	CapabilityRequests []CapabilityRequest
}

// ChatModel is the conversational model provider.
type ChatModel interface {
	Respond(ctx context.Context, req *ModelRequest) (*ModelResponse, error)
}

// JudgeModel runs a single text-classification prompt and returns the raw
// model output. Used by the detection engine's judge layers.
type JudgeModel interface {
	Judge(ctx context.Context, prompt string) (string, error)
}
