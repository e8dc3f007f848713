// Package llmclient provides the language model backend for the
// browser-driving agent.
package llmclient

import "context"

// GenerationRequest is one prompt for the model. ForceJSONFormat asks the
// backend to constrain the output to a JSON document.
type GenerationRequest struct {
	SystemPrompt    string
	UserPrompt      string
	Temperature     float64
	ForceJSONFormat bool
}

// LLMClient generates a completion for a single request.
type LLMClient interface {
	GenerateResponse(ctx context.Context, req GenerationRequest) (string, error)
}
