package domain

import (
	"context"
	"errors"
)

// ErrNoContent signals that the generation service answered without any
// candidate content. The caller treats it as a hard failure but it is kept
// distinct from transport errors for logging.
var ErrNoContent = errors.New("generation response contained no content")

// GenerationRequest carries one logical request to the text-generation service.
type GenerationRequest struct {
	Prompt            string
	SystemInstruction string
	// ResponseSchema, when set, requests schema-constrained JSON output.
	ResponseSchema map[string]any
	// EnableSearch turns on the web-grounding tool; never combined with a
	// response schema, to keep structured output reliable.
	EnableSearch bool
}

// GenerationResult holds the first generated content part, unmodified.
type GenerationResult struct {
	Text string
}

// GenerationClient performs a single request/response cycle with the external
// text-generation service, absorbing retries internally.
type GenerationClient interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
	ModelName() string
}
