package llm

import (
	"context"
	"errors"
)

// ErrUnauthorized means the provider rejected the configured API key.
var ErrUnauthorized = errors.New("llm: invalid or missing API credentials")

// Directive is the structured interpretation of a user question: which
// canned analysis to run and, optionally, how to present it.
type Directive struct {
	Analysis string `json:"analysis"`
	Chart    string `json:"chart"`
	Title    string `json:"title"`
}

// Client maps a natural-language question to an analysis directive.
type Client interface {
	Interpret(ctx context.Context, question string) (Directive, error)
}
