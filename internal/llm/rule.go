package llm

import (
	"context"

	"tailortalk/internal/nlp"
)

// RuleClient is a deterministic, fully offline interpreter built on the
// keyword classifier. It is the default provider and needs no credentials.
type RuleClient struct{}

func NewRuleClient() *RuleClient {
	return &RuleClient{}
}

func (c *RuleClient) Interpret(_ context.Context, question string) (Directive, error) {
	return Directive{Analysis: string(nlp.Classify(question))}, nil
}
