package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"tailortalk/internal/nlp"
	"tailortalk/internal/retry"
)

const (
	defaultChatTimeout     = 30 * time.Second
	defaultChatTemperature = 0.2

	openRouterBaseURL = "https://openrouter.ai/api/v1"

	defaultOpenAIModel     = "gpt-4o-mini"
	defaultOpenRouterModel = "openai/gpt-4o-mini"
)

// OpenAIClient calls a Chat Completions API, either api.openai.com directly
// or the OpenRouter gateway.
type OpenAIClient struct {
	model  openai.ChatModel
	client *openai.Client
}

// NewOpenAIClient builds a client with defaults against api.openai.com.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required: %w", ErrUnauthorized)
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		model:  openai.ChatModel(model),
		client: &cli,
	}, nil
}

// NewOpenRouterClient builds a client against the OpenRouter gateway, which
// speaks the same wire protocol.
func NewOpenRouterClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required: %w", ErrUnauthorized)
	}
	if model == "" {
		model = defaultOpenRouterModel
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(openRouterBaseURL))
	return &OpenAIClient{
		model:  openai.ChatModel(model),
		client: &cli,
	}, nil
}

func (c *OpenAIClient) Interpret(ctx context.Context, question string) (Directive, error) {
	if c == nil || c.client == nil {
		return Directive{}, fmt.Errorf("nil openai client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	content, err := c.complete(reqCtx, question)
	if err != nil {
		return Directive{}, err
	}
	return parseDirective(question, content), nil
}

// complete runs the chat call with one retry on transient failures.
// Auth rejections are terminal and surface as ErrUnauthorized.
func (c *OpenAIClient) complete(ctx context.Context, question string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retry.ExponentialBackoff(attempt-1, 500*time.Millisecond)):
			}
		}

		resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:       c.model,
			Messages:    buildMessages(systemPrompt, question),
			Temperature: openai.Float(defaultChatTemperature),
		})
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
				return "", fmt.Errorf("provider rejected credentials: %w", ErrUnauthorized)
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = fmt.Errorf("no choices returned")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("chat completion failed: %w", lastErr)
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}

// parseDirective extracts the JSON directive from the model reply. Replies
// that don't carry parseable JSON degrade to keyword classification of the
// original question plus whatever chart/title words the reply mentions.
func parseDirective(question, content string) Directive {
	for _, block := range nlp.ExtractJSONBlocks(content) {
		var d Directive
		if err := json.Unmarshal([]byte(block), &d); err == nil && d.Analysis != "" {
			return d
		}
	}
	return Directive{
		Analysis: string(nlp.Classify(question)),
		Chart:    nlp.ExtractChartType(content),
		Title:    nlp.ExtractTitle(content),
	}
}
