package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI model constants.
const (
	OpenAIGPT4o     = "gpt-4o"
	OpenAIGPT4oMini = "gpt-4o-mini"
)

// OpenAI implements Completer with the Chat Completions API.
type OpenAI struct {
	client      openai.Client
	reqOpts     []option.RequestOption
	model       string
	maxTokens   int
	temperature float64
}

// OpenAIOption is a functional option for configuring OpenAI.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// WithOpenAIMaxTokens sets the default completion token limit.
func WithOpenAIMaxTokens(n int) OpenAIOption {
	return func(o *OpenAI) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithOpenAITemperature sets the default sampling temperature.
func WithOpenAITemperature(t float64) OpenAIOption {
	return func(o *OpenAI) {
		if t >= 0 && t <= 2 {
			o.temperature = t
		}
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		if client != nil {
			o.reqOpts = append(o.reqOpts, option.WithHTTPClient(client))
		}
	}
}

// WithOpenAIRequestOptions appends raw client options such as option.WithBaseURL.
func WithOpenAIRequestOptions(opts ...option.RequestOption) OpenAIOption {
	return func(o *OpenAI) {
		o.reqOpts = append(o.reqOpts, opts...)
	}
}

// NewOpenAI creates an OpenAI completer.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	o := &OpenAI{
		reqOpts:     []option.RequestOption{option.WithAPIKey(apiKey)},
		model:       OpenAIGPT4o,
		maxTokens:   1000,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.client = openai.NewClient(o.reqOpts...)
	return o, nil
}

// Complete sends req to the Chat Completions API.
// File references on user messages are attached as file content parts.
func (o *OpenAI) Complete(ctx context.Context, req Request) (Completion, error) {
	if len(req.Messages) == 0 {
		return Completion{}, ErrNoMessages
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(firstNonEmpty(req.Model, o.model)),
		Messages:            openAIMessages(req.Messages),
		MaxCompletionTokens: openai.Int(int64(firstPositive(req.MaxTokens, o.maxTokens))),
		Temperature:         openai.Float(firstPositiveFloat(req.Temperature, o.temperature)),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Completion{}, ErrEmptyResponse
	}

	return Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}

func openAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			if len(m.Files) == 0 {
				out = append(out, openai.UserMessage(m.Content))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Files)+1)
			parts = append(parts, openai.TextContentPart(m.Content))
			for _, id := range m.Files {
				parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
					FileID: openai.String(id),
				}))
			}
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositiveFloat(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
