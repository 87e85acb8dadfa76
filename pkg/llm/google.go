package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Google model constants.
const (
	GoogleGemini25Flash = "gemini-2.5-flash"
	GoogleGemini25Pro   = "gemini-2.5-pro"
)

// Google implements Completer with the Gemini API.
type Google struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
	backend     genai.Backend
	project     string
	location    string
}

// GoogleOption is a functional option for configuring Google.
type GoogleOption func(*Google)

// WithGoogleModel sets the default model.
func WithGoogleModel(model string) GoogleOption {
	return func(g *Google) {
		if model != "" {
			g.model = model
		}
	}
}

// WithGoogleMaxTokens sets the default output token limit.
func WithGoogleMaxTokens(n int) GoogleOption {
	return func(g *Google) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithGoogleTemperature sets the default sampling temperature.
func WithGoogleTemperature(t float64) GoogleOption {
	return func(g *Google) {
		if t >= 0 && t <= 2 {
			g.temperature = t
		}
	}
}

// WithGoogleBackend sets the backend to use (Gemini API or Vertex AI).
func WithGoogleBackend(backend genai.Backend) GoogleOption {
	return func(g *Google) {
		g.backend = backend
	}
}

// WithGoogleProject sets the GCP project ID for Vertex AI.
func WithGoogleProject(project string) GoogleOption {
	return func(g *Google) {
		g.project = project
	}
}

// WithGoogleLocation sets the GCP location/region for Vertex AI.
func WithGoogleLocation(location string) GoogleOption {
	return func(g *Google) {
		g.location = location
	}
}

// NewGoogle creates a Gemini completer with API key authentication.
func NewGoogle(ctx context.Context, apiKey string, opts ...GoogleOption) (*Google, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	g := &Google{
		model:       GoogleGemini25Flash,
		maxTokens:   1000,
		temperature: 0.7,
		backend:     genai.BackendGeminiAPI,
	}

	// Apply options first to get any backend/project/location settings
	for _, opt := range opts {
		opt(g)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:   apiKey,
		Backend:  g.backend,
		Project:  g.project,
		Location: g.location,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClientCreationFailed, err)
	}
	g.client = client

	return g, nil
}

// Files returns the Gemini file service sharing this client.
func (g *Google) Files() *GoogleFiles {
	return &GoogleFiles{client: g.client}
}

// Complete sends req to GenerateContent. System messages become the system
// instruction; file references are resolved to file URI parts.
func (g *Google) Complete(ctx context.Context, req Request) (Completion, error) {
	if len(req.Messages) == 0 {
		return Completion{}, ErrNoMessages
	}

	system, rest := splitSystem(req.Messages)
	if len(rest) == 0 {
		return Completion{}, ErrNoMessages
	}

	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		parts := []*genai.Part{genai.NewPartFromText(m.Content)}
		if m.Role == RoleUser {
			fileParts, err := g.fileParts(ctx, m.Files)
			if err != nil {
				return Completion{}, err
			}
			parts = append(parts, fileParts...)
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	temperature := float32(firstPositiveFloat(req.Temperature, g.temperature))
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(firstPositive(req.MaxTokens, g.maxTokens)),
		Temperature:     &temperature,
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	model := firstNonEmpty(req.Model, g.model)
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return Completion{}, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return Completion{}, ErrEmptyResponse
	}

	c := Completion{Text: text, Model: model}
	if u := resp.UsageMetadata; u != nil {
		c.PromptTokens = int(u.PromptTokenCount)
		c.CompletionTokens = int(u.CandidatesTokenCount)
		c.TotalTokens = int(u.TotalTokenCount)
	}
	return c, nil
}

func (g *Google) fileParts(ctx context.Context, ids []string) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(ids))
	for _, id := range ids {
		f, err := g.client.Files.Get(ctx, id, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve file: %w", ErrCompletionFailed, err)
		}
		parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
	}
	return parts, nil
}
