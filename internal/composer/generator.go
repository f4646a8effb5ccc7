package composer

import (
	"context"
	"log/slog"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/proxy"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7
)

// Completer is the transport the Generator sends requests through.
// Implemented by proxy.Client.
type Completer interface {
	Complete(ctx context.Context, req proxy.ChatRequest) (string, error)
}

// Generator answers utterances through the external service, grounded in
// the catalog it is handed on every call.
type Generator struct {
	client      Completer
	model       string
	maxTokens   int
	temperature float64
}

// NewGenerator creates a Generator. An empty model uses DefaultModel.
func NewGenerator(client Completer, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		client:      client,
		model:       model,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
}

// WithSampling overrides the completion budget and temperature. Zero values
// keep the defaults.
func (g *Generator) WithSampling(maxTokens int, temperature float64) *Generator {
	if maxTokens > 0 {
		g.maxTokens = maxTokens
	}
	if temperature > 0 {
		g.temperature = temperature
	}
	return g
}

// Model returns the model name requests are sent with.
func (g *Generator) Model() string { return g.model }

// Generate returns the service's answer verbatim. Failures are
// *proxy.ServiceError.
func (g *Generator) Generate(ctx context.Context, utterance string, role catalog.Role, displayName string, books []catalog.Entry) (string, error) {
	system := BuildGroundingPrompt(role, displayName, books)
	slog.Debug("grounding prompt built", "books", len(books), "est_tokens", EstimateTokens(system), "model", g.model)

	text, err := g.client.Complete(ctx, proxy.ChatRequest{
		Model: g.model,
		Messages: []proxy.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: utterance},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		if _, ok := proxy.AsServiceError(err); ok {
			return "", err
		}
		return "", &proxy.ServiceError{Kind: proxy.KindTransport, Message: "completion failed", Err: err}
	}
	return text, nil
}
