// Package llm provides the LLM and embedding client abstractions used by the
// analysis, matching, and chat pipelines.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GenerateOptions control a single generation call.
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// Client is an abstraction over LLM chat providers.
type Client interface {
	// GenerateJSON generates a forced-JSON completion for a system prompt and
	// user content, returning the raw JSON text.
	GenerateJSON(ctx context.Context, system, user string, opts GenerateOptions) (string, error)
	// StreamContent streams a completion, invoking onToken for every
	// non-empty content delta. A non-nil error from onToken aborts the stream.
	StreamContent(ctx context.Context, system, user string, opts GenerateOptions, onToken func(token string) error) error
	// Close releases any resources held by the client.
	Close() error
}

// Embedder generates fixed-dimensionality embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiClient implements Client and Embedder for Google Gemini.
type GeminiClient struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

// NewGeminiClient creates a new Gemini client for the given chat and
// embedding models.
func NewGeminiClient(ctx context.Context, apiKey, chatModel, embeddingModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}, nil
}

// GenerateJSON generates a forced-JSON completion.
func (c *GeminiClient) GenerateJSON(ctx context.Context, system, user string, opts GenerateOptions) (string, error) {
	model := c.model(system, opts)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}

	// Clean any markdown code block wrappers
	return cleanJSONBlock(text), nil
}

// StreamContent streams a completion token by token.
func (c *GeminiClient) StreamContent(ctx context.Context, system, user string, opts GenerateOptions, onToken func(token string) error) error {
	model := c.model(system, opts)

	it := model.GenerateContentStream(ctx, genai.Text(user))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream failed: %w", err)
		}

		chunk, err := extractTextFromResponse(resp)
		if err != nil {
			continue // empty chunks are expected between deltas
		}
		if chunk == "" {
			continue
		}
		if err := onToken(chunk); err != nil {
			return err
		}
	}
}

// Embed generates an embedding vector for a single text.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return resp.Embedding.Values, nil
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GeminiClient) model(system string, opts GenerateOptions) *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.chatModel)
	model.SetTemperature(opts.Temperature)
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxOutputTokens)
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	return model
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// cleanJSONBlock removes markdown code block wrappers from JSON.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
