// Package gemini implements the gitscribe.Generator interface on Google's
// genai SDK. The SDK sits behind the GenerativeClient seam so generation
// logic is testable without network access.
package gemini

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"
)

// DefaultModel is the model used when the configuration names none.
const DefaultModel = "gemini-3-flash-preview"

// GenerativeClient abstracts the Gemini API for testing.
type GenerativeClient interface {
	GenerateContent(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error)
}

// Content represents a message in a Gemini conversation.
type Content struct {
	Parts []*Part
}

// Part represents a part of a message.
type Part struct {
	Text string
}

// GenerateContentConfig holds configuration for content generation.
type GenerateContentConfig struct {
	SystemInstruction *Content
	Temperature       *float32
	MaxOutputTokens   int32
}

// GenerateContentResponse holds the response from content generation.
type GenerateContentResponse struct {
	Text string
}

// Compile-time check that Client implements GenerativeClient.
var _ GenerativeClient = (*Client)(nil)

// Client wraps the genai.Client.
type Client struct {
	client *genai.Client
}

// NewClient creates a new Client with the given API key. An empty key
// lets the SDK fall back to its environment lookup.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

// GenerateContent implements GenerativeClient by delegating to the
// genai.Client.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error) {
	genaiContents := make([]*genai.Content, len(contents))
	for i, content := range contents {
		parts := make([]*genai.Part, len(content.Parts))
		for j, part := range content.Parts {
			parts[j] = &genai.Part{Text: part.Text}
		}
		genaiContents[i] = &genai.Content{Parts: parts}
	}

	genaiConfig := &genai.GenerateContentConfig{}
	if config.Temperature != nil {
		genaiConfig.Temperature = config.Temperature
	}
	if config.MaxOutputTokens > 0 {
		genaiConfig.MaxOutputTokens = config.MaxOutputTokens
	}
	if config.SystemInstruction != nil {
		parts := make([]*genai.Part, len(config.SystemInstruction.Parts))
		for i, part := range config.SystemInstruction.Parts {
			parts[i] = &genai.Part{Text: part.Text}
		}
		genaiConfig.SystemInstruction = &genai.Content{Parts: parts}
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genaiContents, genaiConfig)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	return &GenerateContentResponse{Text: result.Text()}, nil
}

// wrapAPIError converts genai.APIError to our APIError type for retry
// handling.
func wrapAPIError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.Code,
			Message:    fmt.Sprintf("gemini API error (HTTP %d): %s", apiErr.Code, apiErr.Message),
		}
	}
	return err
}

// APIError represents an error from the Gemini API with HTTP status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// MockGenerativeClient is a mock implementation of GenerativeClient for
// testing.
type MockGenerativeClient struct {
	GenerateContentFn func(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error)
}

func (m *MockGenerativeClient) GenerateContent(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error) {
	return m.GenerateContentFn(ctx, model, contents, config)
}
