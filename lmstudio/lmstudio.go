// Package lmstudio implements the gitscribe.Generator interface for LM
// Studio's local server, which speaks the OpenAI chat completion wire
// format. Only the name and the default endpoint differ.
package lmstudio

import (
	"github.com/gitscribe/gitscribe"
	"github.com/gitscribe/gitscribe/openai"
	"github.com/gitscribe/gitscribe/provider"
)

// Compile-time interface verification.
var _ gitscribe.Generator = (*Client)(nil)

const defaultBaseURL = "http://localhost:1234/v1"

// Client is an openai.Client pointed at a local LM Studio server.
type Client struct {
	*openai.Client
}

// New creates a Client from settings.
func New(settings provider.Settings) *Client {
	if settings.BaseURL == "" {
		settings.BaseURL = defaultBaseURL
	}
	return &Client{Client: openai.New(settings)}
}

// Name implements gitscribe.Generator.
func (c *Client) Name() string {
	return "lmstudio"
}
