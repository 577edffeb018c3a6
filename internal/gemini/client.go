// Package gemini implements the remote inference client for the
// generative-language REST API.
package gemini

import (
	"net/http"
	"time"

	"github.com/diogo/voxchat/internal/models"
)

// DefaultSystemPrompt is the fixed instruction prepended to every turn.
const DefaultSystemPrompt = "You are a helpful business data assistant. " +
	"Answer questions about metrics, trends and forecasts clearly and concisely. " +
	"Use markdown formatting where it helps readability."

// PlaceholderText is returned when a response is well-formed transport-wise
// but missing the expected content fields.
const PlaceholderText = "No response text was returned."

// Client issues inference requests to the generative-language endpoint.
// One synchronous request/response call per user turn; no streaming.
type Client struct {
	httpClient   *http.Client
	apiKey       string
	model        models.Model
	systemPrompt string
	endpoint     string // overrides the model endpoint when non-empty
}

// Option is a function that configures the client
type Option func(*Client)

// WithModel sets the model for the client
func WithModel(model models.Model) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSystemPrompt overrides the fixed system instruction
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// WithEndpoint overrides the generate endpoint. Used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// NewClient creates a new inference client
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		apiKey:       apiKey,
		model:        models.DefaultModel,
		systemPrompt: DefaultSystemPrompt,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Model returns the client's model
func (c *Client) Model() models.Model {
	return c.model
}

// generateURL returns the endpoint for generate requests
func (c *Client) generateURL() string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return c.model.GenerateURL()
}
