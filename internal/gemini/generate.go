package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/voxchat/internal/errors"
	"github.com/diogo/voxchat/internal/models"
)

// maxErrorBody caps how much of a failed response body is retained for
// diagnostics.
const maxErrorBody = 4096

// candidateTextPath locates the reply text inside a generateContent response.
const candidateTextPath = "candidates.0.content.parts.0.text"

// part, content and generateRequest mirror the generateContent request body
type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// Generate sends a single user turn and returns the assistant text.
//
// Only the system prompt and the current turn are sent; prior conversation
// turns are deliberately not forwarded, so continuity across turns is not
// preserved at the API layer. A well-formed response with no candidate text
// yields PlaceholderText and a nil error.
func (c *Client) Generate(ctx context.Context, userText string) (string, error) {
	if userText == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	if c.apiKey == "" {
		return "", apierrors.NewAPIError(0, c.generateURL(), "API key is not configured")
	}

	// The trailing space after the user text matches the wire format the
	// service was originally driven with.
	payload := generateRequest{
		Contents: []content{
			{
				Role:  models.RoleUser,
				Parts: []part{{Text: c.systemPrompt + "\n\n" + userText + " "}},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	endpoint := c.generateURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apierrors.NewNetworkError("generate content", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, "generate content failed", string(errorBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apierrors.NewNetworkError("read response", endpoint, err)
	}

	return extractText(respBody)
}

// extractText pulls the first candidate's first part text out of a response
// body. A valid body without that path maps to PlaceholderText, not an error.
func extractText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response is not valid JSON", "")
	}

	text := gjson.GetBytes(body, candidateTextPath)
	if !text.Exists() {
		return PlaceholderText, nil
	}

	return text.String(), nil
}
