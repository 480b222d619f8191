// Package gemini is the Completion Service boundary: prompt in, finished
// text or a structured error out. Transport and credential details are
// configuration; failures here are always recoverable and end up as visible
// chat text, never as a terminated session.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"

	// personaPreamble pins the companion persona onto every prompt.
	personaPreamble = "You are Shree, an empathetic assistant. Keep responses concise and kind. User says: "

	// fallbackReply stands in when the service returns an empty candidate.
	fallbackReply = "I'm sorry, I couldn't understand that."
)

// ErrMissingAPIKey is a recoverable service failure, not a startup fault.
var ErrMissingAPIKey = errors.New("missing API key")

// APIError is a non-200 answer from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion API returned status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete sends the prompt, wrapped in the persona preamble, and returns
// the finished reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	reqBody := generateRequest{
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: personaPreamble + prompt}},
			},
		},
	}

	endpoint := fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s", c.model, c.apiKey)
	resp, err := c.doRequest(ctx, http.MethodPost, endpoint, reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr errorResponse
		message := "unknown"
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return fallbackReply, nil
	}
	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return fallbackReply, nil
	}
	return text, nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	return resp, nil
}

// ErrorText renders a completion failure as the human-readable description
// that settles into the chat in place of a reply.
func ErrorText(err error) string {
	if errors.Is(err, ErrMissingAPIKey) {
		return "Internal Server Error: missing API key."
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("API error: %s", apiErr.Message)
	}
	return "Network or server error."
}
