package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/chatstream"
)

// Interface compliance check.
var _ chatstream.Provider = (*Client)(nil)

// Client implements [chatstream.Provider] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model used when a request names none.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream sends a streaming request to the Anthropic Messages API and returns
// a [chatstream.Source] yielding the reply's text deltas.
func (c *Client) Stream(ctx context.Context, req chatstream.Request) (chatstream.Source, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newStream(ctx, resp.Body), nil
}

func (c *Client) buildRequest(req chatstream.Request) apiRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	turns := req.Turns()
	msgs := make([]apiMessage, len(turns))
	for i, t := range turns {
		msgs[i] = apiMessage{
			Role:    string(t.Role),
			Content: []apiContentBlock{{Type: "text", Text: t.Text}},
		}
	}
	return apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Stream:      true,
		System:      req.SystemPrompt,
		Messages:    msgs,
		Temperature: req.Temperature,
	}
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("anthropic: %s: %s", apiErr.Error.Type, apiErr.Error.Message)
}
