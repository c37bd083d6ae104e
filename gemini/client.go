package gemini

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fwojciec/chatstream"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ chatstream.Provider = (*Client)(nil)

// Client implements [chatstream.Provider] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

type settings struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*settings)

// WithModel sets the model used when a request names none.
// Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithBaseURL overrides the API endpoint. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	s := settings{model: defaultModel}
	for _, o := range opts {
		o(&s)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  s.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: s.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Client{client: gc, model: s.model}, nil
}

// Stream sends a streaming request to the Gemini API and returns a
// [chatstream.Source] yielding the reply's text deltas. The request is
// issued lazily on the first call to Next.
func (c *Client) Stream(ctx context.Context, req chatstream.Request) (chatstream.Source, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := ConvertTurns(req.Turns())
	config := buildConfig(req)

	seq := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	return newStream(ctx, seq), nil
}

func buildConfig(req chatstream.Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
		},
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertTurns converts conversation turns to genai Contents. Assistant
// turns use Gemini's "model" role.
func ConvertTurns(turns []chatstream.Turn) []*genai.Content {
	result := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == chatstream.RoleAssistant {
			role = "model"
		}
		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Text}},
		})
	}
	return result
}
