package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fwojciec/chatstream"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Interface compliance check.
var _ chatstream.Provider = (*Client)(nil)

// Client implements [chatstream.Provider] for the Chat Completions API.
type Client struct {
	client openai.Client
	model  string
}

type settings struct {
	model   string
	options []option.RequestOption
}

// Option configures a [Client].
type Option func(*settings)

// WithModel sets the model used when a request names none.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithBaseURL points the client at a compatible endpoint, or at httptest.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.options = append(s.options, option.WithBaseURL(url)) }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.options = append(s.options, option.WithHTTPClient(hc)) }
}

// WithMaxRetries sets how many times the SDK retries a failed request
// before the stream starts.
func WithMaxRetries(n int) Option {
	return func(s *settings) { s.options = append(s.options, option.WithMaxRetries(n)) }
}

// New creates a new OpenAI [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	s := settings{model: defaultModel}
	for _, o := range opts {
		o(&s)
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, s.options...)
	return &Client{
		client: openai.NewClient(reqOpts...),
		model:  s.model,
	}
}

// Stream starts a streaming chat completion and returns a
// [chatstream.Source] yielding the reply's text deltas. HTTP failures
// surface from the first call to Next.
func (c *Client) Stream(ctx context.Context, req chatstream.Request) (chatstream.Source, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	s := c.client.Chat.Completions.NewStreaming(ctx, c.buildParams(req))
	return newStream(ctx, s), nil
}

func (c *Client) buildParams(req chatstream.Request) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(model),
		Messages:            ConvertTurns(req.SystemPrompt, req.Turns()),
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	return params
}

// ConvertTurns converts the system prompt and conversation turns to chat
// completion messages.
func ConvertTurns(system string, turns []chatstream.Turn) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	for _, t := range turns {
		switch t.Role {
		case chatstream.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(t.Text))
		default:
			msgs = append(msgs, openai.UserMessage(t.Text))
		}
	}
	return msgs
}
