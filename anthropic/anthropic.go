// Package anthropic implements [chatstream.Provider] for the Anthropic
// Messages API.
//
// It connects to the Messages API via SSE and yields text deltas through the
// pull-based [chatstream.Source] interface. The SSE parser drives one step
// at a time; events without visible text come through as nil elements.
package anthropic

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 8192
	apiVersion       = "2023-06-01"
	messagesPath     = "/v1/messages"
)

// apiRequest is the JSON body sent to the Anthropic Messages API.
type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Stream      bool         `json:"stream"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SSE response types.

type sseContentBlockStart struct {
	Type         string          `json:"type"`
	Index        int             `json:"index"`
	ContentBlock sseContentBlock `json:"content_block"`
}

type sseContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type sseContentBlockDelta struct {
	Type  string   `json:"type"`
	Index int      `json:"index"`
	Delta sseDelta `json:"delta"`
}

type sseDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
}

type sseError struct {
	Type  string         `json:"type"`
	Error sseErrorDetail `json:"error"`
}

type sseErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// apiErrorResponse is the JSON body returned on non-200 HTTP responses.
type apiErrorResponse struct {
	Type  string         `json:"type"`
	Error sseErrorDetail `json:"error"`
}
