// Package openai implements [chatstream.Provider] for the OpenAI Chat
// Completions API and compatible endpoints.
//
// It wraps the github.com/openai/openai-go SDK. The SDK's SSE stream is
// pulled one chunk at a time through the [chatstream.Source] interface.
package openai

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 8192
)
