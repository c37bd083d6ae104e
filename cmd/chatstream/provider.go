package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/anthropic"
	"github.com/fwojciec/chatstream/gemini"
	"github.com/fwojciec/chatstream/openai"
)

// envKeys holds provider API keys read from the environment in main().
type envKeys struct {
	Anthropic string
	Gemini    string
	OpenAI    string
}

// resolveProvider selects and constructs the provider. A nil provider
// means the offline demo. All env var values are passed in as parameters;
// env is only read in main().
func resolveProvider(ctx context.Context, providerFlag, apiKeyFlag, model string, env envKeys) (chatstream.Provider, error) {
	provider := providerFlag

	// Auto-detect from env vars if no flag.
	if provider == "" {
		var found []string
		if env.Anthropic != "" {
			found = append(found, "anthropic")
		}
		if env.Gemini != "" {
			found = append(found, "gemini")
		}
		if env.OpenAI != "" {
			found = append(found, "openai")
		}
		switch len(found) {
		case 0:
			provider = "demo"
		case 1:
			provider = found[0]
		default:
			return nil, fmt.Errorf("multiple API keys found (%s): use -provider flag to select", strings.Join(found, ", "))
		}
	}

	// Resolve API key: explicit flag overrides env var.
	key := apiKeyFlag
	switch provider {
	case "demo":
		return nil, nil
	case "anthropic":
		if key == "" {
			key = env.Anthropic
		}
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set (use -api-key flag or environment variable)")
		}
		var opts []anthropic.Option
		if model != "" {
			opts = append(opts, anthropic.WithModel(model))
		}
		return anthropic.New(key, opts...), nil
	case "gemini":
		if key == "" {
			key = env.Gemini
		}
		if key == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set (use -api-key flag or environment variable)")
		}
		var opts []gemini.Option
		if model != "" {
			opts = append(opts, gemini.WithModel(model))
		}
		client, err := gemini.New(ctx, key, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		if key == "" {
			key = env.OpenAI
		}
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set (use -api-key flag or environment variable)")
		}
		var opts []openai.Option
		if model != "" {
			opts = append(opts, openai.WithModel(model))
		}
		return openai.New(key, opts...), nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be \"demo\", \"anthropic\", \"gemini\" or \"openai\"", provider)
	}
}
