package chatstream

import "fmt"

// Request carries the conversation and generation parameters.
// The provider uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model ID, provider-specific; empty = provider default
	SystemPrompt string
	Messages     []MessageUpdate // conversation so far, oldest first
	MaxTokens    int             // 0 = provider default
	Temperature  *float64        // nil = provider default
}

// Validate checks universal constraints on Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	turns := r.Turns()
	if len(turns) == 0 {
		return fmt.Errorf("conversation is empty: %w", ErrValidation)
	}
	if last := turns[len(turns)-1]; last.Role != RoleUser {
		return fmt.Errorf("last turn must be from the user, got %s: %w", last.Role, ErrValidation)
	}
	return nil
}

// Turn is one conversation message reduced to what a provider needs.
type Turn struct {
	Role Role
	Text string
}

// Turns converts the conversation to provider turns. Bubbles with no text
// (placeholders) are dropped, and consecutive bubbles from the same role
// are merged with a blank line, since providers require alternating roles.
func (r Request) Turns() []Turn {
	var turns []Turn
	for _, u := range r.Messages {
		if u.Text == "" {
			continue
		}
		role := RoleOf(u)
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Text += "\n\n" + u.Text
			continue
		}
		turns = append(turns, Turn{Role: role, Text: u.Text})
	}
	return turns
}
