package chatstream

import (
	"fmt"
	"time"
)

// Config describes one streamed message.
//
// FlushEvery <= 0 disables count-based flushing: only the placeholder and
// terminal renders occur. Throttle <= 0 disables the time gate.
type Config struct {
	IsUser      bool
	AvatarStyle AvatarStyle
	Logo        Logo
	Seed        Seed
	Key         string // identity key; strongly recommended
	RichContent bool

	Throttle    time.Duration // minimum time between two intermediate renders
	FlushEvery  int           // accepted deltas between two count-eligible renders
	InitialText string

	// FinalizeOnError issues a terminal render marked Failed when the source
	// fails, so the surface is never left showing a partial bubble.
	FinalizeOnError bool
}

// DefaultConfig returns a Config rendering assistant text as rich content
// on every delta with no throttle.
func DefaultConfig() Config {
	return Config{
		Seed:        DefaultSeed,
		RichContent: true,
		FlushEvery:  1,
	}
}

// Validate checks constraints that callers building a Config from user
// input usually want enforced. Run does not call it.
func (c Config) Validate() error {
	if c.AvatarStyle != "" && !c.AvatarStyle.Valid() {
		return fmt.Errorf("unknown avatar style %q: %w", c.AvatarStyle, ErrValidation)
	}
	if c.FlushEvery < 0 {
		return fmt.Errorf("flush_every must be non-negative, got %d: %w", c.FlushEvery, ErrValidation)
	}
	if c.Throttle < 0 {
		return fmt.Errorf("throttle must be non-negative, got %s: %w", c.Throttle, ErrValidation)
	}
	return nil
}

func (c Config) update(text string, partial bool) MessageUpdate {
	return NewUpdate(Message{
		Text:        text,
		IsUser:      c.IsUser,
		AvatarStyle: c.AvatarStyle,
		Logo:        c.Logo,
		Seed:        c.Seed,
		Key:         c.Key,
		Partial:     partial,
		RichContent: c.RichContent,
	})
}
