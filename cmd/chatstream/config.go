package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/chatstream"
	"github.com/spf13/viper"
)

// Settings is the resolved CLI configuration. Values come from, lowest
// precedence first: defaults, the config file, CHATSTREAM_* environment
// variables, and explicitly set flags.
type Settings struct {
	Surface      string `mapstructure:"surface"`
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
	Prompt       string `mapstructure:"prompt"`
	Addr         string `mapstructure:"addr"`
	RedisAddr    string `mapstructure:"redis_addr"`
	Namespace    string `mapstructure:"namespace"`
	Transcript   string `mapstructure:"transcript"`
	LogFile      string `mapstructure:"log_file"`
	Debug        bool   `mapstructure:"debug"`

	Stream StreamSettings `mapstructure:"stream"`
}

// StreamSettings tunes the coalescer and the bubbles it renders.
type StreamSettings struct {
	FlushEvery      int           `mapstructure:"flush_every"`
	Throttle        time.Duration `mapstructure:"throttle"`
	FinalizeOnError bool          `mapstructure:"finalize_on_error"`
	RichContent     bool          `mapstructure:"rich_content"`
	UserAvatar      string        `mapstructure:"user_avatar"`
	BotAvatar       string        `mapstructure:"bot_avatar"`
	BotLogo         string        `mapstructure:"bot_logo"`
	Seed            string        `mapstructure:"seed"`
	DemoDelay       time.Duration `mapstructure:"demo_delay"`
}

var surfaces = []string{"tui", "ws", "ndjson"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("surface", "tui")
	v.SetDefault("provider", "")
	v.SetDefault("api_key", "")
	v.SetDefault("model", "")
	v.SetDefault("system_prompt", "You are a helpful assistant.")
	v.SetDefault("prompt", "")
	v.SetDefault("addr", "localhost:8080")
	v.SetDefault("redis_addr", "")
	v.SetDefault("namespace", "chatstream")
	v.SetDefault("transcript", "")
	v.SetDefault("log_file", "")
	v.SetDefault("debug", false)
	v.SetDefault("stream.flush_every", 1)
	v.SetDefault("stream.throttle", 30*time.Millisecond)
	v.SetDefault("stream.finalize_on_error", true)
	v.SetDefault("stream.rich_content", true)
	v.SetDefault("stream.user_avatar", "")
	v.SetDefault("stream.bot_avatar", "")
	v.SetDefault("stream.bot_logo", "")
	v.SetDefault("stream.seed", "")
	v.SetDefault("stream.demo_delay", 20*time.Millisecond)
}

// registerFlags defines one flag per setting. Flag names use dashes; the
// "stream." prefix is dropped.
func registerFlags(fs *flag.FlagSet) {
	fs.String("config", "", "Path to a config file (yaml, toml or json)")
	fs.String("surface", "tui", "Surface: tui, ws, ndjson")
	fs.String("provider", "", "Provider: demo, anthropic, gemini, openai (auto-detected from env vars if omitted)")
	fs.String("api-key", "", "API key (overrides provider's env var)")
	fs.String("model", "", "Model ID (provider-specific)")
	fs.String("system-prompt", "", "System prompt")
	fs.String("prompt", "", "Prompt for the ndjson surface (default: read stdin)")
	fs.String("addr", "", "Listen address for the ws surface")
	fs.String("redis-addr", "", "Redis address for the message store (default: in memory)")
	fs.String("namespace", "", "Redis key namespace")
	fs.String("transcript", "", "Transcript file to load on start and save on exit")
	fs.String("log-file", "", "Log destination (default: stderr, or discarded for tui)")
	fs.Bool("debug", false, "Development logging")
	fs.Int("flush-every", 1, "Accepted deltas between partial renders (0 disables)")
	fs.Duration("throttle", 0, "Minimum time between partial renders")
	fs.Bool("finalize-on-error", true, "Finalize the bubble as failed when the source fails")
	fs.Bool("rich-content", true, "Render replies as markdown")
	fs.String("user-avatar", "", "Avatar style for user bubbles")
	fs.String("bot-avatar", "", "Avatar style for reply bubbles")
	fs.String("bot-logo", "", "Logo for reply bubbles (wins over bot-avatar)")
	fs.String("seed", "", "Avatar seed")
	fs.Duration("demo-delay", 0, "Delay between graphemes of the demo provider")
}

var streamFlags = map[string]bool{
	"flush-every": true, "throttle": true, "finalize-on-error": true,
	"rich-content": true, "user-avatar": true, "bot-avatar": true,
	"bot-logo": true, "seed": true, "demo-delay": true,
}

// flagKey maps a flag name to its settings key.
func flagKey(name string) string {
	key := strings.ReplaceAll(name, "-", "_")
	if streamFlags[name] {
		return "stream." + key
	}
	return key
}

// loadSettings resolves Settings from v, the optional config file and the
// flags explicitly set on fs. fs must already be parsed.
func loadSettings(v *viper.Viper, fs *flag.FlagSet) (Settings, error) {
	setDefaults(v)
	v.SetEnvPrefix("CHATSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			return
		}
		v.Set(flagKey(f.Name), f.Value.String())
	})

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings the commands depend on.
func (s Settings) Validate() error {
	known := false
	for _, name := range surfaces {
		if s.Surface == name {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown surface %q: must be one of %s: %w",
			s.Surface, strings.Join(surfaces, ", "), chatstream.ErrValidation)
	}
	if s.Stream.UserAvatar != "" && !chatstream.AvatarStyle(s.Stream.UserAvatar).Valid() {
		return fmt.Errorf("unknown avatar style %q: %w", s.Stream.UserAvatar, chatstream.ErrValidation)
	}
	if s.Stream.DemoDelay < 0 {
		return fmt.Errorf("demo_delay must be non-negative, got %s: %w", s.Stream.DemoDelay, chatstream.ErrValidation)
	}
	return s.ReplyConfig().Validate()
}

// seed returns the configured avatar seed, or the default.
func (s Settings) seed() chatstream.Seed {
	if s.Stream.Seed == "" {
		return chatstream.DefaultSeed
	}
	if n, err := strconv.Atoi(s.Stream.Seed); err == nil {
		return chatstream.IntSeed(n)
	}
	return chatstream.StringSeed(s.Stream.Seed)
}

// ReplyConfig is the coalescer config template for reply bubbles. The
// identity key is filled in per reply.
func (s Settings) ReplyConfig() chatstream.Config {
	cfg := chatstream.DefaultConfig()
	cfg.AvatarStyle = chatstream.AvatarStyle(s.Stream.BotAvatar)
	cfg.Logo = chatstream.Logo(s.Stream.BotLogo)
	cfg.Seed = s.seed()
	cfg.RichContent = s.Stream.RichContent
	cfg.FlushEvery = s.Stream.FlushEvery
	cfg.Throttle = s.Stream.Throttle
	cfg.FinalizeOnError = s.Stream.FinalizeOnError
	return cfg
}

// UserMessage is the template for user bubbles.
func (s Settings) UserMessage() chatstream.Message {
	return chatstream.Message{
		IsUser:      true,
		AvatarStyle: chatstream.AvatarStyle(s.Stream.UserAvatar),
		Seed:        s.seed(),
	}
}
