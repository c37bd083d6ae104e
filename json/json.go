// Package json encodes chat bubble updates in the wire format consumed by
// browser and file surfaces, and persists transcripts of rendered bubbles.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fwojciec/chatstream"
)

// updateDTO is the wire representation of a MessageUpdate. Field names match
// the bubble component's props. Exactly one of AvatarStyle or Logo is set.
type updateDTO struct {
	Message     string          `json:"message"`
	IsUser      bool            `json:"isUser"`
	AvatarStyle *string         `json:"avatarStyle,omitempty"`
	Logo        *string         `json:"logo,omitempty"`
	Seed        json.RawMessage `json:"seed"`
	Key         *string         `json:"key,omitempty"`
	Partial     bool            `json:"partial"`
	RichContent bool            `json:"richContent"`
	Failed      bool            `json:"failed,omitempty"`
}

// envelope is the v1 format of a persisted transcript.
type envelope struct {
	Version int         `json:"version"`
	Updates []updateDTO `json:"updates"`
}

// MarshalUpdate serializes u to its wire form.
func MarshalUpdate(u chatstream.MessageUpdate) ([]byte, error) {
	dto, err := marshalUpdate(u)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dto)
}

// UnmarshalUpdate deserializes an update from its wire form.
func UnmarshalUpdate(data []byte) (chatstream.MessageUpdate, error) {
	var dto updateDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return chatstream.MessageUpdate{}, fmt.Errorf("unmarshal update: %w", err)
	}
	return unmarshalUpdate(dto)
}

// MarshalTranscript serializes updates in v1 envelope format.
func MarshalTranscript(updates []chatstream.MessageUpdate) ([]byte, error) {
	env := envelope{
		Version: 1,
		Updates: make([]updateDTO, len(updates)),
	}
	for i, u := range updates {
		dto, err := marshalUpdate(u)
		if err != nil {
			return nil, fmt.Errorf("update %d: %w", i, err)
		}
		env.Updates[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTranscript deserializes updates from v1 envelope format.
func UnmarshalTranscript(data []byte) ([]chatstream.MessageUpdate, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	updates := make([]chatstream.MessageUpdate, len(env.Updates))
	for i, dto := range env.Updates {
		u, err := unmarshalUpdate(dto)
		if err != nil {
			return nil, fmt.Errorf("update %d: %w", i, err)
		}
		updates[i] = u
	}
	return updates, nil
}

// Save writes a transcript to path, creating parent directories as needed.
// The file is replaced atomically.
func Save(path string, updates []chatstream.MessageUpdate) error {
	data, err := MarshalTranscript(updates)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a transcript from path.
func Load(path string) ([]chatstream.MessageUpdate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalTranscript(data)
}

func marshalUpdate(u chatstream.MessageUpdate) (updateDTO, error) {
	dto := updateDTO{
		Message:     u.Text,
		IsUser:      u.IsUser,
		Seed:        marshalSeed(u.Seed),
		Partial:     u.Partial,
		RichContent: u.RichContent,
		Failed:      u.Failed,
	}
	switch a := u.Avatar.(type) {
	case chatstream.AvatarStyle:
		s := string(a)
		dto.AvatarStyle = &s
	case chatstream.Logo:
		l := string(a)
		dto.Logo = &l
	default:
		return updateDTO{}, fmt.Errorf("unknown avatar type %T: %w", u.Avatar, chatstream.ErrValidation)
	}
	if u.Key != "" {
		k := u.Key
		dto.Key = &k
	}
	return dto, nil
}

func unmarshalUpdate(dto updateDTO) (chatstream.MessageUpdate, error) {
	var avatar chatstream.Avatar
	switch {
	case dto.AvatarStyle != nil && dto.Logo != nil:
		return chatstream.MessageUpdate{}, fmt.Errorf("both avatarStyle and logo set: %w", chatstream.ErrValidation)
	case dto.Logo != nil:
		avatar = chatstream.Logo(*dto.Logo)
	case dto.AvatarStyle != nil:
		avatar = chatstream.AvatarStyle(*dto.AvatarStyle)
	default:
		return chatstream.MessageUpdate{}, fmt.Errorf("neither avatarStyle nor logo set: %w", chatstream.ErrValidation)
	}
	seed, err := unmarshalSeed(dto.Seed)
	if err != nil {
		return chatstream.MessageUpdate{}, err
	}
	var key string
	if dto.Key != nil {
		key = *dto.Key
	}
	return chatstream.MessageUpdate{
		Text:        dto.Message,
		IsUser:      dto.IsUser,
		Avatar:      avatar,
		Seed:        seed,
		Key:         key,
		Partial:     dto.Partial,
		RichContent: dto.RichContent,
		Failed:      dto.Failed,
	}, nil
}

// marshalSeed encodes integer seeds as JSON numbers and string seeds as
// JSON strings.
func marshalSeed(s chatstream.Seed) json.RawMessage {
	if s.IsString() {
		// Marshalling a string cannot fail.
		b, _ := json.Marshal(s.String())
		return b
	}
	return json.RawMessage(strconv.Itoa(s.Int()))
}

func unmarshalSeed(raw json.RawMessage) (chatstream.Seed, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return chatstream.DefaultSeed, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return chatstream.Seed{}, fmt.Errorf("decode seed: %w", err)
		}
		return chatstream.StringSeed(s), nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return chatstream.Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return chatstream.IntSeed(n), nil
}
