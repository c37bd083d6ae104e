package bubbletea

import (
	"hash/fnv"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/chatstream"
	"github.com/mattn/go-runewidth"
)

// avatarWidth is the number of terminal cells reserved for an avatar.
const avatarWidth = 2

// Glyph palettes per avatar style family. The terminal cannot draw the
// generated images, so each style maps to a set of emoji and the seed
// picks one deterministically.
var palettes = map[chatstream.AvatarStyle][]string{
	chatstream.StyleFunEmoji:      {"😀", "😎", "🤓", "😊", "🙂", "😺", "🤠", "🥳"},
	chatstream.StyleBottts:        {"🤖", "👾", "🛸", "🔧", "🔩", "📡"},
	chatstream.StyleBotttsNeutral: {"🤖", "👾", "🛸", "📡"},
	chatstream.StyleIdenticon:     {"◆", "◈", "▣", "▦", "▩", "◧"},
	chatstream.StyleShapes:        {"●", "■", "▲", "◆", "★", "⬟"},
	chatstream.StyleIcons:         {"🌞", "🌂", "🌈", "🌊", "🔥", "🌙"},
	chatstream.StylePixelArt:      {"👤", "🧑", "👩", "👨", "🧒"},
}

var defaultPalette = []string{"🦊", "🐼", "🐨", "🦁", "🐸", "🐙", "🦉", "🐧"}

// AvatarGlyph returns the glyph shown next to a bubble, padded to a fixed
// width. Logos are shown as their first character (the host's initial for
// URLs); styles pick an emoji from the style's palette using the seed.
func AvatarGlyph(avatar chatstream.Avatar, seed chatstream.Seed) string {
	var glyph string
	switch a := avatar.(type) {
	case chatstream.Logo:
		glyph = logoGlyph(string(a))
	case chatstream.AvatarStyle:
		glyph = styleGlyph(a, seed)
	}
	if glyph == "" {
		glyph = "?"
	}
	return runewidth.FillRight(runewidth.Truncate(glyph, avatarWidth, ""), avatarWidth)
}

func logoGlyph(logo string) string {
	if u, err := url.Parse(logo); err == nil && u.Host != "" {
		logo = strings.TrimPrefix(u.Hostname(), "www.")
	}
	r, size := utf8.DecodeRuneInString(logo)
	if r == utf8.RuneError {
		return ""
	}
	if unicode.IsLetter(r) && runewidth.RuneWidth(r) == 1 {
		return string(unicode.ToUpper(r))
	}
	return logo[:size]
}

func styleGlyph(style chatstream.AvatarStyle, seed chatstream.Seed) string {
	palette, ok := palettes[style]
	if !ok {
		palette = defaultPalette
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(style))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(seed.String()))
	return palette[h.Sum32()%uint32(len(palette))]
}
