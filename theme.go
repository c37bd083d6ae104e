package chatstream

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme. A negative index means "no color".
type Theme struct {
	User   int // User bubble border and avatar
	Bot    int // Assistant bubble border and avatar
	Error  int // Failed bubbles
	Muted  int // Status bar, placeholders, code gutters
	Accent int // Headings, links
	Math   int // Inline and display math
	Cursor int // Streaming cursor on partial bubbles
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		User:   4,
		Bot:    2,
		Error:  1,
		Muted:  8,
		Accent: 5,
		Math:   6,
		Cursor: 3,
	}
}

// RoleColor returns the accent color index for a bubble of the given role.
func (t Theme) RoleColor(isUser bool) int {
	if isUser {
		return t.User
	}
	return t.Bot
}
