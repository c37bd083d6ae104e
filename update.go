package chatstream

// Message carries the caller's parameters for one render of a chat bubble.
// Zero-valued AvatarStyle and Logo mean "not chosen".
type Message struct {
	Text        string
	IsUser      bool
	AvatarStyle AvatarStyle
	Logo        Logo
	Seed        Seed
	Key         string // identity key; empty = absent
	Partial     bool
	RichContent bool
}

// MessageUpdate is the normalized record handed to a Surface.
// Text is always the full text to display, never a delta.
type MessageUpdate struct {
	Text        string
	IsUser      bool
	Avatar      Avatar // AvatarStyle or Logo, never nil
	Seed        Seed
	Key         string // empty = absent; the surface treats the render as independent
	Partial     bool
	RichContent bool

	// Failed marks a terminal render issued after the chunk source failed.
	// Always false when Partial is true.
	Failed bool
}

// NewUpdate builds the normalized update for msg, resolving the avatar.
func NewUpdate(msg Message) MessageUpdate {
	return MessageUpdate{
		Text:        msg.Text,
		IsUser:      msg.IsUser,
		Avatar:      ResolveAvatar(msg.AvatarStyle, msg.Logo, msg.IsUser),
		Seed:        msg.Seed,
		Key:         msg.Key,
		Partial:     msg.Partial,
		RichContent: msg.RichContent,
	}
}

// AvatarStyle returns the transmitted avatar style, or "" when a logo is
// used instead.
func (u MessageUpdate) AvatarStyle() AvatarStyle {
	s, _ := u.Avatar.(AvatarStyle)
	return s
}

// Logo returns the transmitted logo, or "" when an avatar style is used.
func (u MessageUpdate) Logo() Logo {
	l, _ := u.Avatar.(Logo)
	return l
}
