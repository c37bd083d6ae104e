package chatstream

// Avatar is a sealed interface for the sender identity shown next to a
// bubble. Exactly one of AvatarStyle or Logo is carried by an update.
// The unexported marker method prevents external implementations.
type Avatar interface {
	avatar()
}

// AvatarStyle names a generated avatar style.
// See https://www.dicebear.com/styles for the catalogue.
type AvatarStyle string

func (AvatarStyle) avatar() {}

const (
	StyleAdventurer        AvatarStyle = "adventurer"
	StyleAdventurerNeutral AvatarStyle = "adventurer-neutral"
	StyleAvataaars         AvatarStyle = "avataaars"
	StyleAvataaarsNeutral  AvatarStyle = "avataaars-neutral"
	StyleBigEars           AvatarStyle = "big-ears"
	StyleBigEarsNeutral    AvatarStyle = "big-ears-neutral"
	StyleBigSmile          AvatarStyle = "big-smile"
	StyleBottts            AvatarStyle = "bottts"
	StyleBotttsNeutral     AvatarStyle = "bottts-neutral"
	StyleCroodles          AvatarStyle = "croodles"
	StyleCroodlesNeutral   AvatarStyle = "croodles-neutral"
	StyleFunEmoji          AvatarStyle = "fun-emoji"
	StyleIcons             AvatarStyle = "icons"
	StyleIdenticon         AvatarStyle = "identicon"
	StyleInitials          AvatarStyle = "initials"
	StyleLorelei           AvatarStyle = "lorelei"
	StyleLoreleiNeutral    AvatarStyle = "lorelei-neutral"
	StyleMicah             AvatarStyle = "micah"
	StyleMiniavs           AvatarStyle = "miniavs"
	StyleOpenPeeps         AvatarStyle = "open-peeps"
	StylePersonas          AvatarStyle = "personas"
	StylePixelArt          AvatarStyle = "pixel-art"
	StylePixelArtNeutral   AvatarStyle = "pixel-art-neutral"
	StyleShapes            AvatarStyle = "shapes"
	StyleThumbs            AvatarStyle = "thumbs"
)

// AvatarStyles lists every supported style in catalogue order.
var AvatarStyles = []AvatarStyle{
	StyleAdventurer, StyleAdventurerNeutral, StyleAvataaars, StyleAvataaarsNeutral,
	StyleBigEars, StyleBigEarsNeutral, StyleBigSmile, StyleBottts, StyleBotttsNeutral,
	StyleCroodles, StyleCroodlesNeutral, StyleFunEmoji, StyleIcons, StyleIdenticon,
	StyleInitials, StyleLorelei, StyleLoreleiNeutral, StyleMicah, StyleMiniavs,
	StyleOpenPeeps, StylePersonas, StylePixelArt, StylePixelArtNeutral, StyleShapes,
	StyleThumbs,
}

// Valid reports whether s is one of AvatarStyles.
func (s AvatarStyle) Valid() bool {
	for _, v := range AvatarStyles {
		if s == v {
			return true
		}
	}
	return false
}

// Logo is an opaque image reference (URL or path) used instead of a
// generated avatar, typically for branding.
type Logo string

func (Logo) avatar() {}

// ResolveAvatar picks the avatar transmitted with an update. A non-empty
// logo wins and the style is never consulted. Otherwise an empty style
// defaults by role: fun-emoji for users, bottts for everyone else.
func ResolveAvatar(style AvatarStyle, logo Logo, isUser bool) Avatar {
	if logo != "" {
		return logo
	}
	if style != "" {
		return style
	}
	if isUser {
		return StyleFunEmoji
	}
	return StyleBottts
}

// Interface compliance checks.
var (
	_ Avatar = AvatarStyle("")
	_ Avatar = Logo("")
)
