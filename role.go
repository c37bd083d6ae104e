package chatstream

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RoleOf returns the sender role of a rendered bubble.
func RoleOf(u MessageUpdate) Role {
	if u.IsUser {
		return RoleUser
	}
	return RoleAssistant
}
