package model

import "time"

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

// ReactionMap maps an emoji symbol to the set of user IDs that reacted with
// it. Stored as a single jsonb value; set semantics are enforced by Toggle.
type ReactionMap map[string][]string

// Toggle flips userID's reaction under emoji: adds it if absent, removes it
// if present. An emoji key whose set becomes empty is deleted. Returns true
// when the reaction was added.
func (rm ReactionMap) Toggle(emoji, userID string) bool {
	users := rm[emoji]
	for i, id := range users {
		if id == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(rm, emoji)
			} else {
				rm[emoji] = users
			}
			return false
		}
	}
	rm[emoji] = append(users, userID)
	return true
}

// Clone returns a deep copy so a toggle never mutates a shared map.
func (rm ReactionMap) Clone() ReactionMap {
	out := make(ReactionMap, len(rm))
	for emoji, users := range rm {
		out[emoji] = append([]string(nil), users...)
	}
	return out
}

// Message is one chat message. Exactly one of GroupID/Stream is set: GroupID
// scopes the message to a group room, Stream to a community room.
type Message struct {
	ID        string      `json:"id"`
	GroupID   string      `json:"group_id,omitempty"`
	Stream    string      `json:"stream,omitempty"`
	UserID    string      `json:"user_id"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	IsPinned  bool        `json:"is_pinned"`
	Reactions ReactionMap `json:"reactions"`
	CreatedAt time.Time   `json:"created_at"`

	// Enriched at broadcast/read time from the sender's current profile.
	UserName  string `json:"user_name,omitempty"`
	UserPhoto string `json:"user_photo,omitempty"`
}

// ChatSetting controls whether non-admins may post into a stream's community
// room. A missing row reads as enabled.
type ChatSetting struct {
	ID        string `json:"id"`
	Stream    string `json:"stream"`
	IsEnabled bool   `json:"is_enabled"`
}
