package chat

import "github.com/Amanss21229/LearnSansaLearn21nov/internal/model"

type EventType string

// Inbound event types (client -> gateway).
const (
	EventAuth        EventType = "auth"
	EventJoinGroup   EventType = "join_group"
	EventSendMessage EventType = "send_message"
	EventAddReaction EventType = "add_reaction"
	EventPinMessage  EventType = "pin_message"
	EventTyping      EventType = "typing"
	EventStopTyping  EventType = "stop_typing"
)

// Outbound event types (gateway -> clients).
const (
	EventNewMessage     EventType = "new_message"
	EventReactionAdded  EventType = "reaction_added"
	EventMessagePinned  EventType = "message_pinned"
	EventBadWord        EventType = "bad_word_detected"
	EventChatDisabled   EventType = "chat_disabled"
	EventUserTyping     EventType = "user_typing"
	EventUserStopTyping EventType = "user_stop_typing"
)

// InboundEvent is what a client sends to the gateway. GroupID and Stream are
// mutually exclusive room selectors; which fields matter depends on Type.
type InboundEvent struct {
	Type EventType `json:"type"`

	// auth
	UserID string `json:"user_id,omitempty"`

	// room selection (send_message, typing)
	GroupID string `json:"group_id,omitempty"`
	Stream  string `json:"stream,omitempty"`

	// send_message
	Content     string            `json:"content,omitempty"`
	MessageType model.MessageType `json:"message_type,omitempty"`

	// add_reaction / pin_message
	MessageID string `json:"message_id,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	IsPinned  bool   `json:"is_pinned,omitempty"`
}

// OutboundEvent is what the gateway sends to clients. Payload uses typed
// structs to avoid map[string]any allocations on the hot path.
type OutboundEvent struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// NoticePayload is sent to the message author only when a send is rejected.
type NoticePayload struct {
	Message string `json:"message"`
}

// ReactionPayload is broadcast after a reaction toggle; Reactions carries the
// full updated map so clients never have to derive toggle direction.
type ReactionPayload struct {
	MessageID string            `json:"message_id"`
	Emoji     string            `json:"emoji"`
	UserID    string            `json:"user_id"`
	Reactions model.ReactionMap `json:"reactions"`
}

// PinPayload is broadcast when a message's pinned flag changes.
type PinPayload struct {
	MessageID string `json:"message_id"`
	IsPinned  bool   `json:"is_pinned"`
}

// TypingPayload is relayed to the room while a user is typing.
type TypingPayload struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
}
