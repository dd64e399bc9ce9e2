package bus

import "context"

type EventKind string

const (
	EventCommand  EventKind = "command"
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
)

// InboundMessage is one event received from a chat channel. For callbacks,
// Content carries the callback data and MessageID the message the control
// was attached to.
type InboundMessage struct {
	Kind       EventKind         `json:"kind"`
	Channel    string            `json:"channel"`
	SenderID   string            `json:"sender_id"`
	ChatID     string            `json:"chat_id"`
	MessageID  string            `json:"message_id,omitempty"`
	Content    string            `json:"content"`
	Command    string            `json:"command,omitempty"`
	Args       []string          `json:"args,omitempty"`
	CallbackID string            `json:"callback_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type MessageHandler func(context.Context, InboundMessage) error
