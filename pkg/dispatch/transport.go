package dispatch

import (
	"context"

	"github.com/sipeed/tokenbot/pkg/token"
)

// MessageRef identifies a message already delivered to a chat.
type MessageRef struct {
	ChatID    string
	MessageID string
}

// Button is an inline control. Exactly one of URL and CallbackData is set.
type Button struct {
	Text         string
	URL          string
	CallbackData string
}

type SendOptions struct {
	Markdown       bool
	DisablePreview bool
	// Buttons are laid out as rows of inline controls.
	Buttons [][]Button
}

type BotCommand struct {
	Name        string
	Description string
}

// Transport is the chat platform as seen by the dispatcher.
type Transport interface {
	SendText(ctx context.Context, chatID, text string, opts SendOptions) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string, opts SendOptions) error
	AnswerCallback(ctx context.Context, callbackID string) error
	RegisterCommands(ctx context.Context, commands []BotCommand) error
}

// Analyzer produces the structured analysis of a contract address.
type Analyzer interface {
	Analyze(ctx context.Context, address string) (*token.Report, error)
}

// Formatter renders a report into a single transport payload.
type Formatter interface {
	Format(report *token.Report) (token.Payload, error)
}

// ChainResolver maps a chain key to an explorer page for address.
type ChainResolver interface {
	ExplorerURL(chain, address string) (string, bool)
}
