package channels

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/sipeed/tokenbot/pkg/bus"
	"github.com/sipeed/tokenbot/pkg/logger"
)

// Channel is a chat platform connection that feeds the message bus.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
}

// BaseChannel carries the state every channel shares: its name, the bus it
// publishes to, the sender allow-list and the running flag.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowList []string
	running   atomic.Bool
}

// NewBaseChannel creates a channel base. An empty allowFrom admits everyone;
// entries may be a sender ID, a username, or "id|username".
func NewBaseChannel(name string, b *bus.MessageBus, allowFrom []string) *BaseChannel {
	allow := make([]string, 0, len(allowFrom))
	for _, entry := range allowFrom {
		if entry = strings.TrimSpace(entry); entry != "" {
			allow = append(allow, entry)
		}
	}
	return &BaseChannel{name: name, bus: b, allowList: allow}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) setRunning(running bool) {
	c.running.Store(running)
}

// IsAllowed reports whether a sender may use the bot.
func (c *BaseChannel) IsAllowed(senderID, username string) bool {
	if len(c.allowList) == 0 {
		return true
	}
	username = strings.TrimPrefix(username, "@")
	for _, entry := range c.allowList {
		id, name, hasName := strings.Cut(entry, "|")
		if id == senderID {
			return true
		}
		if !hasName {
			name = id
		}
		name = strings.TrimPrefix(name, "@")
		if username != "" && strings.EqualFold(name, username) {
			return true
		}
	}
	return false
}

// HandleMessage stamps msg with the channel name and publishes it, dropping
// senders outside the allow-list.
func (c *BaseChannel) HandleMessage(ctx context.Context, msg bus.InboundMessage) {
	if !c.IsAllowed(msg.SenderID, msg.Metadata["username"]) {
		logger.DebugCF(c.name, "Message rejected by allowlist", map[string]any{
			"user_id": msg.SenderID,
		})
		return
	}
	msg.Channel = c.name
	if err := c.bus.PublishInbound(ctx, msg); err != nil {
		logger.WarnCF(c.name, "Failed to publish inbound event", map[string]any{
			"kind":  string(msg.Kind),
			"error": err.Error(),
		})
	}
}
