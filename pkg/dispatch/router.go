package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/sipeed/tokenbot/pkg/bus"
	"github.com/sipeed/tokenbot/pkg/logger"
	"github.com/sipeed/tokenbot/pkg/utils"
)

// Router maps inbound chat events to dispatcher operations.
type Router struct {
	d  *Dispatcher
	wg sync.WaitGroup
}

func NewRouter(d *Dispatcher) *Router {
	return &Router{d: d}
}

var _ bus.MessageHandler = (*Router)(nil).Handle

// RegisterCommands publishes the command list to the transport. Failure is
// logged and otherwise ignored.
func (r *Router) RegisterCommands(ctx context.Context) {
	if err := r.d.transport.RegisterCommands(ctx, Commands); err != nil {
		logger.WarnCF(component, "Failed to register bot commands", map[string]any{
			"error": err.Error(),
		})
		return
	}
	logger.InfoC(component, "Bot commands registered")
}

// Run consumes events from b until ctx is done or b is closed, handling each
// event in its own goroutine. It returns once every in-flight event is done.
func (r *Router) Run(ctx context.Context, b *bus.MessageBus) {
	for {
		msg, ok := b.ConsumeInbound(ctx)
		if !ok {
			break
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.dispatch(ctx, msg)
		}()
	}
	r.wg.Wait()
}

func (r *Router) dispatch(ctx context.Context, msg bus.InboundMessage) {
	defer func() {
		if p := recover(); p != nil {
			logger.ErrorCF(component, "Event handler panicked", map[string]any{
				"kind":   string(msg.Kind),
				"sender": msg.SenderID,
				"panic":  fmt.Sprint(p),
				"stack":  string(debug.Stack()),
			})
		}
	}()

	err := r.Handle(ctx, msg)
	if err != nil && !expected(err) {
		logger.DebugCF(component, "Event ended with error", map[string]any{
			"kind":   string(msg.Kind),
			"sender": msg.SenderID,
			"error":  err.Error(),
		})
	}
}

// Handle processes one event synchronously.
func (r *Router) Handle(ctx context.Context, msg bus.InboundMessage) error {
	switch msg.Kind {
	case bus.EventCommand:
		return r.handleCommand(ctx, msg)
	case bus.EventText:
		return r.handleText(ctx, msg)
	case bus.EventCallback:
		if !strings.HasPrefix(msg.Content, RefreshPrefix) {
			return nil
		}
		return r.d.Refresh(ctx, Callback{
			ID:        msg.CallbackID,
			User:      msg.SenderID,
			ChatID:    msg.ChatID,
			MessageID: msg.MessageID,
			Data:      msg.Content,
		})
	default:
		logger.DebugCF(component, "Ignoring event", map[string]any{"kind": string(msg.Kind)})
		return nil
	}
}

func (r *Router) handleCommand(ctx context.Context, msg bus.InboundMessage) error {
	d := r.d
	switch strings.ToLower(msg.Command) {
	case "start":
		return d.reply(ctx, msg.ChatID, startText(d.networks))
	case "help":
		return d.reply(ctx, msg.ChatID, helpText)
	case "chains":
		return d.reply(ctx, msg.ChatID, chainsText(d.networks))
	case "status":
		return d.reply(ctx, msg.ChatID, statusText(d.status()))
	case "analyze":
		if len(msg.Args) != 1 {
			return d.reply(ctx, msg.ChatID, usageText)
		}
		return d.Analyze(ctx, Request{User: msg.SenderID, ChatID: msg.ChatID, Address: msg.Args[0]})
	default:
		logger.DebugCF(component, "Unknown command", map[string]any{
			"command": utils.Truncate(msg.Command, 32),
			"sender":  msg.SenderID,
		})
		return nil
	}
}

// handleText treats any free text as a candidate address; the session's
// validation step answers non-addresses with the expected format.
func (r *Router) handleText(ctx context.Context, msg bus.InboundMessage) error {
	return r.d.Analyze(ctx, Request{
		User:    msg.SenderID,
		ChatID:  msg.ChatID,
		Address: strings.TrimSpace(msg.Content),
	})
}
