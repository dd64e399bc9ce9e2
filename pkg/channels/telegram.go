package channels

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/sipeed/tokenbot/pkg/bus"
	"github.com/sipeed/tokenbot/pkg/config"
	"github.com/sipeed/tokenbot/pkg/dispatch"
	"github.com/sipeed/tokenbot/pkg/logger"
	"github.com/sipeed/tokenbot/pkg/utils"
)

const (
	sendTimeout = 10 * time.Second
	stopTimeout = 5 * time.Second
)

var allowedUpdates = []string{"message", "callback_query"}

// TelegramChannel receives updates by long polling and implements
// dispatch.Transport on top of the Bot API.
type TelegramChannel struct {
	*BaseChannel
	bot      *telego.Bot
	config   config.TelegramConfig
	username string
	cancel   context.CancelFunc
	done     chan struct{}
}

var _ dispatch.Transport = (*TelegramChannel)(nil)

func NewTelegramChannel(cfg config.TelegramConfig, b *bus.MessageBus) (*TelegramChannel, error) {
	opts := []telego.BotOption{telego.WithLogger(telegoLogger{token: cfg.Token})}
	if cfg.APIServer != "" {
		opts = append(opts, telego.WithAPIServer(cfg.APIServer))
	}
	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", b, cfg.AllowFrom),
		bot:         bot,
		config:      cfg,
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot")

	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot user: %w", err)
	}
	c.username = me.Username

	// Updates queued while the bot was down are not replayed.
	if err := c.bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		logger.WarnCF("telegram", "Failed to drop pending updates", map[string]any{
			"error": err.Error(),
		})
	}

	pollCtx, cancel := context.WithCancel(ctx)
	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        pollSeconds(c.config.PollTimeout),
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	c.cancel = cancel
	c.done = make(chan struct{})
	c.setRunning(true)

	go func() {
		defer close(c.done)
		for update := range updates {
			c.handleUpdate(pollCtx, update)
		}
	}()

	logger.InfoCF("telegram", "Telegram bot connected", map[string]any{
		"username": me.Username,
		"user_id":  me.ID,
	})
	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram bot")
	c.setRunning(false)
	if c.cancel == nil {
		return nil
	}
	c.cancel()

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	select {
	case <-c.done:
		return nil
	case <-stopCtx.Done():
		return fmt.Errorf("telegram polling did not stop: %w", stopCtx.Err())
	}
}

func pollSeconds(d time.Duration) int {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 30
	}
	return secs
}

func (c *TelegramChannel) handleUpdate(ctx context.Context, update telego.Update) {
	msg, ok := inboundFromUpdate(update, c.username)
	if !ok {
		return
	}
	logger.DebugCF("telegram", "Received update", map[string]any{
		"kind":      string(msg.Kind),
		"sender_id": msg.SenderID,
		"chat_id":   msg.ChatID,
		"preview":   utils.Truncate(msg.Content, 50),
	})
	c.HandleMessage(ctx, msg)
}

// inboundFromUpdate converts a Telegram update into a bus event. Commands
// addressed to another bot are skipped.
func inboundFromUpdate(update telego.Update, botUsername string) (bus.InboundMessage, bool) {
	switch {
	case update.Message != nil:
		m := update.Message
		if m.From == nil || m.From.IsBot {
			return bus.InboundMessage{}, false
		}
		text := strings.TrimSpace(m.Text)
		if text == "" {
			return bus.InboundMessage{}, false
		}
		msg := bus.InboundMessage{
			Kind:      bus.EventText,
			SenderID:  strconv.FormatInt(m.From.ID, 10),
			ChatID:    strconv.FormatInt(m.Chat.ID, 10),
			MessageID: strconv.Itoa(m.MessageID),
			Content:   text,
			Metadata:  userMetadata(m.From, m.Chat.Type),
		}
		if strings.HasPrefix(text, "/") {
			name, args, ok := parseCommand(text, botUsername)
			if !ok {
				return bus.InboundMessage{}, false
			}
			msg.Kind = bus.EventCommand
			msg.Command = name
			msg.Args = args
		}
		return msg, true

	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if q.Message == nil {
			return bus.InboundMessage{}, false
		}
		chat := q.Message.GetChat()
		msg := bus.InboundMessage{
			Kind:       bus.EventCallback,
			SenderID:   strconv.FormatInt(q.From.ID, 10),
			ChatID:     strconv.FormatInt(chat.ID, 10),
			CallbackID: q.ID,
			Content:    q.Data,
			Metadata:   userMetadata(&q.From, chat.Type),
		}
		if q.Message.IsAccessible() {
			msg.MessageID = strconv.Itoa(q.Message.GetMessageID())
		}
		return msg, true
	}
	return bus.InboundMessage{}, false
}

func userMetadata(u *telego.User, chatType string) map[string]string {
	return map[string]string{
		"username":   u.Username,
		"first_name": u.FirstName,
		"chat_type":  chatType,
	}
}

// parseCommand splits "/name@bot arg1 arg2". ok is false when the command
// names a different bot.
func parseCommand(text, botUsername string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	head, target, addressed := strings.Cut(fields[0][1:], "@")
	if addressed && botUsername != "" && !strings.EqualFold(target, botUsername) {
		return "", nil, false
	}
	if head == "" {
		return "", nil, false
	}
	return strings.ToLower(head), fields[1:], true
}

func (c *TelegramChannel) SendText(ctx context.Context, chatID, text string, opts dispatch.SendOptions) (dispatch.MessageRef, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return dispatch.MessageRef{}, fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	params := tu.Message(tu.ID(id), text)
	if opts.Markdown {
		params.ParseMode = telego.ModeMarkdown
	}
	if opts.DisablePreview {
		params.LinkPreviewOptions = &telego.LinkPreviewOptions{IsDisabled: true}
	}
	if kb := inlineKeyboard(opts.Buttons); kb != nil {
		params.ReplyMarkup = kb
	}

	sent, err := c.sendMessage(ctx, params)
	if err != nil && params.ParseMode != "" && isMarkdownParseError(err) {
		logger.WarnCF("telegram", "Markdown rejected; falling back to plain text", map[string]any{
			"chat_id": chatID,
			"error":   err.Error(),
		})
		params.ParseMode = ""
		sent, err = c.sendMessage(ctx, params)
	}
	if err != nil {
		return dispatch.MessageRef{}, fmt.Errorf("failed to send telegram message: %w", err)
	}
	return dispatch.MessageRef{ChatID: chatID, MessageID: strconv.Itoa(sent.MessageID)}, nil
}

func (c *TelegramChannel) sendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return c.bot.SendMessage(sendCtx, params)
}

func (c *TelegramChannel) EditText(ctx context.Context, ref dispatch.MessageRef, text string, opts dispatch.SendOptions) error {
	chatID, err := strconv.ParseInt(ref.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", ref.ChatID, err)
	}
	messageID, err := strconv.Atoi(ref.MessageID)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", ref.MessageID, err)
	}

	params := &telego.EditMessageTextParams{
		ChatID:      tu.ID(chatID),
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: inlineKeyboard(opts.Buttons),
	}
	if opts.Markdown {
		params.ParseMode = telego.ModeMarkdown
	}
	if opts.DisablePreview {
		params.LinkPreviewOptions = &telego.LinkPreviewOptions{IsDisabled: true}
	}

	err = c.editMessage(ctx, params)
	if err != nil && params.ParseMode != "" && isMarkdownParseError(err) {
		logger.WarnCF("telegram", "Markdown rejected; falling back to plain text", map[string]any{
			"chat_id": ref.ChatID,
			"error":   err.Error(),
		})
		params.ParseMode = ""
		err = c.editMessage(ctx, params)
	}
	if err != nil && !isNotModifiedError(err) {
		return fmt.Errorf("failed to edit telegram message: %w", err)
	}
	return nil
}

func (c *TelegramChannel) editMessage(ctx context.Context, params *telego.EditMessageTextParams) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	_, err := c.bot.EditMessageText(sendCtx, params)
	return err
}

func (c *TelegramChannel) AnswerCallback(ctx context.Context, callbackID string) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := c.bot.AnswerCallbackQuery(sendCtx, &telego.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

func (c *TelegramChannel) RegisterCommands(ctx context.Context, commands []dispatch.BotCommand) error {
	list := make([]telego.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		list = append(list, telego.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := c.bot.SetMyCommands(sendCtx, &telego.SetMyCommandsParams{Commands: list}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

func inlineKeyboard(rows [][]dispatch.Button) *telego.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]telego.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btn := tu.InlineKeyboardButton(b.Text)
			switch {
			case b.URL != "":
				btn = btn.WithURL(b.URL)
			default:
				btn = btn.WithCallbackData(b.CallbackData)
			}
			buttons = append(buttons, btn)
		}
		out = append(out, tu.InlineKeyboardRow(buttons...))
	}
	return tu.InlineKeyboard(out...)
}

func isMarkdownParseError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "can't parse entities") || strings.Contains(msg, "can't parse entity")
}

func isNotModifiedError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

// telegoLogger routes telego's diagnostics into the component logger with
// the bot token masked.
type telegoLogger struct {
	token string
}

func (l telegoLogger) redact(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if l.token != "" {
		msg = strings.ReplaceAll(msg, l.token, "BOT_TOKEN")
	}
	return msg
}

func (l telegoLogger) Debugf(format string, args ...any) {
	logger.DebugCF("telegram", "telego", map[string]any{"detail": l.redact(format, args...)})
}

func (l telegoLogger) Errorf(format string, args ...any) {
	logger.ErrorCF("telegram", "telego", map[string]any{"detail": l.redact(format, args...)})
}
