package dispatch

import (
	"context"
	"errors"

	"github.com/sipeed/tokenbot/pkg/address"
	"github.com/sipeed/tokenbot/pkg/logger"
)

var errBadRefreshToken = errors.New("refresh token does not carry a valid address")

// Callback is a user activation of an inline control. MessageID is empty
// when the transport could not tell which message carried the control.
type Callback struct {
	ID        string
	User      string
	ChatID    string
	MessageID string
	Data      string
}

// Refresh re-runs the analysis named by a refresh callback and writes the
// result over the message that carried the control. Refreshes share the
// per-user slot with regular analyses.
func (d *Dispatcher) Refresh(ctx context.Context, cb Callback) (err error) {
	// Acknowledge first so the client stops its progress indicator.
	if ackErr := d.transport.AnswerCallback(ctx, cb.ID); ackErr != nil {
		logger.WarnCF(component, "Failed to answer callback", map[string]any{
			"callback_id": cb.ID,
			"error":       ackErr.Error(),
		})
	}

	addr, ok := DecodeRefresh(cb.Data)
	if !ok {
		return nil
	}
	defer func() { d.metrics.RefreshFinished(err == nil) }()

	ref := MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}
	if !address.IsValid(addr) {
		return d.refreshFailed(ctx, ref, addr, errBadRefreshToken)
	}

	release, ok := d.guard.Acquire(cb.User)
	if !ok {
		d.metrics.RequestBusy()
		if replyErr := d.reply(ctx, cb.ChatID, inProgressText); replyErr != nil {
			logger.WarnCF(component, "Failed to send busy notice", map[string]any{
				"chat_id": cb.ChatID,
				"error":   replyErr.Error(),
			})
		}
		return &Error{Kind: KindAlreadyInProgress, Address: addr}
	}
	defer release()

	logger.InfoCF(component, "Refresh started", map[string]any{
		"user":    cb.User,
		"chat_id": cb.ChatID,
		"address": address.Short(addr),
	})

	if ref.MessageID == "" {
		ref, err = d.transport.SendText(ctx, cb.ChatID, refreshingText(addr), markdown)
		if err != nil {
			return d.refreshFailed(ctx, MessageRef{ChatID: cb.ChatID}, addr, err)
		}
	} else if err := d.transport.EditText(ctx, ref, refreshingText(addr), markdown); err != nil {
		return d.refreshFailed(ctx, ref, addr, err)
	}

	report, err := d.analyze(ctx, addr)
	if err != nil {
		return d.refreshFailed(ctx, ref, addr, err)
	}
	payload, err := d.format(report, addr)
	if err != nil {
		return d.refreshFailed(ctx, ref, addr, err)
	}
	if err := d.deliver(ctx, ref, payload); err != nil {
		return d.refreshFailed(ctx, ref, addr, err)
	}
	return nil
}

func (d *Dispatcher) refreshFailed(ctx context.Context, ref MessageRef, addr string, cause error) error {
	var notifyErr error
	if ref.MessageID != "" {
		notifyErr = d.transport.EditText(ctx, ref, refreshErrorText, SendOptions{})
	} else {
		_, notifyErr = d.transport.SendText(ctx, ref.ChatID, refreshErrorText, SendOptions{})
	}

	fields := map[string]any{
		"chat_id": ref.ChatID,
		"error":   cause.Error(),
	}
	if notifyErr != nil {
		fields["notify_error"] = notifyErr.Error()
	}
	logger.ErrorCF(component, "Refresh failed", fields)

	return &Error{Kind: KindCallbackError, Address: addr, Err: cause}
}
