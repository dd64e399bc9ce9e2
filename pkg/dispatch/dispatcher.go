// Package dispatch turns chat events into token analyses: it validates
// addresses, keeps one analysis in flight per user, calls the analyzer and
// formatter, and delivers the result in transport-sized chunks followed by
// an action panel.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sipeed/tokenbot/pkg/chains"
	"github.com/sipeed/tokenbot/pkg/chunker"
	"github.com/sipeed/tokenbot/pkg/guard"
	"github.com/sipeed/tokenbot/pkg/logger"
	"github.com/sipeed/tokenbot/pkg/metrics"
	"github.com/sipeed/tokenbot/pkg/token"
)

const component = "dispatch"

var errEmptyPayload = errors.New("formatter returned an empty payload")

type Options struct {
	Transport Transport
	Analyzer  Analyzer
	Formatter Formatter
	Chains    ChainResolver
	// Networks are listed by the start and chains commands.
	Networks []chains.Chain
	Guard    *guard.Guard
	Metrics  *metrics.Metrics

	// MaxMessageLength is the transport's hard cap per message, in runes.
	MaxMessageLength int
	// ReservedMargin is subtracted from MaxMessageLength when chunking.
	ReservedMargin int
}

type Dispatcher struct {
	transport Transport
	analyzer  Analyzer
	formatter Formatter
	chains    ChainResolver
	networks  []chains.Chain
	guard     *guard.Guard
	metrics   *metrics.Metrics
	maxLen    int
	margin    int
}

func New(opts Options) (*Dispatcher, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("dispatch: transport is required")
	}
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("dispatch: analyzer is required")
	}
	if opts.Formatter == nil {
		return nil, fmt.Errorf("dispatch: formatter is required")
	}
	if opts.MaxMessageLength <= 0 || opts.ReservedMargin < 0 || opts.ReservedMargin >= opts.MaxMessageLength {
		return nil, fmt.Errorf("dispatch: invalid message limits %d/%d", opts.MaxMessageLength, opts.ReservedMargin)
	}
	g := opts.Guard
	if g == nil {
		g = guard.New()
	}
	return &Dispatcher{
		transport: opts.Transport,
		analyzer:  opts.Analyzer,
		formatter: opts.Formatter,
		chains:    opts.Chains,
		networks:  opts.Networks,
		guard:     g,
		metrics:   opts.Metrics,
		maxLen:    opts.MaxMessageLength,
		margin:    opts.ReservedMargin,
	}, nil
}

var markdown = SendOptions{Markdown: true, DisablePreview: true}

func (d *Dispatcher) reply(ctx context.Context, chatID, text string) error {
	_, err := d.transport.SendText(ctx, chatID, text, markdown)
	return err
}

// analyze calls the analyzer, turning a panic into an ordinary error so the
// caller can fail the session and notify the user.
func (d *Dispatcher) analyze(ctx context.Context, address string) (report *token.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			report, err = nil, fmt.Errorf("analyzer panicked: %v", p)
		}
	}()
	return d.analyzer.Analyze(ctx, address)
}

func (d *Dispatcher) callFormatter(report *token.Report) (payload token.Payload, err error) {
	defer func() {
		if p := recover(); p != nil {
			payload, err = token.Payload{}, fmt.Errorf("formatter panicked: %v", p)
		}
	}()
	return d.formatter.Format(report)
}

// format runs the formatter and rejects payloads with nothing to send.
func (d *Dispatcher) format(report *token.Report, address string) (token.Payload, error) {
	payload, err := d.callFormatter(report)
	if err != nil {
		return token.Payload{}, err
	}
	if strings.TrimSpace(payload.Text) == "" {
		return token.Payload{}, errEmptyPayload
	}
	if payload.Address == "" {
		payload.Address = address
	}
	return payload, nil
}

// deliver writes payload into placeholder, chunking it when it exceeds the
// message cap: the first chunk replaces the placeholder, later chunks are
// sent as new messages in order. The action panel follows the last chunk.
// Delivery stops at the first failed send.
func (d *Dispatcher) deliver(ctx context.Context, placeholder MessageRef, payload token.Payload) error {
	if utf8.RuneCountInString(payload.Text) <= d.maxLen {
		if err := d.transport.EditText(ctx, placeholder, payload.Text, markdown); err != nil {
			return fmt.Errorf("edit placeholder: %w", err)
		}
		d.metrics.ChunkSent()
	} else {
		n := 0
		for chunk := range chunker.Chunks(payload.Text, d.maxLen-d.margin) {
			var err error
			if n == 0 {
				err = d.transport.EditText(ctx, placeholder, chunk, markdown)
			} else {
				_, err = d.transport.SendText(ctx, placeholder.ChatID, chunk, markdown)
			}
			if err != nil {
				return fmt.Errorf("deliver chunk %d: %w", n+1, err)
			}
			d.metrics.ChunkSent()
			n++
		}
		logger.DebugCF(component, "Delivered chunked payload", map[string]any{
			"chat_id": placeholder.ChatID,
			"chunks":  n,
		})
	}

	d.sendActions(ctx, placeholder.ChatID, payload)
	return nil
}

// sendActions posts the quick-actions panel. A failure here is logged only:
// the analysis itself has already been delivered.
func (d *Dispatcher) sendActions(ctx context.Context, chatID string, payload token.Payload) {
	buttons, ok := actionButtons(d.chains, payload)
	if !ok {
		return
	}
	opts := markdown
	opts.Buttons = buttons
	if _, err := d.transport.SendText(ctx, chatID, actionsText, opts); err != nil {
		logger.WarnCF(component, "Failed to send action panel", map[string]any{
			"chat_id": chatID,
			"error":   err.Error(),
		})
	}
}

func (d *Dispatcher) status() statusInfo {
	info := statusInfo{InFlight: d.guard.Len()}
	if d.metrics != nil {
		info.Served = d.metrics.SessionsSucceeded.Load()
		info.Failed = d.metrics.SessionsFailed.Load()
		info.Uptime = d.metrics.Uptime()
	}
	return info
}
