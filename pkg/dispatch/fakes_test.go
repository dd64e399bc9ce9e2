package dispatch

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/sipeed/tokenbot/pkg/token"
)

type op struct {
	kind      string // send, edit, answer, commands
	chatID    string
	messageID string
	text      string
	opts      SendOptions
}

type fakeTransport struct {
	mu     sync.Mutex
	ops    []op
	nextID int

	// failSend is consulted with the 1-based index of each SendText call.
	failSend    func(n int, text string) error
	failEdit    func(text string) error
	failAnswer  error
	failCommand error
	sendCalls   int
}

func (f *fakeTransport) SendText(_ context.Context, chatID, text string, opts SendOptions) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.failSend != nil {
		if err := f.failSend(f.sendCalls, text); err != nil {
			return MessageRef{}, err
		}
	}
	f.nextID++
	id := strconv.Itoa(f.nextID)
	f.ops = append(f.ops, op{kind: "send", chatID: chatID, messageID: id, text: text, opts: opts})
	return MessageRef{ChatID: chatID, MessageID: id}, nil
}

func (f *fakeTransport) EditText(_ context.Context, ref MessageRef, text string, opts SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEdit != nil {
		if err := f.failEdit(text); err != nil {
			return err
		}
	}
	f.ops = append(f.ops, op{kind: "edit", chatID: ref.ChatID, messageID: ref.MessageID, text: text, opts: opts})
	return nil
}

func (f *fakeTransport) AnswerCallback(_ context.Context, callbackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op{kind: "answer", messageID: callbackID})
	return f.failAnswer
}

func (f *fakeTransport) RegisterCommands(_ context.Context, commands []BotCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op{kind: "commands", text: strconv.Itoa(len(commands))})
	return f.failCommand
}

func (f *fakeTransport) snapshot() []op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]op, len(f.ops))
	copy(out, f.ops)
	return out
}

type analyzerFunc func(ctx context.Context, address string) (*token.Report, error)

func (fn analyzerFunc) Analyze(ctx context.Context, address string) (*token.Report, error) {
	return fn(ctx, address)
}

type formatterFunc func(report *token.Report) (token.Payload, error)

func (fn formatterFunc) Format(report *token.Report) (token.Payload, error) {
	return fn(report)
}

type countingAnalyzer struct {
	mu    sync.Mutex
	calls []string
	err   error
	chain string
}

func (a *countingAnalyzer) Analyze(_ context.Context, address string) (*token.Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, address)
	if a.err != nil {
		return nil, a.err
	}
	return &token.Report{Address: address, Chain: a.chain}, nil
}

func (a *countingAnalyzer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

var errUpstream = errors.New("upstream exploded")
