package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/tokenbot/pkg/bus"
)

func textEvent(text string) bus.InboundMessage {
	return bus.InboundMessage{Kind: bus.EventText, Channel: "telegram", SenderID: testUser, ChatID: testChat, Content: text}
}

func commandEvent(name string, args ...string) bus.InboundMessage {
	return bus.InboundMessage{Kind: bus.EventCommand, Channel: "telegram", SenderID: testUser, ChatID: testChat, Command: name, Args: args}
}

func TestRouterStaticCommands(t *testing.T) {
	tests := []struct {
		command string
		want    []string
	}{
		{"start", []string{"Welcome", "Ethereum", "Base", "/analyze"}},
		{"help", []string{"Help", exampleAddress}},
		{"chains", []string{"Chain ID: 1", "Chain ID: 8453", "etherscan.io", "basescan.org"}},
		{"status", []string{"Bot Status", "Analyses in progress: 0"}},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			f := newFixture(t)
			r := NewRouter(f.d)

			require.NoError(t, r.Handle(context.Background(), commandEvent(tt.command)))

			ops := f.transport.snapshot()
			require.Len(t, ops, 1)
			assert.Equal(t, testChat, ops[0].chatID)
			for _, want := range tt.want {
				assert.Contains(t, ops[0].text, want)
			}
			assert.Zero(t, f.analyzer.count())
		})
	}
}

func TestRouterAnalyzeCommand(t *testing.T) {
	f := newFixture(t)
	r := NewRouter(f.d)

	require.NoError(t, r.Handle(context.Background(), commandEvent("analyze", testAddr)))
	assert.Equal(t, 1, f.analyzer.count())
}

func TestRouterAnalyzeUsage(t *testing.T) {
	for _, args := range [][]string{nil, {testAddr, "extra"}} {
		f := newFixture(t)
		r := NewRouter(f.d)

		require.NoError(t, r.Handle(context.Background(), commandEvent("analyze", args...)))

		ops := f.transport.snapshot()
		require.Len(t, ops, 1)
		assert.Equal(t, usageText, ops[0].text)
		assert.Zero(t, f.analyzer.count())
	}
}

func TestRouterFreeText(t *testing.T) {
	f := newFixture(t)
	r := NewRouter(f.d)

	err := r.Handle(context.Background(), textEvent("hello there"))
	kind, _ := KindOf(err)
	assert.Equal(t, KindInvalidAddress, kind)
	ops := f.transport.snapshot()
	require.Len(t, ops, 1)
	assert.Contains(t, ops[0].text, "valid contract address")

	require.NoError(t, r.Handle(context.Background(), textEvent("\t"+testAddr+"\n")))
	assert.Equal(t, []string{testAddr}, f.analyzer.calls)
}

func TestRouterIgnoresUnknownEvents(t *testing.T) {
	f := newFixture(t)
	r := NewRouter(f.d)
	ctx := context.Background()

	assert.NoError(t, r.Handle(ctx, bus.InboundMessage{Kind: bus.EventCallback, CallbackID: "x", Content: "like:1"}))
	assert.NoError(t, r.Handle(ctx, commandEvent("unknown")))
	assert.NoError(t, r.Handle(ctx, bus.InboundMessage{Kind: "sticker"}))
	assert.Empty(t, f.transport.snapshot())
}

func TestRouterRefreshCallback(t *testing.T) {
	f := newFixture(t)
	r := NewRouter(f.d)

	err := r.Handle(context.Background(), bus.InboundMessage{
		Kind:       bus.EventCallback,
		SenderID:   testUser,
		ChatID:     testChat,
		MessageID:  "9",
		CallbackID: "cb",
		Content:    EncodeRefresh(testAddr),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{testAddr}, f.analyzer.calls)
	assert.Equal(t, "answer", f.transport.snapshot()[0].kind)
}

func TestRegisterCommands(t *testing.T) {
	f := newFixture(t)
	r := NewRouter(f.d)

	r.RegisterCommands(context.Background())
	ops := f.transport.snapshot()
	require.Len(t, ops, 1)
	assert.Equal(t, "commands", ops[0].kind)
	assert.Equal(t, "5", ops[0].text)

	f.transport.failCommand = errors.New("unauthorized")
	assert.NotPanics(t, func() { r.RegisterCommands(context.Background()) })
}

func TestRouterRunHandlesEventsConcurrently(t *testing.T) {
	f := newFixture(t)
	r := NewRouter(f.d)
	b := bus.NewMessageBus(8)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx, b)
	}()

	for _, user := range []string{"1", "2", "3"} {
		msg := textEvent(testAddr)
		msg.SenderID = user
		require.NoError(t, b.PublishInbound(ctx, msg))
	}

	require.Eventually(t, func() bool { return f.analyzer.count() == 3 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return f.guard.Len() == 0 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()
}
