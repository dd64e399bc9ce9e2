package channels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/tokenbot/pkg/bus"
	"github.com/sipeed/tokenbot/pkg/config"
	"github.com/sipeed/tokenbot/pkg/dispatch"
)

const testToken = "123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghi"

type apiCall struct {
	method string
	params map[string]any
}

// fakeBotAPI answers Bot API calls. Markdown sends are rejected as
// unparsable and every edit reports "message is not modified".
type fakeBotAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	params := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&params)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, params: params})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "sendMessage":
		if params["parse_mode"] == "Markdown" {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: unclosed bold"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77,"date":0,"chat":{"id":42,"type":"private"}}}`))
	case "editMessageText":
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`))
	default:
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}
}

func (f *fakeBotAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.method)
	}
	return out
}

func newTestChannel(t *testing.T) (*TelegramChannel, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	ch, err := NewTelegramChannel(config.TelegramConfig{Token: testToken, APIServer: srv.URL}, bus.NewMessageBus(1))
	require.NoError(t, err)
	return ch, api
}

func TestSendTextFallsBackToPlainText(t *testing.T) {
	ch, api := newTestChannel(t)

	ref, err := ch.SendText(context.Background(), "42", "*broken", dispatch.SendOptions{Markdown: true, DisablePreview: true})
	require.NoError(t, err)
	assert.Equal(t, dispatch.MessageRef{ChatID: "42", MessageID: "77"}, ref)

	assert.Equal(t, []string{"sendMessage", "sendMessage"}, api.methods())
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Nil(t, api.calls[1].params["parse_mode"])
	assert.Equal(t, "*broken", api.calls[1].params["text"])
}

func TestEditTextIgnoresNotModified(t *testing.T) {
	ch, api := newTestChannel(t)

	err := ch.EditText(context.Background(), dispatch.MessageRef{ChatID: "42", MessageID: "77"}, "same", dispatch.SendOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"editMessageText"}, api.methods())
}

func TestSendTextRejectsBadChatID(t *testing.T) {
	ch, api := newTestChannel(t)

	_, err := ch.SendText(context.Background(), "not-a-number", "hi", dispatch.SendOptions{})
	require.Error(t, err)
	assert.Empty(t, api.methods())
}

func TestAnswerCallbackAndCommands(t *testing.T) {
	ch, api := newTestChannel(t)

	require.NoError(t, ch.AnswerCallback(context.Background(), "cb-1"))
	require.NoError(t, ch.RegisterCommands(context.Background(), dispatch.Commands))
	assert.Equal(t, []string{"answerCallbackQuery", "setMyCommands"}, api.methods())

	api.mu.Lock()
	defer api.mu.Unlock()
	cmds, ok := api.calls[1].params["commands"].([]any)
	require.True(t, ok)
	assert.Len(t, cmds, len(dispatch.Commands))
}
