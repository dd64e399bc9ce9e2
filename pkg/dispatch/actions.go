package dispatch

import (
	"strings"

	"github.com/sipeed/tokenbot/pkg/token"
)

// RefreshPrefix marks callback data that asks for a fresh analysis.
const RefreshPrefix = "refresh:"

// EncodeRefresh builds the callback data carried by a refresh control.
func EncodeRefresh(address string) string {
	return RefreshPrefix + address
}

// DecodeRefresh recovers the address from refresh callback data.
func DecodeRefresh(data string) (string, bool) {
	return strings.CutPrefix(data, RefreshPrefix)
}

// actionButtons builds the explorer and refresh controls for payload. It
// returns false when the payload's chain cannot be resolved to an explorer.
func actionButtons(chains ChainResolver, payload token.Payload) ([][]Button, bool) {
	if chains == nil || payload.Chain == "" || payload.Address == "" {
		return nil, false
	}
	url, ok := chains.ExplorerURL(payload.Chain, payload.Address)
	if !ok {
		return nil, false
	}
	return [][]Button{
		{{Text: "🔍 View on Explorer", URL: url}},
		{{Text: "🔄 Refresh Analysis", CallbackData: EncodeRefresh(payload.Address)}},
	}, true
}
