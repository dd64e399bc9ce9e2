package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkAddr = "0x1111111111111111111111111111111111111111"

func fakeProviders(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/latest/dex/tokens/"):
			_, _ = w.Write([]byte(`{"pairs":[{"chainId":"base","dexId":"aerodrome","priceUsd":"1.5",
				"baseToken":{"address":"` + checkAddr + `","name":"Check","symbol":"CHK"},
				"liquidity":{"usd":50000}}]}`))
		default:
			_, _ = w.Write([]byte(`{"code":1,"result":{}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestCheckPrintsReport(t *testing.T) {
	url := fakeProviders(t)
	t.Setenv("DEXSCREENER_URL", url)
	t.Setenv("GOPLUS_URL", url)
	t.Setenv("CHAINS_FILE", "")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", checkAddr})

	require.NoError(t, cmd.Execute())
	text := out.String()
	assert.Contains(t, text, "*Check* (CHK)")
	assert.Contains(t, text, "*Chain:* Base")
	assert.Contains(t, text, "Explorer: https://basescan.org/token/"+checkAddr)
	assert.Contains(t, text, "Messages: 1 (limit 4096 characters)")
}

func TestCheckSplitsAtConfiguredLength(t *testing.T) {
	url := fakeProviders(t)
	t.Setenv("DEXSCREENER_URL", url)
	t.Setenv("GOPLUS_URL", url)
	t.Setenv("MAX_MESSAGE_LENGTH", "120")
	t.Setenv("RESERVED_MARGIN", "20")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", checkAddr})

	require.NoError(t, cmd.Execute())
	assert.NotContains(t, out.String(), "Messages: 1 ")
	assert.Contains(t, out.String(), "(limit 120 characters)")
}

func TestCheckRejectsInvalidAddress(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"check", "0x123"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid contract address")
}
