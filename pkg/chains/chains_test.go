package chains

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addr = "0x1234567890abcdef1234567890abcdef12345678"

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "ethereum", all[0].Key)
	assert.Equal(t, int64(8453), all[1].ID)

	c, ok := r.Lookup(" Base ")
	require.True(t, ok)
	assert.Equal(t, "https://basescan.org", c.Explorer)
}

func TestExplorerURL(t *testing.T) {
	r := Default()

	url, ok := r.ExplorerURL("ethereum", addr)
	require.True(t, ok)
	assert.Equal(t, "https://etherscan.io/token/"+addr, url)

	_, ok = r.ExplorerURL("solana", addr)
	assert.False(t, ok)

	_, ok = r.ExplorerURL("", addr)
	assert.False(t, ok)
}

func TestByDexScreenerID(t *testing.T) {
	c, ok := Default().ByDexScreenerID("base")
	require.True(t, ok)
	assert.Equal(t, "base", c.Key)

	_, ok = Default().ByDexScreenerID("bsc")
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("chains: []"))
	assert.ErrorIs(t, err, ErrEmptyRegistry)

	_, err = Parse([]byte("chains:\n  - key: a\n  - key: A\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("chains:\n  - name: nameless\n"))
	assert.ErrorContains(t, err, "no key")

	_, err = Parse([]byte("chains: ["))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`chains:
  - key: arbitrum
    id: 42161
    name: Arbitrum One
    explorer: https://arbiscan.io/
`), 0o600))

	r, err := Load(path)
	require.NoError(t, err)

	url, ok := r.ExplorerURL("arbitrum", addr)
	require.True(t, ok)
	assert.Equal(t, "https://arbiscan.io/token/"+addr, url)

	c, _ := r.Lookup("arbitrum")
	assert.Equal(t, "arbitrum", c.DexScreener)

	r, err = Load("")
	require.NoError(t, err)
	assert.Len(t, r.All(), 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
