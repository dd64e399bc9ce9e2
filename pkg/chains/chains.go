// Package chains is the registry of supported networks and their explorers.
package chains

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed chains.yaml
var defaultRegistry []byte

var ErrEmptyRegistry = errors.New("chain registry has no chains")

type Chain struct {
	Key         string `yaml:"key"`
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Emoji       string `yaml:"emoji"`
	Explorer    string `yaml:"explorer"`
	Native      string `yaml:"native"`
	DexScreener string `yaml:"dexscreener"`
}

// Registry resolves chain keys to their metadata. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	chains []Chain
	byKey  map[string]Chain
}

type document struct {
	Chains []Chain `yaml:"chains"`
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := Parse(defaultRegistry)
	if err != nil {
		panic(fmt.Sprintf("chains: built-in registry: %v", err))
	}
	return r
}

// Load reads a registry from path, or returns Default when path is empty.
func Load(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain registry: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse chain registry: %w", err)
	}
	if len(doc.Chains) == 0 {
		return nil, ErrEmptyRegistry
	}

	r := &Registry{byKey: make(map[string]Chain, len(doc.Chains))}
	for _, c := range doc.Chains {
		c.Key = normalize(c.Key)
		if c.Key == "" {
			return nil, fmt.Errorf("chain registry: entry %q has no key", c.Name)
		}
		if _, dup := r.byKey[c.Key]; dup {
			return nil, fmt.Errorf("chain registry: duplicate key %q", c.Key)
		}
		c.Explorer = strings.TrimRight(c.Explorer, "/")
		if c.DexScreener == "" {
			c.DexScreener = c.Key
		}
		r.byKey[c.Key] = c
		r.chains = append(r.chains, c)
	}
	return r, nil
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Lookup finds a chain by key, case-insensitively.
func (r *Registry) Lookup(key string) (Chain, bool) {
	c, ok := r.byKey[normalize(key)]
	return c, ok
}

// ByDexScreenerID finds the chain DexScreener reports as id.
func (r *Registry) ByDexScreenerID(id string) (Chain, bool) {
	id = normalize(id)
	for _, c := range r.chains {
		if c.DexScreener == id {
			return c, true
		}
	}
	return Chain{}, false
}

// All returns the chains in registry order.
func (r *Registry) All() []Chain {
	out := make([]Chain, len(r.chains))
	copy(out, r.chains)
	return out
}

// ExplorerURL returns the explorer token page for address on chain, and false
// when the chain is unknown or has no explorer.
func (r *Registry) ExplorerURL(chain, address string) (string, bool) {
	c, ok := r.Lookup(chain)
	if !ok || c.Explorer == "" {
		return "", false
	}
	return c.Explorer + "/token/" + strings.TrimSpace(address), true
}
