// Package address validates and renders EVM contract addresses.
package address

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// Prefix is the literal every contract address starts with.
	Prefix = "0x"
	// Length is the full rendered length: prefix plus 40 hex digits.
	Length = len(Prefix) + 40
)

// IsValid reports whether text, once surrounding whitespace is trimmed, is a
// 0x-prefixed 40 hex digit contract address. It never panics.
func IsValid(text string) bool {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Prefix) {
		return false
	}
	if len(text) != Length {
		return false
	}
	for i := len(Prefix); i < len(text); i++ {
		if !isHexDigit(text[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

// Checksum renders a valid address in EIP-55 mixed case. Invalid input is
// returned trimmed but otherwise unchanged.
func Checksum(addr string) string {
	addr = strings.TrimSpace(addr)
	if !IsValid(addr) {
		return addr
	}
	lower := strings.ToLower(addr[len(Prefix):])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	var b strings.Builder
	b.Grow(Length)
	b.WriteString(Prefix)
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			c -= 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Short renders an address as 0x1234...5678 for log lines and toasts.
func Short(addr string) string {
	addr = strings.TrimSpace(addr)
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
