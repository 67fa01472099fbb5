// Package mnemonic wraps a 24-word BIP-39 phrase that losslessly
// encodes 32 bytes of key material entropy (spec.md §3, §4.7). It is
// built on github.com/FactomProject/go-bip39, a BIP-39 word-list and
// checksum implementation already present in this module's dependency
// graph (go.mod's FactomProject/* family).
package mnemonic

import (
	"errors"
	"fmt"
	"strings"

	bip39 "github.com/FactomProject/go-bip39"
)

// ErrInvalidEntropySize, ErrInvalidChecksum mirror the distinct
// mnemonic failure kinds in spec.md §7.
var (
	ErrInvalidEntropySize = errors.New("mnemonic: entropy must be 16, 20, 24, 28, or 32 bytes")
	ErrInvalidChecksum    = errors.New("mnemonic: invalid mnemonic (bad word or checksum)")
)

// Mnemonic wraps a validated BIP-39 phrase. Its zero value is not
// valid; build one with FromEntropy or Parse.
type Mnemonic struct {
	phrase string
}

// FromEntropy encodes raw entropy (16/20/24/28/32 bytes, i.e.
// 128/160/192/224/256 bits) as a BIP-39 phrase.
func FromEntropy(entropy []byte) (Mnemonic, error) {
	switch len(entropy) {
	case 16, 20, 24, 28, 32:
	default:
		return Mnemonic{}, fmt.Errorf("%w: got %d", ErrInvalidEntropySize, len(entropy))
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return Mnemonic{}, fmt.Errorf("mnemonic: encode: %w", err)
	}
	return Mnemonic{phrase: phrase}, nil
}

// Parse normalizes whitespace and case in text and validates it as a
// BIP-39 phrase, checksum included.
func Parse(text string) (Mnemonic, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if !bip39.IsMnemonicValid(normalized) {
		return Mnemonic{}, ErrInvalidChecksum
	}
	return Mnemonic{phrase: normalized}, nil
}

// ToEntropy recovers the original entropy bytes.
func (m Mnemonic) ToEntropy() ([]byte, error) {
	entropy, err := bip39.MnemonicToByteArray(m.phrase, true)
	if err != nil {
		return nil, fmt.Errorf("mnemonic: decode: %w", err)
	}
	return entropy, nil
}

// String returns the space-separated word phrase. Unlike GoString /
// the redacted Format below, this exposes the secret — callers that
// log or print a Mnemonic by accident get the redacted form instead
// (see Format), but an explicit String() call is assumed intentional
// (e.g. writing to a file the user asked to export to).
func (m Mnemonic) String() string {
	return m.phrase
}

// Format implements fmt.Formatter so that %v, %s from a %+v struct
// dump, and similar accidental formatting never leak the phrase —
// only an explicit m.String() call does. This mirrors
// original_source's Debug impl, which prints "Mnemonic(...)".
func (m Mnemonic) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, "Mnemonic(redacted)")
}

// GoString implements fmt.GoStringer for the same reason as Format:
// %#v must not leak the phrase either.
func (m Mnemonic) GoString() string {
	return "Mnemonic(redacted)"
}
