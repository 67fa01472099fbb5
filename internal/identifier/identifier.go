// Package identifier implements the long-form did:key identifier for
// an Ed25519 public key (spec.md §3, §4.6): a self-describing string
// of the form "did:key:z<base58btc(0xED 0x01 || pubkey)>". The
// multibase 'z' prefix and base58btc alphabet are produced by
// github.com/multiformats/go-multibase (itself built on
// github.com/mr-tron/base58); the two-byte 0xED 0x01 prefix is the
// varint-encoded ed25519-pub code from
// github.com/multiformats/go-multicodec.
package identifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
)

const (
	// prefix is the literal scheme+method string every long-form
	// identifier begins with; the multibase code character 'z'
	// follows it.
	prefix = "did:key:"
)

// Sentinel errors, kept distinct per spec.md §4.6 so callers can tell
// apart an unsupported scheme from a corrupt or foreign key, the way
// original_source/src/did.rs's three failure messages do.
var (
	ErrUnsupportedPrefix     = errors.New("identifier: missing did:key: prefix")
	ErrUnsupportedEncoding   = errors.New("identifier: not a base58btc-multibase string")
	ErrUnsupportedMulticodec = errors.New("identifier: key is not multicodec ed25519-pub")
	ErrWrongKeyLength        = errors.New("identifier: decoded key is not 32 bytes")
)

// Format renders the public key as a long-form did:key identifier.
// The output is byte-for-byte stable for a given key.
func Format(pubKey [32]byte) string {
	raw := make([]byte, 0, 2+len(pubKey))
	raw = append(raw, multicodecPrefixBytes()...)
	raw = append(raw, pubKey[:]...)

	enc, err := multibase.Encode(multibase.Base58BTC, raw)
	if err != nil {
		// multibase.Encode only fails for an unsupported base;
		// Base58BTC is always supported, so this is unreachable.
		panic(fmt.Sprintf("identifier: encode base58btc: %v", err))
	}
	// enc already carries the 'z' multibase prefix character.
	return prefix + enc
}

// Parse validates and decodes a long-form did:key identifier back
// into a 32-byte Ed25519 public key.
func Parse(id string) ([32]byte, error) {
	var pub [32]byte

	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return pub, ErrUnsupportedPrefix
	}

	// multibase.Decode expects the multibase code character ('z')
	// prepended to the payload, which is exactly what's left of the
	// did:key: prefix.
	enc, raw, err := multibase.Decode(rest)
	if err != nil {
		return pub, fmt.Errorf("%w: %v", ErrUnsupportedEncoding, err)
	}
	if enc != multibase.Base58BTC {
		return pub, ErrUnsupportedEncoding
	}

	wantPrefix := multicodecPrefixBytes()
	if len(raw) < len(wantPrefix) || string(raw[:len(wantPrefix)]) != string(wantPrefix) {
		return pub, ErrUnsupportedMulticodec
	}

	keyBytes := raw[len(wantPrefix):]
	if len(keyBytes) != 32 {
		return pub, ErrWrongKeyLength
	}
	copy(pub[:], keyBytes)
	return pub, nil
}

// multicodecPrefixBytes returns the varint encoding of the
// ed25519-pub multicodec code (0xED, 2-byte varint form: 0xED 0x01).
func multicodecPrefixBytes() []byte {
	code := multicodec.Ed25519Pub
	return varint(uint64(code))
}

// varint encodes x as an unsigned LEB128 varint, the encoding
// multicodec codes use. The ed25519-pub code (0xed) is >127 so it
// always needs exactly two bytes: 0xED 0x01.
func varint(x uint64) []byte {
	var buf []byte
	for {
		b := byte(x & 0x7f)
		x >>= 7
		if x != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			break
		}
	}
	return buf
}
