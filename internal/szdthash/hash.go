// Package szdthash implements the fixed-width content hash used to
// address memo bodies and protected headers: fixed-width digest, hex
// display, byte accessors, bytewise ordering, with blake2b-256 as the
// underlying function, per the collision-resistance/streamable/
// deterministic requirements in spec.md §3.
package szdthash

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/szdt/szdt/internal/cborcodec"
)

// Size is the fixed digest length in bytes.
const Size = 32

// Hash is a fixed-width 32-byte content digest.
type Hash [Size]byte

// Zero is the hash of the empty byte string.
var Zero = Hash(blake2b.Sum256(nil))

// Sum returns the hash of b.
func Sum(b []byte) Hash {
	return Hash(blake2b.Sum256(b))
}

// SumReader streams r through the hash function without buffering it
// whole in memory.
func SumReader(r io.Reader) (Hash, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Hash{}, fmt.Errorf("szdthash: init blake2b: %w", err)
	}
	if _, err := io.Copy(h, r); err != nil {
		return Hash{}, fmt.Errorf("szdthash: hash stream: %w", err)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out, nil
}

// FromBytes builds a Hash from exactly Size bytes.
func FromBytes(b []byte) (Hash, error) {
	if len(b) != Size {
		return Hash{}, fmt.Errorf("szdthash: want %d bytes, got %d", Size, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// Bytes returns the digest's raw bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// Equal reports whether two hashes have identical bytes.
func (h Hash) Equal(other Hash) bool {
	return h == other
}

// Compare orders two hashes lexicographically over their bytes.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// String renders the digest as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Parse decodes a lowercase-hex string produced by String.
func Parse(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("szdthash: parse: %w", err)
	}
	return FromBytes(b)
}

// MarshalText implements encoding.TextMarshaler for use in places
// (configuration, logs) that want text, not CBOR.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// MarshalCBOR encodes the hash as a 32-byte CBOR byte string (major
// type 2), never as an array of small integers.
func (h Hash) MarshalCBOR() ([]byte, error) {
	return cborcodec.EncodeByteString(h[:])
}

// UnmarshalCBOR decodes a 32-byte CBOR byte string into the hash.
func (h *Hash) UnmarshalCBOR(data []byte) error {
	b, err := cborcodec.DecodeByteString(data)
	if err != nil {
		return fmt.Errorf("szdthash: unmarshal: %w", err)
	}
	parsed, err := FromBytes(b)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
