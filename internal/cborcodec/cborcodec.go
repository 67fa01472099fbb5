// Package cborcodec provides the canonical-CBOR profile used for
// every hashed or signed structure in szdt: fixed integer widths, no
// indefinite-length items, map keys in bytewise sorted order, and
// floats in their shortest form. The codec itself does not reject
// floats; internal/memo rejects them in protected headers. It is a
// thin, opinionated wrapper around
// github.com/fxamacker/cbor/v2's "Core Deterministic Encoding"
// profile (RFC 8949 §4.2.1), which already gives us sorted keys and
// fixed-width integers for free.
package cborcodec

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ErrEndOfStream is returned by Decoder.Decode when the reader is
// positioned exactly between values and has no more bytes to offer.
// It is distinct from a truncated/malformed decode error: callers
// should treat it the same as io.EOF (it is io.EOF itself, returned
// unwrapped, so errors.Is(err, io.EOF) also works).
var ErrEndOfStream = io.EOF

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOpts := cbor.CoreDetEncOptions()
	// CoreDetEncOptions sorts map keys bytewise per RFC 8949's "Core
	// Deterministic Encoding" profile, forbids indefinite-length
	// containers on the encode side, and encodes floats (NaN and Inf
	// included) in their shortest form; no options are added to it.
	var err error
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cborcodec: build encode mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		// Indefinite-length items never appear in a canonical
		// encoding; reject them on decode too so a forged,
		// non-canonical stream is never silently accepted.
		IndefLength: cbor.IndefLengthForbidden,
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cborcodec: build decode mode: %v", err))
	}
}

// Encode canonically serializes v.
func Encode(v interface{}) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cborcodec: encode: %w", err)
	}
	return b, nil
}

// EncodeTo canonically serializes v and writes it to w.
func EncodeTo(w io.Writer, v interface{}) error {
	b, err := Encode(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	if err != nil {
		return fmt.Errorf("cborcodec: write: %w", err)
	}
	return nil
}

// Decode parses exactly the canonical CBOR value in b into v.
func Decode(b []byte, v interface{}) error {
	if err := decMode.Unmarshal(b, v); err != nil {
		return fmt.Errorf("cborcodec: decode: %w", err)
	}
	return nil
}

// Decoder decodes a sequence of canonical-CBOR values read one at a
// time from a single underlying io.Reader, the way encoding/json.Decoder
// is meant to be used across a stream. cbor.Decoder reads ahead into
// its own internal buffer as needed to find a complete value, so a
// single Read on the underlying reader routinely yields more bytes
// than one value needs; reusing the same *cbor.Decoder across calls
// keeps those read-ahead bytes instead of discarding them with a
// throwaway decoder.
type Decoder struct {
	dec *cbor.Decoder
}

// NewDecoder wraps r for repeated one-value-at-a-time decoding.
// Callers must not read from r directly once it is handed to a
// Decoder — any bytes already buffered ahead by the Decoder would be
// invisible to them.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: decMode.NewDecoder(r)}
}

// Decode consumes exactly one complete CBOR value and decodes it into
// v. If the underlying reader has no more bytes to offer at the start
// of a value, it returns ErrEndOfStream (== io.EOF); any other
// failure — including running out of bytes mid-value — is a distinct,
// wrapped error.
func (d *Decoder) Decode(v interface{}) error {
	if err := d.dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEndOfStream
		}
		return fmt.Errorf("cborcodec: decode one: %w", err)
	}
	return nil
}

// RawMessage is a re-export of cbor.RawMessage, used by callers that
// need to defer decoding a sub-value (e.g. memo extra fields).
type RawMessage = cbor.RawMessage

// marshalByteStringRaw/unmarshalByteStringRaw are the low-level
// primitives behind EncodeByteString/DecodeByteString, which the Bytes
// wrapper (bytes.go) and szdthash.Hash both use so that a bare 32-byte
// array also always encodes as a CBOR byte string rather than an
// array of integers.
func marshalByteStringRaw(b []byte) ([]byte, error) {
	return encMode.Marshal(b)
}

func unmarshalByteStringRaw(data []byte) ([]byte, error) {
	var out []byte
	if err := decMode.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cborcodec: decode byte string: %w", err)
	}
	return out, nil
}

// EncodeByteString forces the canonical-CBOR encoding of b as a major
// type 2 byte string. Go's []byte already encodes this way by default
// under fxamacker/cbor, but the explicit entry point documents the
// requirement (spec.md §4.3) and gives other packages (szdthash) a
// single place to depend on for it, instead of each re-deriving
// "does []byte really encode as bstr" on their own.
func EncodeByteString(b []byte) ([]byte, error) {
	enc, err := marshalByteStringRaw(b)
	if err != nil {
		return nil, fmt.Errorf("cborcodec: encode byte string: %w", err)
	}
	if len(enc) == 0 || enc[0]>>5 != 2 {
		return nil, errors.New("cborcodec: encoder did not produce a byte string")
	}
	return enc, nil
}

// DecodeByteString decodes a definite-length CBOR byte string (major
// type 2). Chunked (indefinite-length) byte strings are rejected, like
// every indefinite-length item under this package's decode mode.
func DecodeByteString(data []byte) ([]byte, error) {
	return unmarshalByteStringRaw(data)
}
