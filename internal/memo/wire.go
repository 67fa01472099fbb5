package memo

import (
	"fmt"

	"github.com/szdt/szdt/internal/cborcodec"
	"github.com/szdt/szdt/internal/szdthash"
)

// Wire layout: a memo is encoded as a two-key map, { "protected":
// <protected header map>, "unprotected": <unprotected header map> }.
// The protected sub-map is exactly the bytes Sign/Verify operate
// over (see encodeProtected in memo.go); embedding it as a raw,
// already-canonically-encoded value (rather than re-encoding it as
// part of the outer map) guarantees that what got signed is
// byte-for-byte what round-trips.

// MarshalCBOR implements cbor.Marshaler for Memo.
func (m Memo) MarshalCBOR() ([]byte, error) {
	protectedBytes, err := encodeProtected(m.Protected)
	if err != nil {
		return nil, fmt.Errorf("memo: encode: %w", err)
	}
	unprotectedBytes, err := encodeUnprotected(m.Unprotected)
	if err != nil {
		return nil, fmt.Errorf("memo: encode: %w", err)
	}

	outer := map[string]cborcodec.RawMessage{
		"protected":   protectedBytes,
		"unprotected": unprotectedBytes,
	}
	return cborcodec.Encode(outer)
}

// UnmarshalCBOR implements cbor.Unmarshaler for Memo.
func (m *Memo) UnmarshalCBOR(data []byte) error {
	var outer map[string]cborcodec.RawMessage
	if err := cborcodec.Decode(data, &outer); err != nil {
		return fmt.Errorf("memo: decode: %w", err)
	}

	protected, err := decodeProtected(outer["protected"])
	if err != nil {
		return fmt.Errorf("memo: decode protected: %w", err)
	}
	unprotected, err := decodeUnprotected(outer["unprotected"])
	if err != nil {
		return fmt.Errorf("memo: decode unprotected: %w", err)
	}

	m.Protected = protected
	m.Unprotected = unprotected
	return nil
}

var protectedKnownKeys = map[string]bool{
	"iss": true, "iat": true, "nbf": true, "exp": true,
	"prev": true, "content-type": true, "path": true, "src": true,
}

func decodeProtected(raw cborcodec.RawMessage) (ProtectedHeaders, error) {
	var m map[string]cborcodec.RawMessage
	if len(raw) == 0 {
		return ProtectedHeaders{Extra: map[string]any{}}, nil
	}
	if err := cborcodec.Decode(raw, &m); err != nil {
		return ProtectedHeaders{}, err
	}

	var p ProtectedHeaders
	p.Extra = map[string]any{}

	if v, ok := m["iss"]; ok {
		if err := cborcodec.Decode(v, &p.Iss); err != nil {
			return p, fmt.Errorf("iss: %w", err)
		}
	}
	if v, ok := m["iat"]; ok {
		if err := cborcodec.Decode(v, &p.Iat); err != nil {
			return p, fmt.Errorf("iat: %w", err)
		}
	}
	if v, ok := m["nbf"]; ok {
		var nbf uint64
		if err := cborcodec.Decode(v, &nbf); err != nil {
			return p, fmt.Errorf("nbf: %w", err)
		}
		p.Nbf = &nbf
	}
	if v, ok := m["exp"]; ok {
		var exp uint64
		if err := cborcodec.Decode(v, &exp); err != nil {
			return p, fmt.Errorf("exp: %w", err)
		}
		p.Exp = &exp
	}
	if v, ok := m["prev"]; ok {
		var raw []byte
		if err := cborcodec.Decode(v, &raw); err != nil {
			return p, fmt.Errorf("prev: %w", err)
		}
		h, err := szdthash.FromBytes(raw)
		if err != nil {
			return p, fmt.Errorf("prev: %w", err)
		}
		p.Prev = &h
	}
	if v, ok := m["content-type"]; ok {
		if err := cborcodec.Decode(v, &p.ContentType); err != nil {
			return p, fmt.Errorf("content-type: %w", err)
		}
	}
	if v, ok := m["path"]; ok {
		if err := cborcodec.Decode(v, &p.Path); err != nil {
			return p, fmt.Errorf("path: %w", err)
		}
	}
	if v, ok := m["src"]; ok {
		var raw []byte
		if err := cborcodec.Decode(v, &raw); err != nil {
			return p, fmt.Errorf("src: %w", err)
		}
		h, err := szdthash.FromBytes(raw)
		if err != nil {
			return p, fmt.Errorf("src: %w", err)
		}
		p.Src = h
	}

	for k, v := range m {
		if protectedKnownKeys[k] {
			continue
		}
		var val any
		if err := cborcodec.Decode(v, &val); err != nil {
			return p, fmt.Errorf("extra %q: %w", k, err)
		}
		p.Extra[k] = val
	}

	return p, nil
}

func encodeUnprotected(u UnprotectedHeaders) ([]byte, error) {
	m := map[string]any{}
	if len(u.Sig) > 0 {
		m["sig"] = cborcodec.Bytes(u.Sig)
	}
	for k, v := range u.Extra {
		m[k] = v
	}
	return cborcodec.Encode(m)
}

func decodeUnprotected(raw cborcodec.RawMessage) (UnprotectedHeaders, error) {
	var m map[string]cborcodec.RawMessage
	if len(raw) == 0 {
		return UnprotectedHeaders{Extra: map[string]any{}}, nil
	}
	if err := cborcodec.Decode(raw, &m); err != nil {
		return UnprotectedHeaders{}, err
	}

	var u UnprotectedHeaders
	u.Extra = map[string]any{}

	if v, ok := m["sig"]; ok {
		if err := cborcodec.Decode(v, &u.Sig); err != nil {
			return u, fmt.Errorf("sig: %w", err)
		}
	}
	for k, v := range m {
		if k == "sig" {
			continue
		}
		var val any
		if err := cborcodec.Decode(v, &val); err != nil {
			return u, fmt.Errorf("extra %q: %w", k, err)
		}
		u.Extra[k] = val
	}
	return u, nil
}
