// Package memo implements the signed, content-addressed header
// record that precedes every file body in an szdt archive (spec.md
// §3, §4.8). A Memo carries protected headers (covered by the
// signature) and unprotected headers (the signature itself, plus
// freely mutable metadata).
package memo

import (
	"errors"
	"fmt"
	"time"

	"github.com/szdt/szdt/internal/cborcodec"
	"github.com/szdt/szdt/internal/keymaterial"
	"github.com/szdt/szdt/internal/szdthash"
)

// Sentinel errors, one per distinct failure kind named in spec.md §7.
var (
	ErrIssMissing    = errors.New("memo: issuer (iss) missing")
	ErrUnsigned      = errors.New("memo: unsigned (no sig)")
	ErrIntegrity     = errors.New("memo: body hash does not match protected src")
	ErrExpired       = errors.New("memo: expired (exp)")
	ErrTooEarly      = errors.New("memo: not yet valid (nbf)")
	ErrFloatInHeader = errors.New("memo: floats are not allowed in protected headers")
)

// TimestampComparison carries the pair (expected bound, observed now)
// for NbfError/ExpError, matching the shape of
// original_source's TimestampComparison so callers can report both
// values, not just "expired"/"too early".
type TimestampComparison struct {
	Bound *uint64
	Now   uint64
}

func (t TimestampComparison) String() string {
	bound := "none"
	if t.Bound != nil {
		bound = fmt.Sprintf("%d", *t.Bound)
	}
	return fmt.Sprintf("(bound: %s, now: %d)", bound, t.Now)
}

// ExpError wraps ErrExpired with the timestamps involved.
type ExpError struct{ TimestampComparison }

func (e *ExpError) Error() string { return fmt.Sprintf("memo: expired %s", e.TimestampComparison) }
func (e *ExpError) Unwrap() error { return ErrExpired }

// NbfError wraps ErrTooEarly with the timestamps involved.
type NbfError struct{ TimestampComparison }

func (e *NbfError) Error() string { return fmt.Sprintf("memo: not yet valid %s", e.TimestampComparison) }
func (e *NbfError) Unwrap() error { return ErrTooEarly }

// ProtectedHeaders are the memo fields covered by the signature.
// Unknown fields round-trip untouched via Extra (spec.md §4.8's
// "unknown protected-header fields MUST round-trip untouched").
type ProtectedHeaders struct {
	Iss         string            // issuer's long-form identifier
	Iat         uint64            // seconds since Unix epoch
	Nbf         *uint64           // not-valid-before, optional
	Exp         *uint64           // expiration, optional
	Prev        *szdthash.Hash    // hash of a previous memo, optional
	ContentType string            // MIME type, optional ("" = unset)
	Path        string            // logical archive path, optional ("" = unset)
	Src         szdthash.Hash     // hash of the body, required
	Extra       map[string]any    // open map of additional named values
}

// UnprotectedHeaders are outside the signature: the signature itself,
// plus freely mutable metadata.
type UnprotectedHeaders struct {
	Sig   []byte
	Extra map[string]any
}

// Memo is a protected+unprotected header pair wrapping one body.
type Memo struct {
	Protected   ProtectedHeaders
	Unprotected UnprotectedHeaders
}

// nowFunc is overridable in tests that need to pin "the current time"
// for reproducible fixtures (spec.md §5's determinism note).
var nowFunc = func() uint64 { return uint64(time.Now().Unix()) }

// New builds a memo over the given body hash: iat and nbf are filled
// with the current time, iss and sig are left unset.
func New(bodyHash szdthash.Hash) Memo {
	now := nowFunc()
	nbf := now
	return Memo{
		Protected: ProtectedHeaders{
			Iat:   now,
			Nbf:   &nbf,
			Src:   bodyHash,
			Extra: map[string]any{},
		},
		Unprotected: UnprotectedHeaders{
			Extra: map[string]any{},
		},
	}
}

// ForBody canonical-encodes body, hashes the encoding, and builds a
// memo over that hash.
func ForBody(body []byte) (Memo, error) {
	encoded, err := cborcodec.Encode(cborcodec.Bytes(body))
	if err != nil {
		return Memo{}, fmt.Errorf("memo: encode body: %w", err)
	}
	return New(szdthash.Sum(encoded)), nil
}

// Empty builds a memo over the hash of a zero-length body.
func Empty() Memo {
	return New(szdthash.Sum(nil))
}

// Sign sets Protected.Iss from key's identifier (replacing whatever
// was there before — re-signing is destructive, per spec.md §9's
// note on replace semantics), then signs the canonical encoding of
// the protected headers and stores the detached signature in
// Unprotected.Sig.
func (m *Memo) Sign(key keymaterial.KeyMaterial) error {
	m.Protected.Iss = key.Identifier()

	protectedBytes, err := encodeProtected(m.Protected)
	if err != nil {
		return fmt.Errorf("memo: sign: %w", err)
	}

	sig, err := key.Sign(protectedBytes)
	if err != nil {
		return fmt.Errorf("memo: sign: %w", err)
	}
	m.Unprotected.Sig = sig
	return nil
}

// Verify checks the detached signature over the protected headers
// against the public key derived from Protected.Iss.
func (m *Memo) Verify() error {
	if m.Protected.Iss == "" {
		return ErrIssMissing
	}
	if len(m.Unprotected.Sig) == 0 {
		return ErrUnsigned
	}

	key, err := keymaterial.FromIdentifier(m.Protected.Iss)
	if err != nil {
		return fmt.Errorf("memo: verify: %w", err)
	}

	protectedBytes, err := encodeProtected(m.Protected)
	if err != nil {
		return fmt.Errorf("memo: verify: %w", err)
	}

	if err := key.Verify(protectedBytes, m.Unprotected.Sig); err != nil {
		return fmt.Errorf("memo: verify: %w", err)
	}
	return nil
}

// IsExpired reports whether Exp is set and strictly before now. An
// unset Exp is never expired.
func (m *Memo) IsExpired(now uint64) bool {
	return m.Protected.Exp != nil && *m.Protected.Exp < now
}

// IsTooEarly reports whether Nbf is set and strictly after now. An
// unset Nbf is never too early.
func (m *Memo) IsTooEarly(now uint64) bool {
	return m.Protected.Nbf != nil && *m.Protected.Nbf > now
}

// Validate checks time bounds, then the signature. Expiration is
// checked before the not-before bound, which is checked before the
// signature, matching spec.md §4.8's ordering.
func (m *Memo) Validate(now uint64) error {
	if m.IsExpired(now) {
		return &ExpError{TimestampComparison{Bound: m.Protected.Exp, Now: now}}
	}
	if m.IsTooEarly(now) {
		return &NbfError{TimestampComparison{Bound: m.Protected.Nbf, Now: now}}
	}
	return m.Verify()
}

// Checksum reports whether bodyHash matches the committed body hash.
func (m *Memo) Checksum(bodyHash szdthash.Hash) error {
	if m.Protected.Src != bodyHash {
		return fmt.Errorf("%w: memo names %s, body hashes to %s", ErrIntegrity, m.Protected.Src, bodyHash)
	}
	return nil
}

// encodeProtected canonically encodes the protected headers, the
// payload that Sign/Verify operate over per invariant I2. It rejects
// floats anywhere in Extra, per spec.md §4.8's "floats MUST NOT
// appear in protected headers".
func encodeProtected(p ProtectedHeaders) ([]byte, error) {
	m := map[string]any{
		"iat": p.Iat,
		"src": cborcodec.Bytes(p.Src.Bytes()),
	}
	if p.Iss != "" {
		m["iss"] = p.Iss
	}
	if p.Nbf != nil {
		m["nbf"] = *p.Nbf
	}
	if p.Exp != nil {
		m["exp"] = *p.Exp
	}
	if p.Prev != nil {
		m["prev"] = cborcodec.Bytes(p.Prev.Bytes())
	}
	if p.ContentType != "" {
		m["content-type"] = p.ContentType
	}
	if p.Path != "" {
		m["path"] = p.Path
	}
	for k, v := range p.Extra {
		if containsFloat(v) {
			return nil, ErrFloatInHeader
		}
		m[k] = v
	}
	return cborcodec.Encode(m)
}

// containsFloat reports whether v is a float, or a map/slice
// containing one at any depth. Extra values round-trip through
// interface{} (typically map[string]any/[]any, the shapes
// cborcodec.Decode produces for nested maps/arrays), so a float
// hiding inside a nested structure is just as much a violation of
// "floats MUST NOT appear in protected headers" as a top-level one.
func containsFloat(v any) bool {
	switch x := v.(type) {
	case float32, float64:
		return true
	case map[string]any:
		for _, vv := range x {
			if containsFloat(vv) {
				return true
			}
		}
	case []any:
		for _, vv := range x {
			if containsFloat(vv) {
				return true
			}
		}
	}
	return false
}
