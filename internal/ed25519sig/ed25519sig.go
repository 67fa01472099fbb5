// Package ed25519sig is the raw signature primitive: deterministic
// key generation from a 32-byte seed, public key derivation, and
// detached sign/verify. It wraps stdlib crypto/ed25519 directly: no
// third-party library in this module's dependency graph provides a
// drop-in replacement for single-key Ed25519 (BLS12-381 solves
// aggregatable multi-validator signatures, a different primitive for
// a different purpose).
package ed25519sig

import (
	"crypto/ed25519"
	"errors"
	"fmt"
)

// SeedSize, PublicKeySize and SignatureSize mirror crypto/ed25519's
// constants, so callers never need to import crypto/ed25519
// themselves. PrivateKeySize is 32, the seed size: this package
// treats the seed as the private key, unlike crypto/ed25519's 64-byte
// PrivateKeySize.
const (
	SeedSize       = ed25519.SeedSize
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.SeedSize
	SignatureSize  = ed25519.SignatureSize
)

// ErrWrongSeedLength, ErrWrongKeyLength and ErrWrongSignatureLength
// are returned instead of panicking when a caller passes
// incorrectly-sized material — crypto/ed25519 itself panics on some
// of these, so this package validates lengths up front.
var (
	ErrWrongSeedLength      = errors.New("ed25519sig: wrong seed length")
	ErrWrongKeyLength       = errors.New("ed25519sig: wrong key length")
	ErrWrongSignatureLength = errors.New("ed25519sig: wrong signature length")
	ErrVerifyFailed         = errors.New("ed25519sig: signature verification failed")
)

// KeypairFromSeed deterministically derives a (public, private) key
// pair from a 32-byte seed. The same seed always yields the same
// pair.
func KeypairFromSeed(seed []byte) (pub, priv [32]byte, err error) {
	if len(seed) != SeedSize {
		return pub, priv, fmt.Errorf("%w: got %d, want %d", ErrWrongSeedLength, len(seed), SeedSize)
	}
	sk := ed25519.NewKeyFromSeed(seed)
	copy(priv[:], seed)
	copy(pub[:], sk[32:])
	return pub, priv, nil
}

// DerivePublic computes the public key for a 32-byte private key
// (seed).
func DerivePublic(priv []byte) ([32]byte, error) {
	var pub [32]byte
	if len(priv) != PrivateKeySize {
		return pub, fmt.Errorf("%w: got %d, want %d", ErrWrongKeyLength, len(priv), PrivateKeySize)
	}
	sk := ed25519.NewKeyFromSeed(priv)
	copy(pub[:], sk[32:])
	return pub, nil
}

// Sign produces a detached 64-byte signature over payload using the
// 32-byte private key (seed).
func Sign(payload, priv []byte) ([]byte, error) {
	if len(priv) != PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWrongKeyLength, len(priv), PrivateKeySize)
	}
	sk := ed25519.NewKeyFromSeed(priv)
	return ed25519.Sign(sk, payload), nil
}

// Verify checks a detached signature over payload under the given
// 32-byte public key.
func Verify(payload, sig, pub []byte) error {
	if len(pub) != PublicKeySize {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongKeyLength, len(pub), PublicKeySize)
	}
	if len(sig) != SignatureSize {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongSignatureLength, len(sig), SignatureSize)
	}
	if !ed25519.Verify(pub, payload, sig) {
		return ErrVerifyFailed
	}
	return nil
}
