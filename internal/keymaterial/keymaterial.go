// Package keymaterial holds an Ed25519 public key plus an optional
// private key, and is the only place szdt signs or verifies on
// behalf of an issuer (spec.md §4.5). It composes ed25519sig for the
// raw primitive, identifier for the did:key form, and mnemonic for
// backup/recovery.
package keymaterial

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/szdt/szdt/internal/ed25519sig"
	"github.com/szdt/szdt/internal/identifier"
	"github.com/szdt/szdt/internal/mnemonic"
)

// ErrPrivateKeyMissing is returned by Sign and ToMnemonic when the
// KeyMaterial holds only a public key.
var ErrPrivateKeyMissing = errors.New("keymaterial: no private key held")

// KeyMaterial is the pair (public key, optional private key).
type KeyMaterial struct {
	public  [32]byte
	private *[32]byte
}

// Generate creates a fresh key pair from 32 bytes of crypto/rand
// entropy.
func Generate() (KeyMaterial, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return KeyMaterial{}, fmt.Errorf("keymaterial: generate entropy: %w", err)
	}
	pub, priv, err := ed25519sig.KeypairFromSeed(seed[:])
	if err != nil {
		return KeyMaterial{}, err
	}
	return KeyMaterial{public: pub, private: &priv}, nil
}

// FromPrivate builds key material from a 32-byte private key (seed),
// deterministically deriving the matching public key.
func FromPrivate(priv []byte) (KeyMaterial, error) {
	pub, err := ed25519sig.DerivePublic(priv)
	if err != nil {
		return KeyMaterial{}, err
	}
	var p [32]byte
	copy(p[:], priv)
	return KeyMaterial{public: pub, private: &p}, nil
}

// FromPublic builds verify-only key material from a 32-byte public
// key.
func FromPublic(pub []byte) (KeyMaterial, error) {
	if len(pub) != 32 {
		return KeyMaterial{}, fmt.Errorf("%w: got %d bytes, want 32", ed25519sig.ErrWrongKeyLength, len(pub))
	}
	var km KeyMaterial
	copy(km.public[:], pub)
	return km, nil
}

// FromIdentifier parses a did:key identifier into verify-only key
// material.
func FromIdentifier(id string) (KeyMaterial, error) {
	pub, err := identifier.Parse(id)
	if err != nil {
		return KeyMaterial{}, fmt.Errorf("keymaterial: %w", err)
	}
	return KeyMaterial{public: pub}, nil
}

// FromMnemonic reconstructs key material (with a private key) from a
// recovered mnemonic phrase.
func FromMnemonic(m mnemonic.Mnemonic) (KeyMaterial, error) {
	entropy, err := m.ToEntropy()
	if err != nil {
		return KeyMaterial{}, fmt.Errorf("keymaterial: %w", err)
	}
	return FromPrivate(entropy)
}

// ToMnemonic exports the held private key as a 24-word mnemonic. It
// fails if no private key is held.
func (k KeyMaterial) ToMnemonic() (mnemonic.Mnemonic, error) {
	if k.private == nil {
		return mnemonic.Mnemonic{}, ErrPrivateKeyMissing
	}
	return mnemonic.FromEntropy(k.private[:])
}

// PublicKey returns the 32-byte public key.
func (k KeyMaterial) PublicKey() [32]byte { return k.public }

// PrivateKey returns the 32-byte private key and whether one is held.
func (k KeyMaterial) PrivateKey() ([32]byte, bool) {
	if k.private == nil {
		return [32]byte{}, false
	}
	return *k.private, true
}

// Identifier returns the long-form did:key identifier for the public
// key.
func (k KeyMaterial) Identifier() string {
	return identifier.Format(k.public)
}

// Sign produces a detached signature over payload. It fails with
// ErrPrivateKeyMissing if this key material is verify-only.
func (k KeyMaterial) Sign(payload []byte) ([]byte, error) {
	if k.private == nil {
		return nil, ErrPrivateKeyMissing
	}
	return ed25519sig.Sign(payload, k.private[:])
}

// Verify checks a detached signature over payload under this key
// material's public key.
func (k KeyMaterial) Verify(payload, sig []byte) error {
	return ed25519sig.Verify(payload, sig, k.public[:])
}
