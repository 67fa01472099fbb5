// Package contact provides the contact-store collaborator (spec.md
// §6): a map from nickname to (identifier, optional private key),
// used by the CLI to resolve a signing key from a nickname and,
// when printing results, to resolve an
// identifier back to a friendly name. It is explicitly not part of
// the archive format.
package contact

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/szdt/szdt/internal/cborcodec"
	"github.com/szdt/szdt/internal/keymaterial"
	"github.com/szdt/szdt/internal/nickname"
)

// ErrNotFound is returned when a nickname or identifier has no entry.
var ErrNotFound = errors.New("contact: not found")

// record is the on-disk shape of one entry. The private key, when
// present, is stored as raw seed bytes; callers are responsible for
// the file's permissions (Store.Save chmods it 0600).
type record struct {
	Identifier string
	Private    []byte
}

// Store is a file-backed nickname → key-material table. It is the
// default, single-user implementation of the contact-store
// collaborator contract; a multi-user deployment would swap this for
// a proper database-backed implementation, but nothing in the
// archive format depends on that choice (spec.md §6).
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]record
}

// Open loads a contact store from path, creating an empty one in
// memory if the file does not yet exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: map[string]record{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("contact: open: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := cborcodec.Decode(data, &s.entries); err != nil {
		return nil, fmt.Errorf("contact: decode: %w", err)
	}
	return s, nil
}

// Save persists the store to its path with owner-only permissions,
// since entries may hold private key material.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := cborcodec.Encode(s.entries)
	if err != nil {
		return fmt.Errorf("contact: encode: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("contact: save: %w", err)
	}
	// WriteFile applies the mode only when it creates the file.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("contact: save: %w", err)
	}
	return nil
}

// Put associates name with key material. A private key, when key
// holds one, is persisted alongside the public identifier.
func (s *Store) Put(name nickname.Nickname, key keymaterial.KeyMaterial) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := record{Identifier: key.Identifier()}
	if priv, ok := key.PrivateKey(); ok {
		r.Private = priv[:]
	}
	s.entries[name.String()] = r
}

// Lookup resolves a nickname to key material. The returned
// KeyMaterial holds a private key only if one was stored.
func (s *Store) Lookup(name string) (keymaterial.KeyMaterial, error) {
	s.mu.RLock()
	r, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return keymaterial.KeyMaterial{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if len(r.Private) > 0 {
		return keymaterial.FromPrivate(r.Private)
	}
	return keymaterial.FromIdentifier(r.Identifier)
}

// NicknameFor resolves an identifier back to its stored nickname, for
// printing friendly names instead of raw did:key strings.
func (s *Store) NicknameFor(identifier string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, r := range s.entries {
		if r.Identifier == identifier {
			return name, true
		}
	}
	return "", false
}

// IsTaken implements nickname.TakenChecker against this store.
func (s *Store) IsTaken(candidate string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[candidate]
	return ok, nil
}
