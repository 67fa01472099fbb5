package contact

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/szdt/szdt/internal/keymaterial"
	"github.com/szdt/szdt/internal/nickname"
)

func TestPutLookupRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "contacts.cbor"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key, err := keymaterial.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	nick, err := nickname.Parse("alice")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s.Put(nick, key)

	got, err := s.Lookup("alice")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Identifier() != key.Identifier() {
		t.Errorf("Identifier mismatch: %q != %q", got.Identifier(), key.Identifier())
	}
	if _, ok := got.PrivateKey(); !ok {
		t.Error("Lookup did not preserve the private key")
	}
}

func TestSaveOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.cbor")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key, err := keymaterial.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	nick, err := nickname.Parse("bob")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s.Put(nick, key)
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open reopened: %v", err)
	}
	got, err := reopened.Lookup("bob")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Identifier() != key.Identifier() {
		t.Errorf("Identifier mismatch after reopen")
	}
}

func TestLookupNotFound(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "contacts.cbor"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Lookup("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNicknameForResolvesIdentifier(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "contacts.cbor"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key, err := keymaterial.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	nick, err := nickname.Parse("carol")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s.Put(nick, key)

	name, ok := s.NicknameFor(key.Identifier())
	if !ok || name != "carol" {
		t.Errorf("NicknameFor = (%q, %v), want (%q, true)", name, ok, "carol")
	}

	if _, ok := s.NicknameFor("did:key:znonexistent"); ok {
		t.Error("NicknameFor found a match for an unknown identifier")
	}
}

func TestIsTakenImplementsTakenChecker(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "contacts.cbor"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key, err := keymaterial.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	nick, err := nickname.Parse("dave")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s.Put(nick, key)

	taken, err := s.IsTaken("dave")
	if err != nil || !taken {
		t.Errorf("IsTaken(dave) = (%v, %v), want (true, nil)", taken, err)
	}
	taken, err = s.IsTaken("erin")
	if err != nil || taken {
		t.Errorf("IsTaken(erin) = (%v, %v), want (false, nil)", taken, err)
	}
}
