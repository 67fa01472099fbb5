package archive

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/szdt/szdt/internal/blockseq"
	"github.com/szdt/szdt/internal/keymaterial"
	"github.com/szdt/szdt/internal/memo"
	"github.com/szdt/szdt/internal/walker"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":         "hello",
		"sub/b.json":    `{"k":"v"}`,
		"sub/c.unknown": "binary-ish",
	})

	key, err := keymaterial.Generate()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var buf bytes.Buffer
	receipts, err := Write(&buf, root, key, WriteOptions{Walk: walker.Walk, Nickname: "alice"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(receipts) != 3 {
		t.Fatalf("got %d receipts, want 3", len(receipts))
	}

	entries, err := All(&buf)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	seen := map[string]bool{}
	for _, e := range entries {
		if err := e.Memo.Verify(); err != nil {
			t.Errorf("Verify %s: %v", e.Memo.Protected.Path, err)
		}
		if nick, _ := e.Memo.Protected.Extra[IssNicknameKey].(string); nick != "alice" {
			t.Errorf("iss-nickname = %q, want %q", nick, "alice")
		}
		seen[e.Memo.Protected.Path] = true
	}
	for _, want := range []string{"a.txt", "sub/b.json", "sub/c.unknown"} {
		if !seen[want] {
			t.Errorf("missing entry for %s", want)
		}
	}
}

func TestReaderEOFBetweenPairs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"only.txt": "x"})
	key, err := keymaterial.Generate()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var buf bytes.Buffer
	if _, err := Write(&buf, root, key, WriteOptions{Walk: walker.Walk}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r := NewReader(&buf)
	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("second Next = %v, want io.EOF", err)
	}
}

func TestReaderProtocolErrorOnTruncatedPair(t *testing.T) {
	key, err := keymaterial.Generate()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	// A stream holding a memo with no following body simulates an
	// EOF that lands mid-pair, which must be a protocol error, not
	// a clean end-of-stream.
	body := []byte("x")
	standalone, err := memo.ForBody(body)
	if err != nil {
		t.Fatalf("ForBody: %v", err)
	}
	if err := standalone.Sign(key); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	var truncated bytes.Buffer
	bw := blockseq.NewWriter(&truncated)
	if err := bw.WriteBlock(standalone); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := NewReader(&truncated)
	if _, err := r.Next(); !errors.Is(err, ErrProtocol) {
		t.Errorf("Next = %v, want ErrProtocol", err)
	}
}

func TestExtractEntryFallsBackToHash(t *testing.T) {
	dir := t.TempDir()
	key, err := keymaterial.Generate()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	body := []byte("no path set")
	m, err := memo.ForBody(body)
	if err != nil {
		t.Fatalf("ForBody: %v", err)
	}
	if err := m.Sign(key); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if err := ExtractEntry(dir, Entry{Memo: m, Body: body}); err != nil {
		t.Fatalf("ExtractEntry: %v", err)
	}
	entriesOnDisk, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entriesOnDisk) != 1 {
		t.Fatalf("got %d files, want 1", len(entriesOnDisk))
	}
}
