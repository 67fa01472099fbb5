// Package archive implements the writer and reader halves of the
// .szdt stream format: a flat sequence of (memo, body) pairs with no
// framing (spec.md §4.10, §4.11, §6).
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/szdt/szdt/internal/blockseq"
	"github.com/szdt/szdt/internal/cborcodec"
	"github.com/szdt/szdt/internal/keymaterial"
	"github.com/szdt/szdt/internal/memo"
	"github.com/szdt/szdt/internal/mimeguess"
	"github.com/szdt/szdt/internal/szdthash"
)

// IssNicknameKey is the protected-header extra key the writer uses to
// carry an optional human-readable hint alongside the signing
// identifier (spec.md §4.10 step 6).
const IssNicknameKey = "iss-nickname"

// ErrProtocol is returned by the reader when the underlying stream
// does not alternate cleanly between memo and body values — e.g. EOF
// arrives in the middle of a (memo, body) pair.
var ErrProtocol = errors.New("archive: protocol error, expected memo/body pair")

// Walker yields the ordered, deduplicated set of regular files under
// a root directory (spec.md §6's file walker collaborator contract).
type Walker func(root string) ([]string, error)

// Guesser maps a path to an optional content-type string.
type Guesser func(path string) string

// Receipt is one entry of the manifest the writer returns: the memo
// it wrote, alongside the path it was read from on disk.
type Receipt struct {
	SourcePath string
	Memo       memo.Memo
}

// WriteOptions configures Write.
type WriteOptions struct {
	// Walk discovers files under Root. Defaults to nil, in which
	// case Write returns an error — callers must supply one (see
	// internal/walker.Walk for the default collaborator).
	Walk Walker
	// Guess maps a path to a content-type. Defaults to
	// mimeguess.ByExtension when nil.
	Guess Guesser
	// Nickname, if non-empty, is stamped into every memo's
	// IssNicknameKey extra field.
	Nickname string
}

// Write archives every file walker finds under root, signing each
// one's memo with key, and writes the resulting (memo, body)* stream
// to w. Failure on any file aborts the archive immediately, leaving
// w holding whatever was already written — there is no rollback
// (spec.md §4.10's "failure of any file aborts the archive").
func Write(w io.Writer, root string, key keymaterial.KeyMaterial, opts WriteOptions) ([]Receipt, error) {
	if opts.Walk == nil {
		return nil, errors.New("archive: write: no walker configured")
	}
	guess := opts.Guess
	if guess == nil {
		guess = mimeguess.ByExtension
	}

	paths, err := opts.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("archive: write: %w", err)
	}

	bw := blockseq.NewWriter(w)
	var receipts []Receipt

	for _, path := range paths {
		body, err := os.ReadFile(path)
		if err != nil {
			return receipts, fmt.Errorf("archive: write: read %s: %w", path, err)
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return receipts, fmt.Errorf("archive: write: relativize %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		m, err := memo.ForBody(body)
		if err != nil {
			return receipts, fmt.Errorf("archive: write: %s: %w", path, err)
		}
		m.Protected.Path = relPath
		m.Protected.ContentType = guess(relPath)
		if opts.Nickname != "" {
			m.Protected.Extra[IssNicknameKey] = opts.Nickname
		}
		if err := m.Sign(key); err != nil {
			return receipts, fmt.Errorf("archive: write: sign %s: %w", path, err)
		}

		if err := bw.WriteBlock(m); err != nil {
			return receipts, fmt.Errorf("archive: write: %s: %w", path, err)
		}
		if err := bw.WriteBlock(cborcodec.Bytes(body)); err != nil {
			return receipts, fmt.Errorf("archive: write: %s: %w", path, err)
		}

		receipts = append(receipts, Receipt{SourcePath: path, Memo: m})
	}

	if err := bw.Flush(); err != nil {
		return receipts, fmt.Errorf("archive: write: %w", err)
	}
	return receipts, nil
}

// Entry is one (memo, body) pair yielded by a Reader.
type Entry struct {
	Memo memo.Memo
	Body []byte
}

// Reader lazily iterates the (memo, body) pairs of an .szdt stream.
// It does not auto-verify: callers decide whether and how to trust
// each entry (spec.md §4.11).
type Reader struct {
	br *blockseq.Reader
}

// NewReader wraps r for entry-at-a-time reading.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: blockseq.NewReader(r)}
}

// Next returns the next (memo, body) pair. It returns io.EOF when the
// stream ends cleanly between pairs, and a wrapped ErrProtocol when it
// ends after a memo and before its body. Any other failure, including
// a value truncated in the middle of its encoding, is returned as a
// wrapped decode error.
func (r *Reader) Next() (Entry, error) {
	var m memo.Memo
	if err := r.br.ReadBlock(&m); err != nil {
		if errors.Is(err, blockseq.ErrEndOfStream) {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("archive: read: %w", err)
	}

	var body cborcodec.Bytes
	if err := r.br.ReadBlock(&body); err != nil {
		if errors.Is(err, blockseq.ErrEndOfStream) {
			return Entry{}, fmt.Errorf("%w: stream ended after memo, before body", ErrProtocol)
		}
		return Entry{}, fmt.Errorf("archive: read: %w", err)
	}

	return Entry{Memo: m, Body: []byte(body)}, nil
}

// All drains the reader, collecting every entry. Useful for small
// archives and tests; large archives should use Next directly.
func All(r io.Reader) ([]Entry, error) {
	reader := NewReader(r)
	var entries []Entry
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}

// ExtractTo writes every entry's body to dir, under its
// memo.protected.path if present, or under its body hash otherwise
// (spec.md §4.11 step d). It does not verify signatures or
// checksums; callers wanting that should iterate with Next/Verify
// themselves and call ExtractEntry per entry instead.
func ExtractTo(dir string, entries []Entry) error {
	for _, e := range entries {
		if err := ExtractEntry(dir, e); err != nil {
			return err
		}
	}
	return nil
}

// ExtractEntry writes one entry's body under dir.
func ExtractEntry(dir string, e Entry) error {
	name := e.Memo.Protected.Path
	if name == "" {
		name = szdthash.Sum(e.Body).String()
	}
	name = filepath.FromSlash(name)
	if strings.Contains(name, "..") {
		return fmt.Errorf("archive: extract: unsafe path %q", name)
	}

	dest := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("archive: extract: %w", err)
	}
	if err := os.WriteFile(dest, e.Body, 0o644); err != nil {
		return fmt.Errorf("archive: extract: %w", err)
	}
	return nil
}
