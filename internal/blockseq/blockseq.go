// Package blockseq implements the streaming block-sequence codec
// underlying an szdt archive: a flat run of canonical-CBOR values
// with no framing, relying entirely on the decoder's own value
// boundaries and clean-EOF detection (spec.md §4.9, §6).
package blockseq

import (
	"errors"
	"fmt"
	"io"

	"github.com/szdt/szdt/internal/cborcodec"
)

// ErrEndOfStream is returned by Reader.ReadBlock when the underlying
// reader hits a clean EOF exactly at a value boundary. It is io.EOF,
// matching cborcodec's own distinguished end-of-stream sentinel.
var ErrEndOfStream = cborcodec.ErrEndOfStream

// Writer appends canonically-encoded CBOR values to an underlying
// sink with no framing between them.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for block writing.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteBlock canonically encodes value and appends it to the sink.
func (w *Writer) WriteBlock(value interface{}) error {
	if err := cborcodec.EncodeTo(w.w, value); err != nil {
		return fmt.Errorf("blockseq: write block: %w", err)
	}
	return nil
}

// Flush flushes the underlying sink if it exposes a Flush method
// (e.g. *bufio.Writer); otherwise it is a no-op.
func (w *Writer) Flush() error {
	type flusher interface {
		Flush() error
	}
	if f, ok := w.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("blockseq: flush: %w", err)
		}
	}
	return nil
}

// Reader decodes a sequence of canonical-CBOR values with no
// framing between them, one at a time.
type Reader struct {
	dec *cborcodec.Decoder
}

// NewReader wraps r for block reading. A single cborcodec.Decoder is
// kept for the lifetime of the Reader and reused across every
// ReadBlock call: the decoder reads ahead into its own internal
// buffer to find each value's boundary, so a fresh decoder per call
// would silently discard already-buffered bytes belonging to the next
// value. Callers must not read from r directly once it is handed to
// NewReader (spec.md §4.9's "MUST NOT over-read" requirement refers
// to the wire format, not to bypassing this Reader).
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cborcodec.NewDecoder(r)}
}

// ReadBlock decodes exactly one value into dst. It returns
// ErrEndOfStream (io.EOF) when the stream ends cleanly at a value
// boundary, and a wrapped error for any other failure, including a
// truncated value mid-stream.
func (r *Reader) ReadBlock(dst interface{}) error {
	err := r.dec.Decode(dst)
	if err != nil {
		if errors.Is(err, ErrEndOfStream) {
			return ErrEndOfStream
		}
		return fmt.Errorf("blockseq: read block: %w", err)
	}
	return nil
}
