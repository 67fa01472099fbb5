package blockseq

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteBlock("one"); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := w.WriteBlock(2); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := NewReader(&buf)
	var s string
	if err := r.ReadBlock(&s); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if s != "one" {
		t.Errorf("s = %q, want %q", s, "one")
	}
	var n int
	if err := r.ReadBlock(&n); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}

	var extra int
	if err := r.ReadBlock(&extra); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("ReadBlock at end = %v, want ErrEndOfStream", err)
	}
}

func TestReadBlockOnEmptyStreamIsEndOfStream(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	var v string
	if err := r.ReadBlock(&v); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("ReadBlock = %v, want ErrEndOfStream", err)
	}
}
