package memo

import (
	"errors"
	"testing"

	"github.com/szdt/szdt/internal/cborcodec"
	"github.com/szdt/szdt/internal/keymaterial"
	"github.com/szdt/szdt/internal/szdthash"
)

func testKey(t *testing.T) keymaterial.KeyMaterial {
	t.Helper()
	k, err := keymaterial.Generate()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return k
}

func TestForBodySetsSrc(t *testing.T) {
	body := []byte("hello world")
	m, err := ForBody(body)
	if err != nil {
		t.Fatalf("ForBody: %v", err)
	}
	encoded, err := cborcodec.Encode(cborcodec.Bytes(body))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := szdthash.Sum(encoded)
	if m.Protected.Src != want {
		t.Errorf("Src = %s, want %s", m.Protected.Src, want)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key := testKey(t)
	m, err := ForBody([]byte("payload"))
	if err != nil {
		t.Fatalf("ForBody: %v", err)
	}
	if err := m.Sign(key); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if m.Protected.Iss != key.Identifier() {
		t.Errorf("Iss = %q, want %q", m.Protected.Iss, key.Identifier())
	}
	if err := m.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerifyUnsigned(t *testing.T) {
	m := Empty()
	m.Protected.Iss = testKey(t).Identifier()
	if err := m.Verify(); !errors.Is(err, ErrUnsigned) {
		t.Errorf("Verify = %v, want ErrUnsigned", err)
	}
}

func TestVerifyMissingIss(t *testing.T) {
	m := Empty()
	if err := m.Verify(); !errors.Is(err, ErrIssMissing) {
		t.Errorf("Verify = %v, want ErrIssMissing", err)
	}
}

func TestVerifyRejectsTamperedProtected(t *testing.T) {
	key := testKey(t)
	m, err := ForBody([]byte("payload"))
	if err != nil {
		t.Fatalf("ForBody: %v", err)
	}
	if err := m.Sign(key); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	m.Protected.Path = "/tampered"
	if err := m.Verify(); err == nil {
		t.Error("Verify succeeded on tampered protected headers, want error")
	}
}

func TestCheckSumMismatch(t *testing.T) {
	m := Empty()
	if err := m.Checksum(szdthash.Sum([]byte("not empty"))); !errors.Is(err, ErrIntegrity) {
		t.Errorf("Checksum = %v, want ErrIntegrity", err)
	}
}

func TestValidateExpired(t *testing.T) {
	m := Empty()
	exp := uint64(100)
	m.Protected.Exp = &exp
	err := m.Validate(200)
	var expErr *ExpError
	if !errors.As(err, &expErr) {
		t.Fatalf("Validate = %v, want *ExpError", err)
	}
	if !errors.Is(err, ErrExpired) {
		t.Errorf("Validate does not unwrap to ErrExpired")
	}
}

func TestValidateTooEarly(t *testing.T) {
	m := Empty()
	nbf := uint64(500)
	m.Protected.Nbf = &nbf
	err := m.Validate(100)
	var nbfErr *NbfError
	if !errors.As(err, &nbfErr) {
		t.Fatalf("Validate = %v, want *NbfError", err)
	}
	if !errors.Is(err, ErrTooEarly) {
		t.Errorf("Validate does not unwrap to ErrTooEarly")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	key := testKey(t)
	m, err := ForBody([]byte("archive entry"))
	if err != nil {
		t.Fatalf("ForBody: %v", err)
	}
	m.Protected.ContentType = "text/plain"
	m.Protected.Path = "notes/a.txt"
	m.Protected.Extra["x-custom"] = "value"
	if err := m.Sign(key); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	encoded, err := cborcodec.Encode(m)
	if err != nil {
		t.Fatalf("encode memo: %v", err)
	}

	var decoded Memo
	if err := cborcodec.Decode(encoded, &decoded); err != nil {
		t.Fatalf("decode memo: %v", err)
	}

	if err := decoded.Verify(); err != nil {
		t.Errorf("Verify decoded: %v", err)
	}
	if decoded.Protected.ContentType != "text/plain" {
		t.Errorf("ContentType = %q, want %q", decoded.Protected.ContentType, "text/plain")
	}
	if decoded.Protected.Path != "notes/a.txt" {
		t.Errorf("Path = %q, want %q", decoded.Protected.Path, "notes/a.txt")
	}
	if decoded.Protected.Extra["x-custom"] != "value" {
		t.Errorf("Extra[x-custom] = %v, want %q", decoded.Protected.Extra["x-custom"], "value")
	}
	if decoded.Protected.Src != m.Protected.Src {
		t.Errorf("Src mismatch after round trip")
	}
}

func TestFloatInProtectedHeaderRejected(t *testing.T) {
	m := Empty()
	m.Protected.Extra["bad"] = 3.14
	key := testKey(t)
	if err := m.Sign(key); !errors.Is(err, ErrFloatInHeader) {
		t.Errorf("Sign = %v, want ErrFloatInHeader", err)
	}
}

func TestFloatNestedInProtectedHeaderRejected(t *testing.T) {
	inMap := Empty()
	inMap.Protected.Extra["bad"] = map[string]any{"nested": 3.14}
	key := testKey(t)
	if err := inMap.Sign(key); !errors.Is(err, ErrFloatInHeader) {
		t.Errorf("Sign (float in nested map) = %v, want ErrFloatInHeader", err)
	}

	inSlice := Empty()
	inSlice.Protected.Extra["bad"] = []any{1, 2, 3.14}
	if err := inSlice.Sign(key); !errors.Is(err, ErrFloatInHeader) {
		t.Errorf("Sign (float in nested slice) = %v, want ErrFloatInHeader", err)
	}

	deep := Empty()
	deep.Protected.Extra["bad"] = map[string]any{"a": []any{map[string]any{"b": float32(1.5)}}}
	if err := deep.Sign(key); !errors.Is(err, ErrFloatInHeader) {
		t.Errorf("Sign (float deeply nested) = %v, want ErrFloatInHeader", err)
	}
}
