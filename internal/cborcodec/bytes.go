package cborcodec

// Bytes is an opaque blob that always serializes as a CBOR byte
// string (major type 2), never as an array of small integers. It
// exists so that memo bodies round-trip identically, and hash
// identically, regardless of what reflection-based path a generic
// serializer might otherwise take for a named byte-slice type.
//
// Bytes implements cbor.Marshaler/Unmarshaler explicitly rather than
// relying on fxamacker/cbor's default []byte handling, so the
// guarantee holds even if a future encoder option changes that
// default.
type Bytes []byte

// MarshalCBOR implements cbor.Marshaler.
func (b Bytes) MarshalCBOR() ([]byte, error) {
	return EncodeByteString([]byte(b))
}

// UnmarshalCBOR implements cbor.Unmarshaler. It accepts a
// definite-length byte string; an indefinite-length (chunked) byte
// string is rejected by DecodeByteString.
func (b *Bytes) UnmarshalCBOR(data []byte) error {
	out, err := DecodeByteString(data)
	if err != nil {
		return err
	}
	*b = Bytes(out)
	return nil
}

// Equal reports whether two Bytes hold identical content.
func (b Bytes) Equal(other Bytes) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}
