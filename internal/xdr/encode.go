package xdr

import (
	"bytes"
	"encoding/binary"
)

// Encoder accumulates XDR-encoded bytes for a single request, such as a
// COMPOUND4args. Methods never fail: writing to a bytes.Buffer cannot error,
// so callers can chain encode calls without checking a return value after
// each one.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated, encoded byte slice.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// PutUint32 encodes a 32-bit unsigned integer (RFC 4506 §4.1).
func (e *Encoder) PutUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	e.buf.Write(tmp[:])
}

// PutInt32 encodes a 32-bit signed integer in two's complement (RFC 4506 §4.1).
func (e *Encoder) PutInt32(v int32) {
	e.PutUint32(uint32(v))
}

// PutUint64 encodes a 64-bit unsigned integer, the XDR "hyper" type (RFC 4506 §4.5).
func (e *Encoder) PutUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	e.buf.Write(tmp[:])
}

// PutInt64 encodes a 64-bit signed integer in two's complement (RFC 4506 §4.5).
func (e *Encoder) PutInt64(v int64) {
	e.PutUint64(uint64(v))
}

// PutBool encodes an XDR boolean as a uint32: 0 for false, 1 for true (RFC 4506 §4.4).
func (e *Encoder) PutBool(v bool) {
	if v {
		e.PutUint32(1)
	} else {
		e.PutUint32(0)
	}
}

// PutOpaque encodes variable-length opaque data: a length prefix, the raw
// bytes, then zero padding out to the next 4-byte boundary (RFC 4506 §4.10).
func (e *Encoder) PutOpaque(data []byte) {
	e.PutUint32(uint32(len(data)))
	e.buf.Write(data)
	e.putPadding(len(data))
}

// PutString encodes a string using the same length-prefixed, padded layout
// as opaque data (RFC 4506 §4.11).
func (e *Encoder) PutString(s string) {
	e.PutOpaque([]byte(s))
}

// PutFixedOpaque encodes fixed-length opaque data: no length prefix, just the
// bytes padded to a 4-byte boundary. Used for fields whose length is implied
// by the protocol, such as an 8-byte verifier4.
func (e *Encoder) PutFixedOpaque(data []byte) {
	e.buf.Write(data)
	e.putPadding(len(data))
}

func (e *Encoder) putPadding(n int) {
	pad := (4 - (n % 4)) % 4
	if pad == 0 {
		return
	}
	var zero [3]byte
	e.buf.Write(zero[:pad])
}
