package xdr

import "fmt"

// ErrShortBuffer is returned (wrapped) whenever a Decoder read would run past
// the end of its backing slice. Decoder methods return an error rather than
// panicking, so a malformed or truncated COMPOUND4res can never cause an
// out-of-bounds read; an opaque length over maxOpaqueLength is reported
// with its own error, not ErrShortBuffer.
var ErrShortBuffer = fmt.Errorf("xdr: short buffer")

// maxOpaqueLength bounds a single opaque/string decode against a corrupt
// length prefix claiming more data than any real NFS reply would carry.
const maxOpaqueLength = 1 << 20 // 1 MiB

// Decoder walks a fixed-length byte slice with an explicit read cursor. It is
// the decoding half of this package: unlike Encoder, which only ever
// appends, a Decoder must defend against a peer sending fewer bytes than its
// own length prefixes promise, so every method checks remaining space before
// advancing the cursor.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder returns a Decoder positioned at the start of data. The slice is
// not copied; callers must not mutate it while decoding is in progress.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

// Pos returns the current read offset, useful in error messages that report
// where in a reply a decode failed.
func (d *Decoder) Pos() int {
	return d.pos
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, d.pos, d.Remaining())
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Uint32 decodes a 32-bit unsigned integer (RFC 4506 §4.1).
func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// Int32 decodes a 32-bit signed integer in two's complement (RFC 4506 §4.1).
func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

// Uint64 decodes a 64-bit unsigned integer, the XDR "hyper" type (RFC 4506 §4.5).
func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	hi := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	lo := uint32(b[4])<<24 | uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7])
	return uint64(hi)<<32 | uint64(lo), nil
}

// Int64 decodes a 64-bit signed integer in two's complement (RFC 4506 §4.5).
func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	return int64(v), err
}

// Bool decodes an XDR boolean: any nonzero uint32 is true (RFC 4506 §4.4).
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uint32()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (d *Decoder) skipPadding(n int) error {
	pad := (4 - (n % 4)) % 4
	if pad == 0 {
		return nil
	}
	_, err := d.take(pad)
	return err
}

// Opaque decodes variable-length opaque data: a length prefix, that many
// bytes, then padding to the next 4-byte boundary (RFC 4506 §4.10). The
// returned slice aliases the Decoder's backing array; callers that need to
// retain it beyond the decode call should copy it.
func (d *Decoder) Opaque() ([]byte, error) {
	length, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if length > maxOpaqueLength {
		return nil, fmt.Errorf("xdr: opaque length %d exceeds maximum %d", length, maxOpaqueLength)
	}
	data, err := d.take(int(length))
	if err != nil {
		return nil, fmt.Errorf("opaque data: %w", err)
	}
	if err := d.skipPadding(int(length)); err != nil {
		return nil, fmt.Errorf("opaque padding: %w", err)
	}
	return data, nil
}

// String decodes a string using the same length-prefixed, padded layout as
// opaque data (RFC 4506 §4.11).
func (d *Decoder) String() (string, error) {
	b, err := d.Opaque()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FixedOpaque decodes n bytes of fixed-length opaque data with no length
// prefix, padded to a 4-byte boundary. Used where the length is implied by
// the protocol rather than carried on the wire.
func (d *Decoder) FixedOpaque(n int) ([]byte, error) {
	data, err := d.take(n)
	if err != nil {
		return nil, err
	}
	if err := d.skipPadding(n); err != nil {
		return nil, err
	}
	return data, nil
}
