// Package xdr provides generic XDR (External Data Representation) encoding
// and decoding utilities per RFC 4506.
//
// XDR is the wire format used by ONC RPC protocols including NFS. This
// package provides protocol-agnostic primitives shared by the compound
// builder and attribute decoder:
//   - Big-endian byte order for all multi-byte integers
//   - 4-byte alignment for all data types
//   - Variable-length data is preceded by a 4-byte length
//   - Strings and opaque data are padded to 4-byte boundaries
//
// Encoding uses an Encoder that appends to a growing byte buffer, matching
// how a COMPOUND4args is built incrementally op by op. Decoding uses a
// Decoder that walks a fixed-length byte slice with an explicit cursor: every
// read is bounds-checked against the remaining slice so a truncated or
// malformed reply can never be read past its end (see Decoder.Remaining).
//
// Reference: RFC 4506 - XDR: External Data Representation Standard.
package xdr
