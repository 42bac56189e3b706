package compound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wujs/libnfs/internal/nfs4/attrs"
	"github.com/wujs/libnfs/internal/nfs4/types"
	"github.com/wujs/libnfs/internal/xdr"
)

func TestBuildAnchoredRoot(t *testing.T) {
	ops := BuildAnchored(nil, []string{"a", "b"}, GetFH{})
	require.Len(t, ops, 4)
	assert.Equal(t, uint32(types.OP_PUTROOTFH), ops[0].OpCode())
	assert.Equal(t, uint32(types.OP_LOOKUP), ops[1].OpCode())
	assert.Equal(t, uint32(types.OP_LOOKUP), ops[2].OpCode())
	assert.Equal(t, uint32(types.OP_GETFH), ops[3].OpCode())
}

func TestBuildAnchoredHandle(t *testing.T) {
	handle := []byte{1, 2, 3, 4}
	ops := BuildAnchored(handle, []string{"a"})
	require.Len(t, ops, 2)
	assert.Equal(t, uint32(types.OP_PUTFH), ops[0].OpCode())
	assert.Equal(t, handle, ops[0].(PutFH).Handle)
}

func TestBuildEncodesTagAndMinorVersion(t *testing.T) {
	ops := []Op{PutRootFH{}, Lookup{Name: "a"}}
	encoded := Build(ops)

	dec := xdr.NewDecoder(encoded)
	tag, err := dec.String()
	require.NoError(t, err)
	assert.Equal(t, "", tag)

	minorVersion, err := dec.Uint32()
	require.NoError(t, err)
	assert.EqualValues(t, 0, minorVersion)

	numops, err := dec.Uint32()
	require.NoError(t, err)
	assert.EqualValues(t, 2, numops)
}

// buildReply hand-assembles a COMPOUND4res for tests, mirroring the wire
// shape Decode expects.
func buildReply(t *testing.T, status uint32, results func(enc *xdr.Encoder)) []byte {
	t.Helper()
	enc := xdr.NewEncoder()
	enc.PutUint32(status)
	enc.PutString("")
	results(enc)
	return enc.Bytes()
}

func TestDecodeMountHappyPath(t *testing.T) {
	fh := []byte("FH-BYTES")
	reply := buildReply(t, types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(1) // numres
		enc.PutUint32(types.OP_GETFH)
		enc.PutUint32(types.NFS4_OK)
		enc.PutOpaque(fh)
	})

	out, err := Decode(reply)
	require.NoError(t, err)
	assert.Equal(t, types.NFS4_OK, out.Status)

	res, ok := out.FindFirst(types.OP_GETFH)
	require.True(t, ok)
	assert.Equal(t, fh, res.FileHandle)
}

func TestDecodeSetClientIDFailure(t *testing.T) {
	reply := buildReply(t, types.NFS4ERR_CLID_INUSE, func(enc *xdr.Encoder) {
		enc.PutUint32(1)
		enc.PutUint32(types.OP_SETCLIENTID)
		enc.PutUint32(types.NFS4ERR_CLID_INUSE)
	})

	out, err := Decode(reply)
	require.NoError(t, err)
	assert.Equal(t, uint32(types.NFS4ERR_CLID_INUSE), out.Status)
	require.Len(t, out.Results, 1)
	assert.Equal(t, uint32(types.NFS4ERR_CLID_INUSE), out.Results[0].Status)
}

func TestDecodeGetAttrLocatesByTag(t *testing.T) {
	bitmap := attrs.StatRequestBitmap()
	vals := []byte{0, 0, 0, 1}

	reply := buildReply(t, types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(2)
		enc.PutUint32(types.OP_PUTFH)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(types.OP_GETATTR)
		enc.PutUint32(types.NFS4_OK)
		attrs.EncodeBitmap4(enc, bitmap)
		enc.PutOpaque(vals)
	})

	out, err := Decode(reply)
	require.NoError(t, err)
	res, ok := out.FindFirst(types.OP_GETATTR)
	require.True(t, ok)
	assert.Equal(t, bitmap, res.AttrBitmap)
	assert.Equal(t, vals, res.AttrVals)
}

func TestDecodeStopsAtFirstFailure(t *testing.T) {
	reply := buildReply(t, types.NFS4ERR_NOENT, func(enc *xdr.Encoder) {
		enc.PutUint32(2) // numres claims 2, but decode must stop after the first failure
		enc.PutUint32(types.OP_LOOKUP)
		enc.PutUint32(types.NFS4ERR_NOENT)
		// no further bytes: a well-behaved server would not emit a second
		// result once the compound failed, and Decode must not expect one.
	})

	out, err := Decode(reply)
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)
}
