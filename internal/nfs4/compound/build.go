// Package compound implements the NFSv4 COMPOUND argument builder (C2) and
// the XDR codec for COMPOUND4args/COMPOUND4res. The client core treats this
// codec as an external collaborator it doesn't itself specify; this package
// supplies a concrete one grounded on RFC 7530's COMPOUND structures so the
// builder has somewhere real to write its operations.
package compound

import (
	"github.com/wujs/libnfs/internal/nfs4/attrs"
	"github.com/wujs/libnfs/internal/nfs4/types"
	"github.com/wujs/libnfs/internal/xdr"
)

// Op is one NFSv4 sub-operation in a COMPOUND argument array.
type Op interface {
	// OpCode returns the nfs_opnum4 value identifying this operation.
	OpCode() uint32
	// encodeArgs appends the operation's own argument fields (everything
	// after the opcode) to enc.
	encodeArgs(enc *xdr.Encoder)
}

// PutRootFH sets the current filehandle to the server's root.
type PutRootFH struct{}

func (PutRootFH) OpCode() uint32          { return types.OP_PUTROOTFH }
func (PutRootFH) encodeArgs(*xdr.Encoder) {}

// PutFH sets the current filehandle to a previously obtained handle. Handle
// is borrowed, not copied -- it must outlive the Build call per the
// compound argument array's documented lifetime contract.
type PutFH struct {
	Handle []byte
}

func (PutFH) OpCode() uint32 { return types.OP_PUTFH }
func (p PutFH) encodeArgs(enc *xdr.Encoder) {
	enc.PutOpaque(p.Handle)
}

// Lookup advances the current filehandle to a named child of the current
// directory.
type Lookup struct {
	Name string
}

func (Lookup) OpCode() uint32 { return types.OP_LOOKUP }
func (l Lookup) encodeArgs(enc *xdr.Encoder) {
	enc.PutString(l.Name)
}

// GetFH returns the current filehandle in the reply.
type GetFH struct{}

func (GetFH) OpCode() uint32          { return types.OP_GETFH }
func (GetFH) encodeArgs(*xdr.Encoder) {}

// GetAttr requests the attributes selected by Bitmap for the current
// filehandle.
type GetAttr struct {
	Bitmap []uint32
}

func (GetAttr) OpCode() uint32 { return types.OP_GETATTR }
func (g GetAttr) encodeArgs(enc *xdr.Encoder) {
	attrs.EncodeBitmap4(enc, g.Bitmap)
}

// SetClientID registers a client identifier and verifier with the server.
// CBProgram of 0 disables server-initiated callbacks; CBNetid/CBAddr are a
// placeholder callback location since this core does not expose a callback
// channel (see DESIGN.md).
type SetClientID struct {
	Verifier      [types.NFS4_VERIFIER_SIZE]byte
	ID            string
	CBProgram     uint32
	CBNetid       string
	CBAddr        string
	CallbackIdent uint32
}

func (SetClientID) OpCode() uint32 { return types.OP_SETCLIENTID }
func (s SetClientID) encodeArgs(enc *xdr.Encoder) {
	enc.PutFixedOpaque(s.Verifier[:])
	enc.PutString(s.ID)
	enc.PutUint32(s.CBProgram)
	enc.PutString(s.CBNetid)
	enc.PutString(s.CBAddr)
	enc.PutUint32(s.CallbackIdent)
}

// SetClientIDConfirm completes the two-phase SETCLIENTID handshake, echoing
// back the clientid and confirming verifier the server returned.
type SetClientIDConfirm struct {
	ClientID uint64
	Verifier [types.NFS4_VERIFIER_SIZE]byte
}

func (SetClientIDConfirm) OpCode() uint32 { return types.OP_SETCLIENTID_CONFIRM }
func (s SetClientIDConfirm) encodeArgs(enc *xdr.Encoder) {
	enc.PutUint64(s.ClientID)
	enc.PutFixedOpaque(s.Verifier[:])
}

// Build encodes a complete COMPOUND4args: an empty tag, minor version 0,
// and the given operations in order.
func Build(ops []Op) []byte {
	enc := xdr.NewEncoder()
	enc.PutString("")
	enc.PutUint32(types.NFS4_MINOR_VERSION_0)
	enc.PutUint32(uint32(len(ops)))
	for _, op := range ops {
		enc.PutUint32(op.OpCode())
		op.encodeArgs(enc)
	}
	return enc.Bytes()
}

// BuildAnchored assembles the PUTROOTFH/PUTFH + LOOKUP* prefix shared by
// every compound this core issues (C2's build operation): if root is nil
// the first op is PUTROOTFH, otherwise PUTFH(root); one LOOKUP follows per
// segment of path, in order. extra ops are appended after the lookups so
// callers can add GETFH/GETATTR without a second allocation.
func BuildAnchored(root []byte, segments []string, extra ...Op) []Op {
	ops := make([]Op, 0, 1+len(segments)+len(extra))
	if root == nil {
		ops = append(ops, PutRootFH{})
	} else {
		ops = append(ops, PutFH{Handle: root})
	}
	for _, seg := range segments {
		ops = append(ops, Lookup{Name: seg})
	}
	ops = append(ops, extra...)
	return ops
}
