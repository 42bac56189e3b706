package compound

import (
	"fmt"

	"github.com/wujs/libnfs/internal/nfs4/attrs"
	"github.com/wujs/libnfs/internal/nfs4/types"
	"github.com/wujs/libnfs/internal/xdr"
)

// Result is one decoded entry of a COMPOUND4res's resarray: the operation
// it answers, that operation's own status, and whichever op-specific
// payload this client understands how to decode.
type Result struct {
	Op     uint32
	Status uint32

	// FileHandle holds the GETFH result's handle bytes (OP_GETFH only).
	FileHandle []byte

	// AttrBitmap and AttrVals hold the GETATTR result (OP_GETATTR only).
	AttrBitmap []uint32
	AttrVals   []byte

	// ClientID and Verifier hold the SETCLIENTID result on success
	// (OP_SETCLIENTID only).
	ClientID uint64
	Verifier [types.NFS4_VERIFIER_SIZE]byte
}

// Reply is a decoded COMPOUND4res.
type Reply struct {
	Status  uint32
	Tag     string
	Results []Result
}

// Decode parses a COMPOUND4res. Per RFC 7530, compound execution stops at
// the first operation that does not return NFS4_OK, and that operation's
// own status equals the top-level Status; Decode stops walking resarray at
// the same point; it does not attempt to decode the failure arm of an
// op-specific union beyond its own status, since the error mapper (C4)
// handles non-OK Status without inspecting Results further.
func Decode(reply []byte) (Reply, error) {
	dec := xdr.NewDecoder(reply)

	status, err := dec.Uint32()
	if err != nil {
		return Reply{}, fmt.Errorf("compound status: %w", err)
	}
	tag, err := dec.String()
	if err != nil {
		return Reply{}, fmt.Errorf("compound tag: %w", err)
	}
	numres, err := dec.Uint32()
	if err != nil {
		return Reply{}, fmt.Errorf("compound numres: %w", err)
	}

	out := Reply{Status: status, Tag: tag, Results: make([]Result, 0, numres)}

	for i := uint32(0); i < numres; i++ {
		op, err := dec.Uint32()
		if err != nil {
			return Reply{}, fmt.Errorf("result %d opcode: %w", i, err)
		}
		res := Result{Op: op}

		res.Status, err = dec.Uint32()
		if err != nil {
			return Reply{}, fmt.Errorf("result %d status: %w", i, err)
		}

		if res.Status == types.NFS4_OK {
			if err := decodeOpResult(dec, &res); err != nil {
				return Reply{}, fmt.Errorf("result %d (%s): %w", i, types.OpName(op), err)
			}
		}

		out.Results = append(out.Results, res)

		if res.Status != types.NFS4_OK {
			break
		}
	}

	return out, nil
}

// decodeOpResult decodes the success arm of the operations this client
// issues. Operations with no result payload (PUTROOTFH, PUTFH, LOOKUP,
// SETCLIENTID_CONFIRM) need nothing further.
func decodeOpResult(dec *xdr.Decoder, res *Result) error {
	switch res.Op {
	case types.OP_GETFH:
		fh, err := dec.Opaque()
		if err != nil {
			return err
		}
		res.FileHandle = fh

	case types.OP_GETATTR:
		bitmap, err := attrs.DecodeBitmap4(dec)
		if err != nil {
			return err
		}
		vals, err := dec.Opaque()
		if err != nil {
			return err
		}
		res.AttrBitmap = bitmap
		res.AttrVals = vals

	case types.OP_SETCLIENTID:
		clientid, err := dec.Uint64()
		if err != nil {
			return err
		}
		verifier, err := dec.FixedOpaque(types.NFS4_VERIFIER_SIZE)
		if err != nil {
			return err
		}
		res.ClientID = clientid
		copy(res.Verifier[:], verifier)
	}
	return nil
}

// FindFirst returns the first result with the given opcode, located by tag
// rather than by index per the stat operation's contract (§4.6): the
// protocol permits server reordering in principle, so locate-by-tag is
// authoritative even though in practice results are in submission order.
func (r Reply) FindFirst(op uint32) (Result, bool) {
	for _, res := range r.Results {
		if res.Op == op {
			return res, true
		}
	}
	return Result{}, false
}
