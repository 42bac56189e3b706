// Package rpc implements the ONC RPC (RFC 5531) call/reply envelope and
// TCP record-marking framing this client uses to carry COMPOUND requests.
// The client core (internal/nfs4/client) treats submission of a compound
// and delivery of its reply as an external collaborator it does not itself
// specify; this package is that collaborator's concrete implementation.
package rpc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wujs/libnfs/internal/xdr"
)

// Authentication flavors, RFC 5531 Section 8.2.
const (
	AuthNull      = 0
	AuthUnix      = 1
	AuthShort     = 2
	AuthDES       = 3
	AuthRPCSECGSS = 6
)

// Message types and reply states, RFC 5531 Section 9.
const (
	RPCCall  = 0
	RPCReply = 1

	RPCMsgAccepted = 0
	RPCMsgDenied   = 1

	RPCSuccess      = 0
	RPCProgUnavail  = 1
	RPCProgMismatch = 2
	RPCProcUnavail  = 3
	RPCGarbageArgs  = 4
	RPCSystemErr    = 5
)

const maxMachineNameLen = 255
const maxGIDs = 16

// UnixAuth is the AUTH_SYS (AUTH_UNIX) credential this client presents on
// every call, RFC 5531 Section 9.2.
type UnixAuth struct {
	Stamp       uint32
	MachineName string
	UID         uint32
	GID         uint32
	GIDs        []uint32
}

func (a *UnixAuth) String() string {
	return fmt.Sprintf("UnixAuth{machine=%s uid=%d gid=%d gids=%v}", a.MachineName, a.UID, a.GID, a.GIDs)
}

// Encode appends the XDR encoding of a as an opaque_auth body.
func (a *UnixAuth) Encode(enc *xdr.Encoder) {
	enc.PutUint32(a.Stamp)
	enc.PutString(a.MachineName)
	enc.PutUint32(a.UID)
	enc.PutUint32(a.GID)
	enc.PutUint32(uint32(len(a.GIDs)))
	for _, gid := range a.GIDs {
		enc.PutUint32(gid)
	}
}

// ParseUnixAuth decodes an AUTH_SYS credential body, as received on the
// wire from a peer presenting credentials to us. Retained from the server-facing protocol package this
// client core's RPC layer is adapted from; useful for test fixtures and for
// any future callback listener that must authenticate an inbound call.
func ParseUnixAuth(body []byte) (*UnixAuth, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty auth body")
	}
	dec := xdr.NewDecoder(body)

	stamp, err := dec.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read stamp: %w", err)
	}
	nameLen, err := dec.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read machine name length: %w", err)
	}
	if nameLen > maxMachineNameLen {
		return nil, fmt.Errorf("machine name too long: %d", nameLen)
	}
	nameBytes, err := dec.FixedOpaque(int(nameLen))
	if err != nil {
		return nil, fmt.Errorf("read machine name: %w", err)
	}
	uid, err := dec.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read uid: %w", err)
	}
	gid, err := dec.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read gid: %w", err)
	}
	numGIDs, err := dec.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read gid count: %w", err)
	}
	if numGIDs > maxGIDs {
		return nil, fmt.Errorf("too many gids: %d", numGIDs)
	}
	gids := make([]uint32, numGIDs)
	for i := range gids {
		gids[i], err = dec.Uint32()
		if err != nil {
			return nil, fmt.Errorf("read gid[%d]: %w", i, err)
		}
	}

	return &UnixAuth{Stamp: stamp, MachineName: string(nameBytes), UID: uid, GID: gid, GIDs: gids}, nil
}

// FragmentHeader is the 4-byte TCP record-marking header that precedes
// every RPC message, RFC 5531 Section 10.
type FragmentHeader struct {
	IsLast bool
	Length uint32
}

// ReadFragmentHeader reads and parses the fragment header from r.
func ReadFragmentHeader(r io.Reader) (FragmentHeader, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FragmentHeader{}, err
	}
	header := binary.BigEndian.Uint32(buf[:])
	return FragmentHeader{
		IsLast: header&0x80000000 != 0,
		Length: header & 0x7FFFFFFF,
	}, nil
}

// WriteFragment writes payload as a single, final RPC fragment.
func WriteFragment(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload))|0x80000000)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write fragment header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write fragment body: %w", err)
	}
	return nil
}

// MaxMessageSize bounds a single reassembled RPC message. COMPOUND requests
// and replies for this client never approach this size -- it exists to
// reject a corrupt or hostile fragment length before allocating for it.
const MaxMessageSize = 1 << 20

// ReadMessage reads one or more fragments from r until the last-fragment
// bit is set, returning the reassembled message body.
func ReadMessage(r io.Reader) ([]byte, error) {
	var body []byte
	for {
		header, err := ReadFragmentHeader(r)
		if err != nil {
			return nil, err
		}
		if uint64(len(body))+uint64(header.Length) > MaxMessageSize {
			return nil, fmt.Errorf("rpc message exceeds %d bytes", MaxMessageSize)
		}
		frag := make([]byte, header.Length)
		if _, err := io.ReadFull(r, frag); err != nil {
			return nil, fmt.Errorf("read fragment body: %w", err)
		}
		body = append(body, frag...)
		if header.IsLast {
			return body, nil
		}
	}
}
