package rpc

import (
	"fmt"

	"github.com/wujs/libnfs/internal/xdr"
)

// RPCVersion2 is the only ONC RPC protocol version this client speaks,
// RFC 5531 Section 9.
const RPCVersion2 = 2

// Credential is an opaque_auth value: a flavor tag and an opaque body whose
// encoding depends on that flavor (RFC 5531 Section 8.2).
type Credential struct {
	Flavor uint32
	Body   []byte
}

func (c Credential) encode(enc *xdr.Encoder) {
	enc.PutUint32(c.Flavor)
	enc.PutOpaque(c.Body)
}

func decodeCredential(dec *xdr.Decoder) (Credential, error) {
	flavor, err := dec.Uint32()
	if err != nil {
		return Credential{}, fmt.Errorf("auth flavor: %w", err)
	}
	body, err := dec.Opaque()
	if err != nil {
		return Credential{}, fmt.Errorf("auth body: %w", err)
	}
	return Credential{Flavor: flavor, Body: body}, nil
}

// CredentialUnix builds an AUTH_SYS credential for auth, the only flavor
// this client presents.
func CredentialUnix(auth *UnixAuth) Credential {
	enc := xdr.NewEncoder()
	auth.Encode(enc)
	return Credential{Flavor: AuthUnix, Body: enc.Bytes()}
}

// EncodeCall assembles a complete CALL message: the RPC header followed by
// the already-XDR-encoded procedure arguments (a COMPOUND4args blob from
// the compound package).
func EncodeCall(xid, program, version, procedure uint32, cred, verf Credential, args []byte) []byte {
	enc := xdr.NewEncoder()
	enc.PutUint32(xid)
	enc.PutUint32(RPCCall)
	enc.PutUint32(RPCVersion2)
	enc.PutUint32(program)
	enc.PutUint32(version)
	enc.PutUint32(procedure)
	cred.encode(enc)
	verf.encode(enc)
	return append(enc.Bytes(), args...)
}

// Accepted is the decoded accepted-reply arm of a REPLY message, RFC 5531
// Section 9.
type Accepted struct {
	Verf Credential

	// AcceptStat is one of RPCSuccess, RPCProgUnavail, RPCProgMismatch,
	// RPCProcUnavail, RPCGarbageArgs, RPCSystemErr.
	AcceptStat uint32

	// LowVersion/HighVersion are only meaningful when AcceptStat is
	// RPCProgMismatch.
	LowVersion  uint32
	HighVersion uint32

	// ResultsOffset is the byte offset into the original reply buffer
	// where the procedure-specific results begin when AcceptStat is
	// RPCSuccess; the caller decodes from there with the compound codec.
	ResultsOffset int
}

// Reply is a decoded REPLY message envelope. Exactly one of Accepted /
// denial fields is meaningful, selected by ReplyStat.
type Reply struct {
	XID       uint32
	ReplyStat uint32 // RPCMsgAccepted or RPCMsgDenied

	Accepted Accepted

	// RejectStat and AuthStat are only meaningful when ReplyStat is
	// RPCMsgDenied.
	RejectStat uint32
	AuthStat   uint32
}

// DecodeReply parses a REPLY message's RPC envelope. body is the full
// reassembled message (post record-marking). For an accepted reply with
// AcceptStat == RPCSuccess, Accepted.ResultsOffset marks where the
// procedure result begins so the caller can hand the remainder to
// compound.Decode without copying.
func DecodeReply(body []byte) (Reply, error) {
	dec := xdr.NewDecoder(body)

	xid, err := dec.Uint32()
	if err != nil {
		return Reply{}, fmt.Errorf("xid: %w", err)
	}
	msgType, err := dec.Uint32()
	if err != nil {
		return Reply{}, fmt.Errorf("msg type: %w", err)
	}
	if msgType != RPCReply {
		return Reply{}, fmt.Errorf("expected REPLY (1), got msg_type %d", msgType)
	}

	replyStat, err := dec.Uint32()
	if err != nil {
		return Reply{}, fmt.Errorf("reply stat: %w", err)
	}

	reply := Reply{XID: xid, ReplyStat: replyStat}

	switch replyStat {
	case RPCMsgAccepted:
		verf, err := decodeCredential(dec)
		if err != nil {
			return Reply{}, fmt.Errorf("verifier: %w", err)
		}
		acceptStat, err := dec.Uint32()
		if err != nil {
			return Reply{}, fmt.Errorf("accept stat: %w", err)
		}
		reply.Accepted = Accepted{Verf: verf, AcceptStat: acceptStat}

		switch acceptStat {
		case RPCSuccess:
			reply.Accepted.ResultsOffset = dec.Pos()
		case RPCProgMismatch:
			low, err := dec.Uint32()
			if err != nil {
				return Reply{}, fmt.Errorf("low version: %w", err)
			}
			high, err := dec.Uint32()
			if err != nil {
				return Reply{}, fmt.Errorf("high version: %w", err)
			}
			reply.Accepted.LowVersion = low
			reply.Accepted.HighVersion = high
		}

	case RPCMsgDenied:
		rejectStat, err := dec.Uint32()
		if err != nil {
			return Reply{}, fmt.Errorf("reject stat: %w", err)
		}
		reply.RejectStat = rejectStat
		if rejectStat == 1 { // AUTH_ERROR
			authStat, err := dec.Uint32()
			if err != nil {
				return Reply{}, fmt.Errorf("auth stat: %w", err)
			}
			reply.AuthStat = authStat
		}

	default:
		return Reply{}, fmt.Errorf("unknown reply_stat %d", replyStat)
	}

	return reply, nil
}
