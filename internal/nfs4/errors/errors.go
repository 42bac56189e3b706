// Package errors implements the async client core's error mapper (C4): it
// turns a transport-reported RPC outcome plus, on success, a decoded
// COMPOUND4res into the (errno, message) pair delivered to a caller's
// callback. Grounded on check_nfs4_error in the original client core, which
// every async operation calls immediately after its compound reply arrives.
package errors

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/wujs/libnfs/internal/nfs4/compound"
	"github.com/wujs/libnfs/internal/nfs4/types"
)

// RPCStatus is the transport-level outcome of an RPC call, reported by the
// collaborator that owns the wire connection. This core never inspects the
// transport itself -- only this coarse status.
type RPCStatus int

const (
	// RPCStatusOK means the call completed and a reply was received; the
	// reply's own COMPOUND4res status must still be checked.
	RPCStatusOK RPCStatus = iota
	// RPCStatusError means the transport failed the call outright (e.g. a
	// connection reset) with no usable reply.
	RPCStatusError
	// RPCStatusCancel means the call was cancelled before completion.
	RPCStatusCancel
	// RPCStatusTimeout means the call did not complete within the
	// deadline of the caller's context.
	RPCStatusTimeout
)

// Outcome is the result of mapping an RPC call's outcome: the errno to
// deliver to the caller's callback (negative, per this core's convention)
// and the message to go with it.
type Outcome struct {
	Errno   int
	Message string
}

// Check maps an RPC outcome to an Outcome. op names the operation being
// checked for the failure message ("GETATTR", "SETCLIENTID", ...); path is
// the path the operation was issued against, or "" for operations with no
// associated path (e.g. SETCLIENTID). reply is only consulted when status
// is RPCStatusOK.
//
// Check returns (Outcome{}, false) when status is RPCStatusOK and reply's
// status is NFS4_OK: there is nothing to report, and the caller should
// proceed to deliver its own success payload instead of an error.
func Check(status RPCStatus, reply compound.Reply, op string, path string) (Outcome, bool) {
	switch status {
	case RPCStatusError:
		return Outcome{Errno: -int(unix.EFAULT), Message: "RPC error"}, true
	case RPCStatusCancel:
		return Outcome{Errno: -int(unix.EINTR), Message: "Command was cancelled"}, true
	case RPCStatusTimeout:
		return Outcome{Errno: -int(unix.EINTR), Message: "Command timed out"}, true
	}

	if reply.Status == types.NFS4_OK {
		return Outcome{}, false
	}

	msg := formatFailure(op, path, reply.Status)
	return Outcome{Errno: -types.StatusErrno(reply.Status), Message: msg}, true
}

func formatFailure(op, path string, status uint32) string {
	if path == "" {
		return fmt.Sprintf("NFS4: %s failed with %s(%d)", op, types.StatusName(status), status)
	}
	return fmt.Sprintf("NFS4: %s (path %s) failed with %s(%d)", op, path, types.StatusName(status), status)
}
