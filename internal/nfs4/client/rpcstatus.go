package client

import (
	"context"
	"errors"

	nfserrors "github.com/wujs/libnfs/internal/nfs4/errors"
)

// classifyTransportError maps a transport-level Go error into the coarse
// RPC outcome the error mapper (C4) expects: CANCEL for an operation this
// client's own caller aborted, TIMEOUT for a deadline the caller set, and
// ERROR for anything else (connection loss, malformed reply, rejected
// call).
func classifyTransportError(ctx context.Context, err error) nfserrors.RPCStatus {
	if err == nil {
		return nfserrors.RPCStatusOK
	}
	if errors.Is(err, context.Canceled) {
		return nfserrors.RPCStatusCancel
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nfserrors.RPCStatusTimeout
	}
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nfserrors.RPCStatusCancel
		}
		return nfserrors.RPCStatusTimeout
	}
	return nfserrors.RPCStatusError
}
