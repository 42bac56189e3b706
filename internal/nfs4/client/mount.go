package client

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sys/unix"

	"github.com/wujs/libnfs/internal/logger"
	"github.com/wujs/libnfs/internal/nfs4/attrs"
	"github.com/wujs/libnfs/internal/nfs4/compound"
	nfserrors "github.com/wujs/libnfs/internal/nfs4/errors"
	"github.com/wujs/libnfs/internal/nfs4/path"
	"github.com/wujs/libnfs/internal/nfs4/rpc"
	"github.com/wujs/libnfs/internal/nfs4/types"
	"github.com/wujs/libnfs/internal/telemetry"
)

// callbackLocationNetid and callbackLocationAddr are the placeholder
// callback channel this client advertises at SETCLIENTID. They are
// syntactically invalid as a real r_addr (see DESIGN.md); acceptable only
// because CBProgram is 0, which tells the server this client never expects
// a backchannel callback.
const (
	callbackLocationNetid = "tcp"
	callbackLocationAddr  = "0.0.0.0.0.0"
	callbackIdent         = 0x00000001
)

// MountAsync drives the five-state mount handshake (C5): Dialing ->
// Identifying -> Confirming -> Rooting -> Mounted. callback fires exactly
// once, on the terminal Mounted or Failed state.
func MountAsync(ctx context.Context, c *Client, server, export string, callback Callback, cookie any) {
	rec := newRecord(c, "MOUNT", "", callback, cookie)
	c.Server = server
	c.Export = export
	c.setCwd(export)

	go func() {
		spanCtx, span := telemetry.StartMountSpan(ctx, server, export)
		defer span.End()

		start := time.Now()
		err := runMount(spanCtx, c, rec)
		c.metrics.RecordOperation("mount", err, time.Since(start))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()
}

func runMount(ctx context.Context, c *Client, rec *record) error {
	logger.Info("mount: dialing", logger.Server(c.Server))
	c.metrics.RecordMountState("dialing")

	transport, err := rpc.Dial(ctx, c.Server)
	if err != nil {
		msg := "NFS4: connect failed: " + err.Error()
		rec.fire(-int(unix.EFAULT), msg)
		return err
	}
	c.mu.Lock()
	c.transport = transport
	c.mu.Unlock()

	c.metrics.RecordMountState("identifying")
	if err := identify(ctx, c, rec); err != nil {
		return err
	}

	c.metrics.RecordMountState("confirming")
	if err := confirmIdentity(ctx, c, rec); err != nil {
		return err
	}

	c.metrics.RecordMountState("rooting")
	if err := root(ctx, c, rec); err != nil {
		return err
	}

	c.metrics.RecordMountState("mounted")
	logger.Info("mount: mounted", logger.Server(c.Server), logger.Handle(c.RootFH()))
	rec.fire(0, nil)
	return nil
}

// identify submits SETCLIENTID.
func identify(ctx context.Context, c *Client, rec *record) error {
	ops := []compound.Op{
		compound.SetClientID{
			Verifier:      c.verifier,
			ID:            c.name,
			CBProgram:     0,
			CBNetid:       callbackLocationNetid,
			CBAddr:        callbackLocationAddr,
			CallbackIdent: callbackIdent,
		},
	}
	reply, outcome, handled := submitAndCheck(ctx, c, ops, "SETCLIENTID", "")
	if handled {
		rec.fire(outcome.Errno, outcome.Message)
		return errMsg(outcome.Message)
	}

	res, found := reply.FindFirst(types.OP_SETCLIENTID)
	if !found {
		msg := "NFS4: SETCLIENTID missing from compound reply"
		rec.fire(-int(unix.EINVAL), msg)
		return errMsg(msg)
	}
	c.setClientID(res.ClientID, res.Verifier)
	return nil
}

// confirmIdentity submits SETCLIENTID_CONFIRM.
func confirmIdentity(ctx context.Context, c *Client, rec *record) error {
	c.mu.RLock()
	clientID := c.clientID
	verifier := c.confirmVerifier
	c.mu.RUnlock()

	ops := []compound.Op{
		compound.SetClientIDConfirm{ClientID: clientID, Verifier: verifier},
	}
	_, outcome, handled := submitAndCheck(ctx, c, ops, "SETCLIENTID_CONFIRM", "")
	if handled {
		rec.fire(outcome.Errno, outcome.Message)
		return errMsg(outcome.Message)
	}
	return nil
}

// root resolves the export path and submits PUTROOTFH + LOOKUP* + GETFH +
// a liveness-probe GETATTR(SUPPORTED_ATTRS), whose result is discarded.
func root(ctx context.Context, c *Client, rec *record) error {
	normalized, err := path.Normalize(c.cwdPath())
	if err != nil {
		msg := "NFS4: invalid export path: " + err.Error()
		rec.fire(-int(unix.EINVAL), msg)
		return errMsg(msg)
	}
	c.setCwd(normalized)

	segments := path.Split(normalized)
	ops := compound.BuildAnchored(nil, segments,
		compound.GetFH{},
		compound.GetAttr{Bitmap: attrs.SupportedAttrsProbeBitmap()},
	)

	reply, outcome, handled := submitAndCheck(ctx, c, ops, "PUTROOTFH", normalized)
	if handled {
		rec.fire(outcome.Errno, outcome.Message)
		return errMsg(outcome.Message)
	}

	res, found := reply.FindFirst(types.OP_GETFH)
	if !found {
		msg := "NFS4: GETFH missing from compound reply"
		rec.fire(-int(unix.EINVAL), msg)
		return errMsg(msg)
	}
	c.setRootFH(res.FileHandle)
	return nil
}

// submitAndCheck builds and submits a compound, decodes the COMPOUND4res
// body on a successful RPC round trip, and runs the error mapper (C4) over
// the outcome. handled is true when the mapper determined the caller must
// not process reply further; the caller then fires its record with outcome
// and treats the operation as terminally failed.
func submitAndCheck(ctx context.Context, c *Client, ops []compound.Op, op, savedPath string) (compound.Reply, nfserrors.Outcome, bool) {
	args := compound.Build(ops)
	_, resultBody, err := c.submitCompound(ctx, args, op, savedPath)

	status := classifyTransportError(ctx, err)

	var reply compound.Reply
	if status == nfserrors.RPCStatusOK {
		reply, err = compound.Decode(resultBody)
		if err != nil {
			msg := "NFS4: malformed compound reply: " + err.Error()
			c.setError(msg)
			return compound.Reply{}, nfserrors.Outcome{Errno: -int(unix.EINVAL), Message: msg}, true
		}
	}

	outcome, handled := nfserrors.Check(status, reply, op, savedPath)
	if handled {
		c.setError(outcome.Message)
	}
	return reply, outcome, handled
}

type errMsg string

func (e errMsg) Error() string { return string(e) }
