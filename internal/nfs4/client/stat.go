package client

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sys/unix"

	"github.com/wujs/libnfs/internal/logger"
	"github.com/wujs/libnfs/internal/nfs4/attrs"
	"github.com/wujs/libnfs/internal/nfs4/compound"
	"github.com/wujs/libnfs/internal/nfs4/path"
	"github.com/wujs/libnfs/internal/nfs4/types"
	"github.com/wujs/libnfs/internal/telemetry"
)

// StatAsync assembles PUTFH(root)+LOOKUP*+GETATTR for path, submits it, and
// dispatches the GETATTR result to the attribute decoder (C3). noFollow is
// accepted but not yet honored: NFSv4 LOOKUP follows symlinks on
// intermediate components regardless, and terminal symlink semantics would
// need additional ops this client does not yet issue (spec open question).
func StatAsync(ctx context.Context, c *Client, reqPath string, noFollow bool, callback Callback, cookie any) {
	_ = noFollow
	rec := newRecord(c, "GETATTR", reqPath, callback, cookie)

	go func() {
		spanCtx, span := telemetry.StartStatSpan(ctx, reqPath)
		defer span.End()

		start := time.Now()
		err := runStat(spanCtx, c, rec, reqPath)
		c.metrics.RecordOperation("stat", err, time.Since(start))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()
}

func runStat(ctx context.Context, c *Client, rec *record, reqPath string) error {
	root := c.RootFH()
	if root == nil {
		msg := "NFS4: stat called before mount completed"
		rec.fire(-int(unix.EINVAL), msg)
		return errMsg(msg)
	}

	resolved, err := resolvePath(c, reqPath)
	if err != nil {
		msg := "NFS4: invalid path: " + err.Error()
		rec.fire(-int(unix.ENOMEM), msg)
		return errMsg(msg)
	}

	segments := path.Split(resolved)
	ops := compound.BuildAnchored(root, segments, compound.GetAttr{Bitmap: attrs.StatRequestBitmap()})

	reply, outcome, handled := submitAndCheck(ctx, c, ops, "GETATTR", resolved)
	if handled {
		rec.fire(outcome.Errno, outcome.Message)
		return errMsg(outcome.Message)
	}

	res, found := reply.FindFirst(types.OP_GETATTR)
	if !found {
		msg := "NFS4: GETATTR missing from compound reply"
		rec.fire(-int(unix.EINVAL), msg)
		return errMsg(msg)
	}

	stat, err := attrs.DecodeStat(res.AttrVals)
	if err != nil {
		msg := "NFS4: attribute decode failed: " + err.Error()
		rec.fire(-int(unix.EINVAL), msg)
		return errMsg(msg)
	}

	logger.Debug("stat complete", logger.Path(resolved), logger.Size(stat.Size), logger.Mode(stat.Mode))
	rec.fire(0, stat)
	return nil
}

// resolvePath joins reqPath onto the client's cwd and normalizes the
// result, exactly as nfs4_resolve_path does: always "cwd/path", even when
// path itself looks absolute -- the leading slash is absorbed by
// Normalize's "." / ".." / duplicate-slash collapsing.
func resolvePath(c *Client, reqPath string) (string, error) {
	return path.Normalize(c.cwdPath() + "/" + reqPath)
}
