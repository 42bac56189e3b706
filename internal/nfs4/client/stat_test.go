package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/wujs/libnfs/internal/nfs4/attrs"
	"github.com/wujs/libnfs/internal/nfs4/rpc"
	"github.com/wujs/libnfs/internal/nfs4/types"
	"github.com/wujs/libnfs/internal/xdr"
)

// fakeMountThenHang answers the three mount-handshake calls with mountReplies
// and then, for any further call on the same connection, reads it but never
// replies -- holding the connection open long enough that a caller's own
// context deadline, not a connection reset, is what ends the stalled call.
// Grounded on transport_test.go's TestTransportCallContextCancellation.
func fakeMountThenHang(t *testing.T, ln net.Listener, mountReplies [][]byte) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		for _, resultBody := range mountReplies {
			msg, err := rpc.ReadMessage(conn)
			if err != nil {
				return
			}
			dec := xdr.NewDecoder(msg)
			xid, err := dec.Uint32()
			if err != nil {
				return
			}

			enc := xdr.NewEncoder()
			enc.PutUint32(xid)
			enc.PutUint32(rpc.RPCReply)
			enc.PutUint32(rpc.RPCMsgAccepted)
			enc.PutUint32(rpc.AuthNull)
			enc.PutOpaque(nil)
			enc.PutUint32(rpc.RPCSuccess)
			reply := append(enc.Bytes(), resultBody...)

			if err := rpc.WriteFragment(conn, reply); err != nil {
				return
			}
		}

		// Stall: read the next call (the stat) and never answer it.
		_, _ = rpc.ReadMessage(conn)
		time.Sleep(time.Second)
	}()
}

// TestStatAsyncRPCTimeout covers scenario S6: a stat call whose context
// expires before the server answers maps to the EINTR/"Command timed out"
// outcome, delivered exactly once.
func TestStatAsyncRPCTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	c, err := New(nil)
	require.NoError(t, err)
	defer c.Close()

	setClientIDReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(1)
		enc.PutUint32(types.OP_SETCLIENTID)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint64(42)
		var verifier [types.NFS4_VERIFIER_SIZE]byte
		copy(verifier[:], "SRVVERIF")
		enc.PutFixedOpaque(verifier[:])
	})
	confirmReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(1)
		enc.PutUint32(types.OP_SETCLIENTID_CONFIRM)
		enc.PutUint32(types.NFS4_OK)
	})
	rootReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(4)
		enc.PutUint32(types.OP_PUTROOTFH)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(types.OP_LOOKUP)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(types.OP_GETFH)
		enc.PutUint32(types.NFS4_OK)
		enc.PutOpaque([]byte("ROOT-FILE-HANDLE"))
		enc.PutUint32(types.OP_GETATTR)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(0)
		enc.PutOpaque(nil)
	})
	fakeMountThenHang(t, ln, [][]byte{setClientIDReply, confirmReply, rootReply})

	mountCtx, mountCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer mountCancel()
	mountDone := make(chan int, 1)
	MountAsync(mountCtx, c, ln.Addr().String(), "/", func(status int, got *Client, payload any, cookie any) {
		mountDone <- status
	}, nil)
	select {
	case status := <-mountDone:
		require.Equal(t, 0, status)
	case <-mountCtx.Done():
		t.Fatal("mount did not complete before deadline")
	}

	statCtx, statCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer statCancel()

	type result struct {
		status  int
		payload any
	}
	statDone := make(chan result, 1)
	StatAsync(statCtx, c, "file.txt", false, func(status int, got *Client, payload any, cookie any) {
		statDone <- result{status: status, payload: payload}
	}, nil)

	select {
	case r := <-statDone:
		assert.Equal(t, -int(unix.EINTR), r.status)
		assert.Equal(t, "Command timed out", r.payload)
	case <-time.After(2 * time.Second):
		t.Fatal("stat callback never fired")
	}
}

func TestStatAsyncHappyPath(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	c, err := New(nil)
	require.NoError(t, err)
	defer c.Close()

	statReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(3) // PUTFH, LOOKUP, GETATTR
		enc.PutUint32(types.OP_PUTFH)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(types.OP_LOOKUP)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(types.OP_GETATTR)
		enc.PutUint32(types.NFS4_OK)
		attrs.EncodeBitmap4(enc, attrs.StatRequestBitmap())
		vals := xdr.NewEncoder()
		vals.PutUint32(types.NF4REG) // type
		vals.PutUint64(1024)         // size
		vals.PutUint64(7)            // fileid
		vals.PutUint32(0644)         // mode
		vals.PutUint32(1)            // numlinks
		vals.PutOpaque([]byte("0"))  // owner
		vals.PutOpaque([]byte("0"))  // owner_group
		vals.PutUint64(4096)         // space_used
		vals.PutUint64(1000)         // atime sec
		vals.PutUint32(0)            // atime nsec
		vals.PutUint64(1000)         // ctime sec
		vals.PutUint32(0)            // ctime nsec
		vals.PutUint64(1000)         // mtime sec
		vals.PutUint32(0)            // mtime nsec
		enc.PutOpaque(vals.Bytes())
	})

	setClientIDReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(1)
		enc.PutUint32(types.OP_SETCLIENTID)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint64(42)
		var verifier [types.NFS4_VERIFIER_SIZE]byte
		copy(verifier[:], "SRVVERIF")
		enc.PutFixedOpaque(verifier[:])
	})
	confirmReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(1)
		enc.PutUint32(types.OP_SETCLIENTID_CONFIRM)
		enc.PutUint32(types.NFS4_OK)
	})
	rootReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(4)
		enc.PutUint32(types.OP_PUTROOTFH)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(types.OP_LOOKUP)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(types.OP_GETFH)
		enc.PutUint32(types.NFS4_OK)
		enc.PutOpaque([]byte("ROOT-FILE-HANDLE"))
		enc.PutUint32(types.OP_GETATTR)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(0)
		enc.PutOpaque(nil)
	})

	fakeSequencer(t, ln, [][]byte{setClientIDReply, confirmReply, rootReply, statReply})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mountDone := make(chan int, 1)
	MountAsync(ctx, c, ln.Addr().String(), "/", func(status int, got *Client, payload any, cookie any) {
		mountDone <- status
	}, nil)
	select {
	case status := <-mountDone:
		require.Equal(t, 0, status)
	case <-ctx.Done():
		t.Fatal("mount did not complete before deadline")
	}

	type result struct {
		status  int
		payload any
	}
	statDone := make(chan result, 1)
	StatAsync(ctx, c, "file.txt", false, func(status int, got *Client, payload any, cookie any) {
		statDone <- result{status: status, payload: payload}
	}, nil)

	select {
	case r := <-statDone:
		require.Equal(t, 0, r.status)
		stat, ok := r.payload.(attrs.Stat)
		require.True(t, ok)
		assert.EqualValues(t, 1024, stat.Size)
		assert.EqualValues(t, 0644|types.S_IFREG, stat.Mode)
		assert.EqualValues(t, 1, stat.Blocks)
	case <-ctx.Done():
		t.Fatal("stat did not complete before deadline")
	}
}
