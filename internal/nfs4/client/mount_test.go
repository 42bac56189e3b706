package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wujs/libnfs/internal/nfs4/rpc"
	"github.com/wujs/libnfs/internal/nfs4/types"
	"github.com/wujs/libnfs/internal/xdr"
)

// fakeSequencer accepts one connection and answers each incoming call, in
// order, with the correspondingly-indexed entry of resultBodies, wrapped in
// a minimal accepted/success RPC envelope. It extends transport_test.go's
// single-call fakeServer to the multi-step exchanges the mount handshake and
// stat operation drive.
func fakeSequencer(t *testing.T, ln net.Listener, resultBodies [][]byte) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		for _, resultBody := range resultBodies {
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
			enc.PutOpaque(nil) // verifier body
			enc.PutUint32(rpc.RPCSuccess)
			reply := append(enc.Bytes(), resultBody...)

			if err := rpc.WriteFragment(conn, reply); err != nil {
				return
			}
		}
	}()
}

// buildCompoundReply hand-assembles a COMPOUND4res, mirroring the wire shape
// compound.Decode expects (see compound_test.go's buildReply).
func buildCompoundReply(status uint32, results func(enc *xdr.Encoder)) []byte {
	enc := xdr.NewEncoder()
	enc.PutUint32(status)
	enc.PutString("")
	results(enc)
	return enc.Bytes()
}

func TestMountAsyncHappyPath(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	wantFH := []byte("ROOT-FILE-HANDLE")
	var verifier [types.NFS4_VERIFIER_SIZE]byte
	copy(verifier[:], "SRVVERIF")

	setClientIDReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(1)
		enc.PutUint32(types.OP_SETCLIENTID)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint64(42)
		enc.PutFixedOpaque(verifier[:])
	})
	confirmReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(1)
		enc.PutUint32(types.OP_SETCLIENTID_CONFIRM)
		enc.PutUint32(types.NFS4_OK)
	})
	// root() anchors at PUTROOTFH; export "/" normalizes to a single
	// empty-named LOOKUP (path.Split("/") == [""]), then GETFH and a
	// discarded GETATTR probe.
	rootReply := buildCompoundReply(types.NFS4_OK, func(enc *xdr.Encoder) {
		enc.PutUint32(4)
		enc.PutUint32(types.OP_PUTROOTFH)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(types.OP_LOOKUP)
		enc.PutUint32(types.NFS4_OK)
		enc.PutUint32(types.OP_GETFH)
		enc.PutUint32(types.NFS4_OK)
		enc.PutOpaque(wantFH)
		enc.PutUint32(types.OP_GETATTR)
		enc.PutUint32(types.NFS4_OK)
		// empty bitmap + empty attr blob: runMount never decodes this probe.
		enc.PutUint32(0)
		enc.PutOpaque(nil)
	})

	fakeSequencer(t, ln, [][]byte{setClientIDReply, confirmReply, rootReply})

	c, err := New(nil)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type result struct {
		status  int
		payload any
	}
	done := make(chan result, 1)

	MountAsync(ctx, c, ln.Addr().String(), "/", func(status int, got *Client, payload any, cookie any) {
		assert.Same(t, c, got)
		assert.Equal(t, "cookie", cookie)
		done <- result{status: status, payload: payload}
	}, "cookie")

	select {
	case r := <-done:
		assert.Equal(t, 0, r.status)
		assert.Nil(t, r.payload)
	case <-ctx.Done():
		t.Fatal("mount did not complete before deadline")
	}

	assert.Equal(t, wantFH, c.RootFH())
}

func TestMountAsyncSetClientIDFailureFiresOnce(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	failReply := buildCompoundReply(types.NFS4ERR_CLID_INUSE, func(enc *xdr.Encoder) {
		enc.PutUint32(1)
		enc.PutUint32(types.OP_SETCLIENTID)
		enc.PutUint32(types.NFS4ERR_CLID_INUSE)
	})
	fakeSequencer(t, ln, [][]byte{failReply})

	c, err := New(nil)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var calls int
	done := make(chan int, 1)
	MountAsync(ctx, c, ln.Addr().String(), "/", func(status int, got *Client, payload any, cookie any) {
		calls++
		done <- status
	}, nil)

	select {
	case status := <-done:
		assert.Less(t, status, 0)
	case <-ctx.Done():
		t.Fatal("mount did not complete before deadline")
	}

	// Give a hypothetical second fire a moment to land; there must not be one.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, calls)
	assert.Nil(t, c.RootFH())
}
